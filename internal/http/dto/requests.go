package dto

import "github.com/ads-marketplace/tiktok-connector/internal/models"

type DisconnectRequest struct {
	UserID string `json:"userId"`
}

type ValidateMusicRequest struct {
	UserID  string `json:"userId"`
	MusicID string `json:"musicId"`
}

type CreateAdRequest struct {
	UserID string `json:"userId"`
	models.CampaignDraft
}
