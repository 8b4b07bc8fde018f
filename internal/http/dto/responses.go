package dto

import "github.com/ads-marketplace/tiktok-connector/internal/models"

type ErrorResponse struct {
	Success   bool                    `json:"success"`
	Error     string                  `json:"error"`
	Errors    models.ValidationResult `json:"errors,omitempty"`
	RequestID string                  `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type UserResponse struct {
	Success bool               `json:"success"`
	User    models.UserProfile `json:"user"`
}

type MusicResponse struct {
	Success bool   `json:"success"`
	MusicID string `json:"musicId"`
	Message string `json:"message"`
}

type UploadResponse struct {
	Success         bool   `json:"success"`
	UploadedFileRef string `json:"uploadedFileRef"`
	MusicID         string `json:"musicId"`
}

type CreateAdResponse struct {
	models.SubmissionResult
	Data *models.CampaignDraft `json:"data,omitempty"`
}

type FormOptionsResponse struct {
	Objectives      []string `json:"objectives"`
	CTAs            []string `json:"ctas"`
	MusicOptions    []string `json:"musicOptions"`
	MaxAdTextLength int      `json:"maxAdTextLength"`
	MockMode        bool     `json:"mockMode"`
}
