package validation

import (
	"context"
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/ads-marketplace/tiktok-connector/internal/apperr"
	"github.com/ads-marketplace/tiktok-connector/internal/tiktok"
	"go.uber.org/zap"
)

const minMusicIDLength = 3

// Music validation reasons
const (
	ReasonMusicRequired = "Please enter a Music ID"
	ReasonMusicInvalid  = "Invalid Music ID. Please check and try again."
	ReasonMusicNotFound = "Music ID not found in TikTok library. Please check and try again."
)

type MusicResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// MusicValidator decides whether a music id can be attached to an ad.
// Errors are reserved for auth and transport failures; an unusable id is
// reported through MusicResult.
type MusicValidator interface {
	Validate(ctx context.Context, musicID, accessToken string) (MusicResult, error)
}

// CheckMusicID applies the local format rule: at least three characters,
// starting with a digit.
func CheckMusicID(musicID string) MusicResult {
	if musicID == "" {
		return MusicResult{Reason: ReasonMusicRequired}
	}
	if utf8.RuneCountInString(musicID) < minMusicIDLength {
		return MusicResult{Reason: ReasonMusicInvalid}
	}
	first, _ := utf8.DecodeRuneInString(musicID)
	if first > unicode.MaxASCII || !unicode.IsDigit(first) {
		return MusicResult{Reason: ReasonMusicInvalid}
	}
	return MusicResult{Valid: true}
}

// LocalMusicValidator validates ids without calling TikTok.
type LocalMusicValidator struct{}

func (LocalMusicValidator) Validate(ctx context.Context, musicID, accessToken string) (MusicResult, error) {
	return CheckMusicID(musicID), nil
}

// RemoteMusicValidator looks music ids up in the TikTok library.
type RemoteMusicValidator struct {
	api tiktok.AdsAPI
	log *zap.Logger
}

func NewRemoteMusicValidator(api tiktok.AdsAPI, log *zap.Logger) *RemoteMusicValidator {
	return &RemoteMusicValidator{api: api, log: log}
}

func (v *RemoteMusicValidator) Validate(ctx context.Context, musicID, accessToken string) (MusicResult, error) {
	if musicID == "" {
		return MusicResult{Reason: ReasonMusicRequired}, nil
	}

	_, err := v.api.LookupMusic(ctx, accessToken, musicID)
	if err == nil {
		return MusicResult{Valid: true}, nil
	}

	if errors.Is(err, tiktok.ErrUnauthorized) {
		return MusicResult{}, apperr.Authorization(apperr.MsgTokenExpired, err)
	}

	var apiErr *tiktok.APIError
	if errors.As(err, &apiErr) && !apiErr.Unavailable() {
		v.log.Debug("music lookup rejected",
			zap.String("music_id", musicID),
			zap.Int("code", apiErr.Code),
		)
		return MusicResult{Reason: ReasonMusicNotFound}, nil
	}

	v.log.Warn("music lookup failed", zap.String("music_id", musicID), zap.Error(err))
	return MusicResult{}, apperr.External(apperr.MsgMusicFailed, err)
}
