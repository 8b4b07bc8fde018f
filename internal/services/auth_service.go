package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/ads-marketplace/tiktok-connector/internal/apperr"
	"github.com/ads-marketplace/tiktok-connector/internal/auth"
	"github.com/ads-marketplace/tiktok-connector/internal/config"
	"github.com/ads-marketplace/tiktok-connector/internal/events"
	"github.com/ads-marketplace/tiktok-connector/internal/metrics"
	"github.com/ads-marketplace/tiktok-connector/internal/models"
	"github.com/ads-marketplace/tiktok-connector/internal/session"
	"github.com/ads-marketplace/tiktok-connector/internal/tiktok"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MsgSessionNotFound = "Session not found. Please reconnect."
	MsgConnectFailed   = "Failed to connect TikTok account. Please try again."
)

var errMissingCode = errors.New("authorization code is missing")

// AuthService connects and disconnects TikTok accounts.
type AuthService struct {
	store     session.Store
	oauth     tiktok.Authenticator
	publisher events.Publisher
	metrics   *metrics.Metrics
	cfg       *config.Config
	log       *zap.Logger
}

func NewAuthService(
	store session.Store,
	oauth tiktok.Authenticator,
	publisher events.Publisher,
	m *metrics.Metrics,
	cfg *config.Config,
	log *zap.Logger,
) *AuthService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &AuthService{
		store:     store,
		oauth:     oauth,
		publisher: publisher,
		metrics:   m,
		cfg:       cfg,
		log:       log,
	}
}

// BeginConnect returns the URL the browser is sent to. In mock mode a
// session is created right away and the URL points back to the frontend.
func (s *AuthService) BeginConnect(ctx context.Context) (string, error) {
	if s.cfg.UsesMockAPI() {
		s.log.Info("TikTok credentials not configured, using mock connect")
		userID, err := s.connectMock(ctx)
		if err != nil {
			return "", apperr.External(MsgConnectFailed, err)
		}
		return s.successURL(userID), nil
	}

	state, err := auth.GenerateState(s.cfg.StateSecret, s.cfg.StateTTL)
	if err != nil {
		return "", apperr.Unexpected(err)
	}
	return tiktok.AuthorizeURL(s.cfg.TikTokAuthURL, s.cfg.TikTokAppID, s.cfg.TikTokRedirectURI, state), nil
}

// Callback completes the OAuth exchange and returns the frontend URL to
// redirect to, carrying either the new user id or an error message.
func (s *AuthService) Callback(ctx context.Context, code, state string) string {
	if s.cfg.UsesMockAPI() {
		s.log.Info("using mock OAuth callback")
		userID, err := s.connectMock(ctx)
		if err != nil {
			return s.errorURL(MsgConnectFailed)
		}
		return s.successURL(userID)
	}

	if _, err := auth.ParseState(s.cfg.StateSecret, state); err != nil {
		s.log.Warn("oauth state rejected", zap.Error(err))
		s.metrics.ConnectAttempts.WithLabelValues("invalid_state").Inc()
		return s.errorURL("invalid or expired state")
	}
	if strings.TrimSpace(code) == "" {
		s.metrics.ConnectAttempts.WithLabelValues("error").Inc()
		return s.errorURL(errMissingCode.Error())
	}

	grant, err := s.oauth.ExchangeToken(ctx, code)
	if err != nil {
		s.log.Error("oauth token exchange failed", zap.Error(err))
		s.metrics.ConnectAttempts.WithLabelValues("error").Inc()
		return s.errorURL(exchangeMessage(err))
	}

	userID := newUserID()
	s.store.Set(userID, models.Session{
		AccessToken:   grant.AccessToken,
		AdvertiserIDs: grant.AdvertiserIDs,
		CreatedAt:     time.Now(),
	})
	s.metrics.ConnectAttempts.WithLabelValues("success").Inc()
	s.publishState(ctx, userID, models.ConnectionConnected)

	s.log.Info("oauth successful",
		zap.String("user_id", userID),
		zap.Int("advertisers", len(grant.AdvertiserIDs)),
	)
	return s.successURL(userID)
}

// UserInfo returns the profile of a connected user.
func (s *AuthService) UserInfo(userID string) (models.UserProfile, error) {
	sess, ok := s.store.Get(userID)
	if !ok {
		return models.UserProfile{}, apperr.Authorization(MsgSessionNotFound, nil)
	}
	return sess.Profile(), nil
}

// Disconnect forgets the session. Unknown ids are ignored.
func (s *AuthService) Disconnect(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if _, ok := s.store.Get(userID); !ok {
		return
	}
	s.store.Delete(userID)
	s.publishState(ctx, userID, models.ConnectionDisconnected)
	s.log.Info("user disconnected", zap.String("user_id", userID))
}

func (s *AuthService) connectMock(ctx context.Context) (string, error) {
	grant, err := s.oauth.ExchangeToken(ctx, "mock_auth_code")
	if err != nil {
		s.log.Error("mock token exchange failed", zap.Error(err))
		s.metrics.ConnectAttempts.WithLabelValues("error").Inc()
		return "", err
	}

	userID := newUserID()
	s.store.Set(userID, models.Session{
		AccessToken: grant.AccessToken,
		User: &models.UserProfile{
			ID:    userID,
			Name:  "Test User",
			Email: "test@example.com",
		},
		CreatedAt: time.Now(),
	})
	s.metrics.ConnectAttempts.WithLabelValues("mock").Inc()
	s.publishState(ctx, userID, models.ConnectionConnected)
	return userID, nil
}

// exchangeMessage is the text shown to the browser for a failed token
// exchange. Only rejections reported by TikTok are passed through.
func exchangeMessage(err error) string {
	var apiErr *tiktok.APIError
	if errors.As(err, &apiErr) && !apiErr.Unavailable() && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return MsgConnectFailed
}

func (s *AuthService) publishState(ctx context.Context, userID, state string) {
	err := s.publisher.Publish(ctx, events.StreamAds, events.Event{
		Type:    events.EventConnectionState,
		UserID:  userID,
		Payload: map[string]any{"state": state},
	})
	if err != nil {
		s.log.Warn("failed to publish connection state", zap.String("state", state), zap.Error(err))
	}
}

func (s *AuthService) successURL(userID string) string {
	q := url.Values{}
	q.Set("auth", "success")
	q.Set("userId", userID)
	return s.cfg.FrontendURL + "?" + q.Encode()
}

func (s *AuthService) errorURL(msg string) string {
	q := url.Values{}
	q.Set("auth", "error")
	q.Set("message", msg)
	return s.cfg.FrontendURL + "?" + q.Encode()
}

func newUserID() string {
	return "user_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
