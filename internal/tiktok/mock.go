package tiktok

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockFailureMessage mirrors the error a stale session produces upstream.
const MockFailureMessage = "Failed to create ad. Your session may have expired. Please try reconnecting."

// FailurePolicy decides whether a mocked call should fail.
type FailurePolicy interface {
	ShouldFail() bool
}

// NeverFail is a FailurePolicy that never injects failures.
type NeverFail struct{}

func (NeverFail) ShouldFail() bool { return false }

// AlwaysFail is a FailurePolicy that fails every call.
type AlwaysFail struct{}

func (AlwaysFail) ShouldFail() bool { return true }

// RateFailure fails a call with the given probability.
type RateFailure struct {
	rate float64
	mu   sync.Mutex
	rng  *rand.Rand
}

func NewRateFailure(rate float64, seed int64) *RateFailure {
	return &RateFailure{rate: rate, rng: rand.New(rand.NewSource(seed))}
}

func (p *RateFailure) ShouldFail() bool {
	if p.rate <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < p.rate
}

// MockClient stands in for the TikTok API when no credentials are configured.
type MockClient struct {
	policy FailurePolicy
	log    *zap.Logger
}

func NewMockClient(policy FailurePolicy, log *zap.Logger) *MockClient {
	if policy == nil {
		policy = NeverFail{}
	}
	return &MockClient{policy: policy, log: log}
}

func (m *MockClient) CreateAd(ctx context.Context, accessToken string, req CreateAdRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.policy.ShouldFail() {
		m.log.Info("mock ad creation failure injected", zap.String("campaign", req.CampaignName))
		return "", &APIError{Status: 500, Message: MockFailureMessage}
	}

	adID := "ad_" + uuid.New().String()
	m.log.Info("ad created (mock)",
		zap.String("ad_id", adID),
		zap.String("objective", req.ObjectiveType),
	)
	return adID, nil
}

// LookupMusic accepts any id; music format checks happen before lookup.
func (m *MockClient) LookupMusic(ctx context.Context, accessToken, musicID string) (*MusicInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &MusicInfo{MusicID: musicID}, nil
}

func (m *MockClient) ExchangeToken(ctx context.Context, authCode string) (*TokenGrant, error) {
	return &TokenGrant{
		AccessToken: "mock_token_" + time.Now().Format("20060102150405"),
	}, nil
}
