package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-redis-url", zap.NewNop())
	assert.ErrorContains(t, err, "parse redis url")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRedisClient(ctx, "redis://127.0.0.1:1/0", zap.NewNop())
	assert.ErrorContains(t, err, "ping redis at 127.0.0.1:1")
}
