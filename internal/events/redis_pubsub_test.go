package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisPubSub(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Event, 1)
	sub := NewRedisSubscriber(rdb, zap.NewNop())
	require.NoError(t, sub.Subscribe(ctx, StreamAds, func(e Event) { got <- e }))

	pub := NewRedisPublisher(rdb, zap.NewNop())
	require.NoError(t, pub.Publish(ctx, StreamAds, Event{
		Type:    EventAdCreated,
		UserID:  "user_1",
		Payload: map[string]any{"ad_id": "ad_1"},
	}))

	select {
	case e := <-got:
		assert.Equal(t, EventAdCreated, e.Type)
		assert.Equal(t, "user_1", e.UserID)
		assert.Equal(t, "ad_1", e.Payload["ad_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestRedisSubscriber_SkipsMalformed(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Event, 2)
	require.NoError(t, NewRedisSubscriber(rdb, zap.NewNop()).Subscribe(ctx, StreamAds, func(e Event) { got <- e }))

	require.NoError(t, rdb.Publish(ctx, StreamAds, "not json").Err())
	require.NoError(t, NewRedisPublisher(rdb, zap.NewNop()).Publish(ctx, StreamAds, Event{Type: EventAdFailed, UserID: "u"}))

	select {
	case e := <-got:
		assert.Equal(t, EventAdFailed, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestRedisSubscriber_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	err = NewRedisSubscriber(rdb, zap.NewNop()).Subscribe(context.Background(), StreamAds, func(Event) {})
	assert.Error(t, err)
}
