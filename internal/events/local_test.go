package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBus_PublishSubscribe(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Event
	require.NoError(t, bus.Subscribe(ctx, StreamAds, func(e Event) {
		got = append(got, e)
	}))

	require.NoError(t, bus.Publish(ctx, StreamAds, Event{Type: EventAdCreated, UserID: "user_1"}))
	require.NoError(t, bus.Publish(ctx, "events:other", Event{Type: EventAdFailed}))

	require.Len(t, got, 1)
	assert.Equal(t, EventAdCreated, got[0].Type)
	assert.Equal(t, "user_1", got[0].UserID)
}

func TestLocalBus_UnsubscribeOnCancel(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	require.NoError(t, bus.Subscribe(ctx, StreamAds, func(Event) { calls++ }))
	cancel()

	assert.Eventually(t, func() bool {
		_ = bus.Publish(context.Background(), StreamAds, Event{Type: EventAdCreated})
		n := calls
		_ = bus.Publish(context.Background(), StreamAds, Event{Type: EventAdCreated})
		return calls == n
	}, time.Second, 10*time.Millisecond)
}

func TestLocalBus_HandlerMaySubscribeDuringPublish(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var first, second int
	require.NoError(t, bus.Subscribe(ctx, StreamAds, func(Event) {
		first++
		if first == 1 {
			assert.NoError(t, bus.Subscribe(ctx, StreamAds, func(Event) { second++ }))
		}
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Publish(ctx, StreamAds, Event{Type: EventAdCreated})
		_ = bus.Publish(ctx, StreamAds, Event{Type: EventAdCreated})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}
	assert.Equal(t, 2, first)
	assert.Equal(t, 1, second, "handler added during a publish only sees later events")
}
