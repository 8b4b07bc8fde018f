package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ads-marketplace/tiktok-connector/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuild(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		event    events.Event
		wantOK   bool
		wantText string
	}{
		{
			name: "created",
			event: events.Event{Type: events.EventAdCreated, UserID: "user_1", Payload: map[string]any{
				"ad_id": "ad_1", "campaign_name": "Summer Sale",
			}},
			wantOK:   true,
			wantText: `Ad ad_1 created for campaign "Summer Sale"`,
		},
		{
			name: "failed",
			event: events.Event{Type: events.EventAdFailed, UserID: "user_1", Payload: map[string]any{
				"error": "boom", "kind": "external", "campaign_name": "Summer Sale",
			}},
			wantOK:   true,
			wantText: `Ad creation failed for campaign "Summer Sale": boom`,
		},
		{
			name:   "state change ignored",
			event:  events.Event{Type: events.EventConnectionState, UserID: "user_1", Payload: map[string]any{"state": "connected"}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := Build(tt.event, at)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantText, n.Text)
				assert.Equal(t, "user_1", n.UserID)
				assert.Equal(t, at, n.At)
			}
		})
	}
}

func TestForwarder(t *testing.T) {
	var got []Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n Notification
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&n))
		got = append(got, n)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	f := NewForwarder(srv.URL, time.Second, zap.NewNop())

	err := f.Forward(context.Background(), events.Event{Type: events.EventConnectionState, UserID: "u"})
	require.NoError(t, err)
	assert.Empty(t, got)

	err = f.Forward(context.Background(), events.Event{Type: events.EventAdCreated, UserID: "u", Payload: map[string]any{"ad_id": "ad_9"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ad_9", got[0].AdID)
}

func TestForwarder_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewForwarder(srv.URL, time.Second, zap.NewNop())
	err := f.Forward(context.Background(), events.Event{Type: events.EventAdFailed, UserID: "u"})
	assert.EqualError(t, err, "webhook returned 502")
}
