package events

import "context"

// Stream carries per-user connection and ad events.
const StreamAds = "events:ads"

// Event types
const (
	EventConnectionState = "connection_state_changed"
	EventAdCreated       = "ad_created"
	EventAdFailed        = "ad_failed"
)

type Event struct {
	Type    string         `json:"type"`
	UserID  string         `json:"user_id"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
