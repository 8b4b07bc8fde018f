package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ads-marketplace/tiktok-connector/internal/events"
	"go.uber.org/zap"
)

// Notification is the body posted to the webhook.
type Notification struct {
	Type         string    `json:"type"`
	UserID       string    `json:"user_id"`
	AdID         string    `json:"ad_id,omitempty"`
	CampaignName string    `json:"campaign_name,omitempty"`
	Error        string    `json:"error,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	Text         string    `json:"text"`
	At           time.Time `json:"at"`
}

// Forwarder posts ad outcomes to an external webhook. Connection state
// events are ignored.
type Forwarder struct {
	url  string
	http *http.Client
	log  *zap.Logger
	now  func() time.Time
}

func NewForwarder(url string, timeout time.Duration, log *zap.Logger) *Forwarder {
	return &Forwarder{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  log,
		now:  time.Now,
	}
}

// Build converts an event into a notification. ok is false for events that
// are not forwarded.
func Build(event events.Event, at time.Time) (n Notification, ok bool) {
	str := func(k string) string {
		v, _ := event.Payload[k].(string)
		return v
	}

	n = Notification{
		Type:         event.Type,
		UserID:       event.UserID,
		CampaignName: str("campaign_name"),
		At:           at.UTC(),
	}

	switch event.Type {
	case events.EventAdCreated:
		n.AdID = str("ad_id")
		n.Text = fmt.Sprintf("Ad %s created for campaign %q", n.AdID, n.CampaignName)
	case events.EventAdFailed:
		n.Error = str("error")
		n.ErrorKind = str("kind")
		n.Text = fmt.Sprintf("Ad creation failed for campaign %q: %s", n.CampaignName, n.Error)
	default:
		return Notification{}, false
	}
	return n, true
}

// Forward delivers event if it is an ad outcome.
func (f *Forwarder) Forward(ctx context.Context, event events.Event) error {
	n, ok := Build(event, f.now())
	if !ok {
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}

	f.log.Debug("notification forwarded",
		zap.String("type", n.Type),
		zap.String("user_id", n.UserID),
	)
	return nil
}
