// Package client drives the connector API the way the campaign form does:
// it holds the connection state, validates drafts locally before
// submitting, and drops to disconnected when the server rejects the session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ads-marketplace/tiktok-connector/internal/models"
	"github.com/ads-marketplace/tiktok-connector/internal/services"
	"github.com/ads-marketplace/tiktok-connector/internal/validation"
	"go.uber.org/zap"
)

var (
	ErrInvalidTransition = errors.New("invalid connection state transition")
	ErrNotConnected      = errors.New("not connected")
)

// BrowserAuthError is returned by Connect when the server sends the user to
// TikTok instead of completing a mock login. Open URL in a browser and call
// Resume with the userId from the final redirect.
type BrowserAuthError struct {
	URL string
}

func (e *BrowserAuthError) Error() string {
	return "authorization must be completed in a browser: " + e.URL
}

// AuthError carries the message of an auth=error redirect or a 401 body.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "authorization failed: " + e.Message
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger

	mu       sync.Mutex
	state    string
	userID   string
	profile  *models.UserProfile
	onChange func(from, to string)
}

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log:   log,
		state: models.ConnectionDisconnected,
	}
}

// OnStateChange registers fn to be called after every transition.
func (c *Client) OnStateChange(fn func(from, to string)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Client) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) Profile() *models.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

func (c *Client) transition(to string) error {
	c.mu.Lock()
	from := c.state
	if !models.IsValidConnectionTransition(from, to) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	c.state = to
	if to == models.ConnectionDisconnected {
		c.userID = ""
		c.profile = nil
	}
	fn := c.onChange
	c.mu.Unlock()

	c.log.Debug("connection state changed", zap.String("from", from), zap.String("to", to))
	if fn != nil {
		fn(from, to)
	}
	return nil
}

// Connect starts the OAuth flow. With mock credentials the server answers
// with a success redirect right away and the client becomes connected.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.transition(models.ConnectionConnecting); err != nil {
		return err
	}

	userID, err := c.beginConnect(ctx)
	if err != nil {
		_ = c.transition(models.ConnectionDisconnected)
		return err
	}
	return c.attach(ctx, userID)
}

// Resume attaches to a session created by a browser OAuth flow.
func (c *Client) Resume(ctx context.Context, userID string) error {
	if err := c.transition(models.ConnectionConnecting); err != nil {
		return err
	}
	return c.attach(ctx, userID)
}

func (c *Client) beginConnect(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/tiktok", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusFound {
		return "", fmt.Errorf("connect: unexpected status %d", resp.StatusCode)
	}

	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		return "", fmt.Errorf("connect: bad redirect: %w", err)
	}
	q := loc.Query()
	switch q.Get("auth") {
	case "success":
		if id := q.Get("userId"); id != "" {
			return id, nil
		}
		return "", &AuthError{Message: "missing userId"}
	case "error":
		return "", &AuthError{Message: q.Get("message")}
	default:
		return "", &BrowserAuthError{URL: loc.String()}
	}
}

func (c *Client) attach(ctx context.Context, userID string) error {
	var body struct {
		Success bool               `json:"success"`
		User    models.UserProfile `json:"user"`
		Error   string             `json:"error"`
	}
	status, err := c.doJSON(ctx, http.MethodGet, "/api/auth/user/"+url.PathEscape(userID), nil, &body)
	if err == nil && (status != http.StatusOK || !body.Success) {
		err = &AuthError{Message: body.Error}
	}
	if err != nil {
		_ = c.transition(models.ConnectionDisconnected)
		return err
	}

	c.mu.Lock()
	c.userID = userID
	profile := body.User
	c.profile = &profile
	c.mu.Unlock()

	return c.transition(models.ConnectionConnected)
}

// ValidateMusic asks the server to check musicID. A rejected id is reported
// through valid and reason, not err.
func (c *Client) ValidateMusic(ctx context.Context, musicID string) (valid bool, reason string, err error) {
	userID := c.UserID()
	if userID == "" {
		return false, "", ErrNotConnected
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	status, err := c.doJSON(ctx, http.MethodPost, "/api/ads/validate-music", map[string]string{
		"userId":  userID,
		"musicId": musicID,
	}, &body)
	if err != nil {
		return false, "", err
	}
	if status == http.StatusUnauthorized {
		_ = c.transition(models.ConnectionDisconnected)
		return false, "", &AuthError{Message: body.Error}
	}
	if status != http.StatusOK {
		return false, "", fmt.Errorf("validate music: status %d: %s", status, body.Error)
	}
	return body.Success, body.Error, nil
}

// Submit validates draft locally and, when it passes, submits it. The
// client returns to connected whatever the outcome, unless the server
// rejected the session.
func (c *Client) Submit(ctx context.Context, draft models.CampaignDraft) (models.SubmissionResult, error) {
	userID := c.UserID()
	if userID == "" || c.State() != models.ConnectionConnected {
		return models.SubmissionResult{}, ErrNotConnected
	}

	if errs := validation.ValidateDraft(draft); !errs.Valid() {
		return models.SubmissionResult{
			Error:       services.MsgFixErrors,
			ErrorKind:   models.ErrorKindValidation,
			FieldErrors: errs,
		}, nil
	}

	if err := c.transition(models.ConnectionSubmitting); err != nil {
		return models.SubmissionResult{}, err
	}

	payload := struct {
		UserID string `json:"userId"`
		models.CampaignDraft
	}{userID, draft}

	var result models.SubmissionResult
	_, err := c.doJSON(ctx, http.MethodPost, "/api/ads/create", payload, &result)
	if err != nil {
		_ = c.transition(models.ConnectionConnected)
		return models.SubmissionResult{}, err
	}

	if result.ErrorKind == models.ErrorKindAuthorization {
		_ = c.transition(models.ConnectionDisconnected)
	} else {
		_ = c.transition(models.ConnectionConnected)
	}
	return result, nil
}

// Disconnect ends the session on the server and resets local state.
func (c *Client) Disconnect(ctx context.Context) error {
	userID := c.UserID()
	if c.State() == models.ConnectionDisconnected {
		return nil
	}

	if userID != "" {
		if _, err := c.doJSON(ctx, http.MethodPost, "/api/auth/disconnect", map[string]string{"userId": userID}, nil); err != nil {
			c.log.Warn("disconnect request failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return c.transition(models.ConnectionDisconnected)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}
