package tiktok

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
	"time"

	"go.uber.org/zap"
)

// ErrUnauthorized is returned when TikTok rejects the access token.
var ErrUnauthorized = errors.New("tiktok: access token rejected")

// TikTok business API codes for invalid or expired tokens.
const (
	codeAccessTokenInvalid = 40100
	codeAccessTokenExpired = 40105
)

// APIError is a non-auth failure reported by the TikTok API.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tiktok api error %d (code %d): %s", e.Status, e.Code, e.Message)
}

// Unavailable reports a gateway or server failure rather than a rejection.
func (e *APIError) Unavailable() bool {
	return e.Status >= http.StatusInternalServerError
}

// AdsAPI is the subset of the TikTok business API used for ad creation.
type AdsAPI interface {
	CreateAd(ctx context.Context, accessToken string, req CreateAdRequest) (string, error)
	LookupMusic(ctx context.Context, accessToken, musicID string) (*MusicInfo, error)
}

// Authenticator exchanges OAuth authorization codes for access tokens.
type Authenticator interface {
	ExchangeToken(ctx context.Context, authCode string) (*TokenGrant, error)
}

type CreateAdRequest struct {
	AdvertiserID  string `json:"advertiser_id"`
	CampaignName  string `json:"campaign_name"`
	ObjectiveType string `json:"objective_type"`
	AdText        string `json:"ad_text"`
	CallToAction  string `json:"call_to_action"`
	MusicID       string `json:"music_id,omitempty"`
}

type MusicInfo struct {
	MusicID  string `json:"music_id"`
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type TokenGrant struct {
	AccessToken   string   `json:"access_token"`
	AdvertiserIDs []string `json:"advertiser_ids"`
	Scope         []int    `json:"scope,omitempty"`
}

// envelope is the common response wrapper of the business API.
type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// Client talks to the TikTok business API over HTTP.
type Client struct {
	baseURL    string
	appID      string
	secret     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, appID, secret string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// AuthorizeURL builds the advertiser authorization page URL.
func AuthorizeURL(authURL, appID, redirectURI, state string) string {
	q := url.Values{}
	q.Set("app_id", appID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return authURL + "?" + q.Encode()
}

func (c *Client) ExchangeToken(ctx context.Context, authCode string) (*TokenGrant, error) {
	body := map[string]string{
		"app_id":    c.appID,
		"secret":    c.secret,
		"auth_code": authCode,
	}

	var grant TokenGrant
	if err := c.do(ctx, http.MethodPost, "/oauth2/access_token/", "", body, &grant); err != nil {
		return nil, err
	}
	if grant.AccessToken == "" {
		return nil, fmt.Errorf("tiktok: token exchange returned no access token")
	}
	return &grant, nil
}

func (c *Client) LookupMusic(ctx context.Context, accessToken, musicID string) (*MusicInfo, error) {
	path := "/music/info/?music_id=" + url.QueryEscape(musicID)

	var info MusicInfo
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &info); err != nil {
		return nil, err
	}
	if info.MusicID == "" {
		info.MusicID = musicID
	}
	return &info, nil
}

func (c *Client) CreateAd(ctx context.Context, accessToken string, req CreateAdRequest) (string, error) {
	var result struct {
		AdID string `json:"ad_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/ad/create/", accessToken, req, &result); err != nil {
		return "", err
	}
	if result.AdID == "" {
		return "", &APIError{Status: http.StatusOK, Message: "ad created without an id"}
	}
	return result.AdID, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Access-Token", accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tiktok api unavailable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("tiktok api read body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			c.log.Debug("tiktok api returned non-json body",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", raw),
			)
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("tiktok api decode: %w", err)
	}

	if env.Code == codeAccessTokenInvalid || env.Code == codeAccessTokenExpired {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK || env.Code != 0 {
		c.log.Debug("tiktok api error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Int("code", env.Code),
			zap.String("request_id", env.RequestID),
		)
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("tiktok api decode data: %w", err)
		}
	}
	return nil
}
