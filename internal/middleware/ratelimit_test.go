package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func newRateLimitedApp(rdb *redis.Client, limit int) *fiber.App {
	app := fiber.New()
	app.Use(UserIDMiddleware())
	app.Use(RateLimitMiddleware(rdb, limit, time.Minute, zap.NewNop()))
	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Post("/api/ads/create", ok)
	app.Post("/api/ads/validate-music", ok)
	app.Get("/api/auth/tiktok", ok)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, userID string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRateLimitMiddleware(t *testing.T) {
	mr, rdb := newMiniRedisClient(t)
	app := newRateLimitedApp(rdb, 2)

	resp := call(t, app, http.MethodGet, "/api/auth/tiktok", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/auth/tiktok", "").StatusCode)

	resp = call(t, app, http.MethodGet, "/api/auth/tiktok", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

	mr.FastForward(61 * time.Second)
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/auth/tiktok", "").StatusCode)
}

func TestRateLimitMiddleware_AdsCountedPerUser(t *testing.T) {
	_, rdb := newMiniRedisClient(t)
	app := newRateLimitedApp(rdb, 2)

	// One budget across every /api/ads route for the same user.
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/ads/validate-music", "user_a").StatusCode)
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/ads/create", "user_a").StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, call(t, app, http.MethodPost, "/api/ads/create", "user_a").StatusCode)

	// Same address, different user.
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/ads/create", "user_b").StatusCode)

	// Auth routes are keyed by address and unaffected by ad traffic.
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/auth/tiktok", "user_a").StatusCode)
}

func TestRateLimitMiddleware_AnonymousAdsFallBackToIP(t *testing.T) {
	_, rdb := newMiniRedisClient(t)
	app := newRateLimitedApp(rdb, 1)

	assert.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/ads/create", "").StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, call(t, app, http.MethodPost, "/api/ads/create", "").StatusCode)
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/ads/create", "user_a").StatusCode)
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	mr, rdb := newMiniRedisClient(t)
	mr.Close()

	app := newRateLimitedApp(rdb, 1)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/auth/tiktok", "").StatusCode)
	}
}

func TestRouteGroup(t *testing.T) {
	tests := map[string]string{
		"/api/ads/create":    "ads",
		"/api/auth/user/u_1": "auth",
		"/api/health":        "health",
		"/metrics":           "metrics",
		"/":                  "root",
		"/api/ads/":          "ads",
	}
	for path, want := range tests {
		if got := routeGroup(path); got != want {
			t.Errorf("routeGroup(%q) = %q, want %q", path, got, want)
		}
	}
}
