package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Use(UserIDMiddleware())
	app.All("/echo", func(c *fiber.Ctx) error {
		return c.SendString(GetUserID(c) + "|" + GetRequestID(c))
	})
	return app
}

func echo(t *testing.T, app *fiber.App, req *http.Request) (userID, requestID string, resp *http.Response) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	parts := strings.SplitN(string(raw), "|", 2)
	require.Len(t, parts, 2)
	return parts[0], parts[1], resp
}

func TestUserIDMiddleware(t *testing.T) {
	tests := []struct {
		name string
		req  func() *http.Request
		want string
	}{
		{
			name: "header wins",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/echo?userId=query", strings.NewReader(`{"userId":"body"}`))
				r.Header.Set("Content-Type", "application/json")
				r.Header.Set("X-User-ID", "header")
				return r
			},
			want: "header",
		},
		{
			name: "query before body",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/echo?userId=query", strings.NewReader(`{"userId":"body"}`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			want: "query",
		},
		{
			name: "json body",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"userId":" user_1 "}`))
				r.Header.Set("Content-Type", "application/json; charset=utf-8")
				return r
			},
			want: "user_1",
		},
		{
			name: "form body",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("userId=user_2"))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
			want: "user_2",
		},
		{
			name: "malformed json",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"userId":`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			want: "",
		},
		{
			name: "nothing",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/echo", nil)
			},
			want: "",
		},
	}

	app := newEchoApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, _ := echo(t, app, tt.req())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	app := newEchoApp()

	_, id, resp := echo(t, app, httptest.NewRequest(http.MethodGet, "/echo", nil))
	assert.NotEmpty(t, id)
	assert.Equal(t, id, resp.Header.Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("X-Request-ID", "req-42")
	_, id, resp = echo(t, app, req)
	assert.Equal(t, "req-42", id)
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))
}
