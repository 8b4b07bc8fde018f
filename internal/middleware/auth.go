package middleware

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const CtxUserID = "user_id"

// UserIDMiddleware resolves the caller's user id from, in order, the
// X-User-ID header, the userId query value, and the userId field of a JSON
// or form body. Session checks happen in services.
func UserIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := resolveUserID(c); id != "" {
			c.Locals(CtxUserID, id)
		}
		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(CtxUserID).(string)
	return id
}

func resolveUserID(c *fiber.Ctx) string {
	if id := strings.TrimSpace(c.Get("X-User-ID")); id != "" {
		return id
	}
	if id := c.Query("userId"); id != "" {
		return id
	}

	ctype := strings.ToLower(c.Get(fiber.HeaderContentType))
	switch {
	case strings.HasPrefix(ctype, fiber.MIMEApplicationJSON):
		var body struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(c.Body(), &body); err == nil {
			return strings.TrimSpace(body.UserID)
		}
	case strings.HasPrefix(ctype, fiber.MIMEMultipartForm), strings.HasPrefix(ctype, fiber.MIMEApplicationForm):
		return strings.TrimSpace(c.FormValue("userId"))
	}
	return ""
}
