package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const MsgRateLimited = "Too many requests. Please wait a moment and try again."

// RateLimitMiddleware allows limit requests per window for each caller and
// route group. Ad calls are counted per connected user so that users behind
// one address do not share a budget; everything else, and ad calls without a
// user id, is counted per client IP. Redis failures let the request through.
func RateLimitMiddleware(rdb *redis.Client, limit int, window time.Duration, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := rateLimitKey(c)

		ctx := c.Context()
		var incr *redis.IntCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, window)
			return nil
		})
		if err != nil {
			log.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
			return c.Next()
		}

		count := incr.Val()
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int((ttl+time.Second-1)/time.Second)))
			}
			log.Info("rate limited", zap.String("key", key), zap.Int64("count", count))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   MsgRateLimited,
			})
		}

		return c.Next()
	}
}

func rateLimitKey(c *fiber.Ctx) string {
	group := routeGroup(c.Path())
	if group == "ads" {
		if userID := GetUserID(c); userID != "" {
			return "rl:ads:user:" + userID
		}
	}
	return "rl:" + group + ":ip:" + c.IP()
}

// routeGroup returns the first segment after /api, e.g. "ads" for
// /api/ads/create.
func routeGroup(path string) string {
	p := strings.TrimPrefix(strings.Trim(path, "/"), "api/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "root"
	}
	return p
}
