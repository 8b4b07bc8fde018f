package http

import (
	"time"

	"github.com/ads-marketplace/tiktok-connector/internal/config"
	"github.com/ads-marketplace/tiktok-connector/internal/http/handlers"
	"github.com/ads-marketplace/tiktok-connector/internal/metrics"
	"github.com/ads-marketplace/tiktok-connector/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SetupRouter mounts every route. rdb may be nil, which disables rate limiting.
func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	m *metrics.Metrics,
	authHandler *handlers.AuthHandler,
	adHandler *handlers.AdHandler,
	metaHandler *handlers.MetaHandler,
	wsHub *handlers.WSHub,
) {
	origins := config.ParseOrigins(cfg.CORSOrigins)

	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-ID, X-User-ID",
		AllowCredentials: origins != "*",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.UserIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{})))

	api := app.Group("/api")

	api.Get("/health", metaHandler.Health)
	api.Get("/meta/form-options", metaHandler.FormOptions)

	if rdb != nil {
		api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute, log))
	}

	// Auth
	api.Get("/auth/tiktok", authHandler.Connect)
	api.Get("/auth/callback", authHandler.Callback)
	api.Get("/auth/user/:userId", authHandler.GetUser)
	api.Post("/auth/disconnect", authHandler.Disconnect)

	// Ads
	api.Post("/ads/validate-music", adHandler.ValidateMusic)
	api.Post("/ads/upload-music", adHandler.UploadMusic)
	api.Post("/ads/create", adHandler.CreateAd)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}

// NewApp creates the fiber app with the JSON error handler used by every route.
func NewApp(cfg *config.Config, log *zap.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		BodyLimit: cfg.MaxUploadBytes + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			} else {
				log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{"success": false, "error": msg})
		},
	})
}
