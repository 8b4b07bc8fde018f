package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ads-marketplace/tiktok-connector/internal/config"
	"github.com/ads-marketplace/tiktok-connector/internal/db"
	"github.com/ads-marketplace/tiktok-connector/internal/events"
	apphttp "github.com/ads-marketplace/tiktok-connector/internal/http"
	"github.com/ads-marketplace/tiktok-connector/internal/http/handlers"
	"github.com/ads-marketplace/tiktok-connector/internal/metrics"
	"github.com/ads-marketplace/tiktok-connector/internal/services"
	"github.com/ads-marketplace/tiktok-connector/internal/session"
	"github.com/ads-marketplace/tiktok-connector/internal/storage"
	"github.com/ads-marketplace/tiktok-connector/internal/tiktok"
	"github.com/ads-marketplace/tiktok-connector/internal/validation"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sessions
	store := session.NewMemoryStore(cfg.SessionTTL, log)
	if cfg.SessionTTL > 0 {
		go store.RunJanitor(ctx, time.Minute)
	}

	// Events
	var (
		rdb        *redis.Client
		publisher  events.Publisher
		subscriber events.Subscriber
	)
	if cfg.RedisURL != "" {
		var err error
		rdb, err = db.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, log)
		subscriber = events.NewRedisSubscriber(rdb, log)
	} else {
		bus := events.NewLocalBus()
		publisher, subscriber = bus, bus
	}

	m := metrics.New(store.Len)

	// Music uploads
	var uploads storage.MusicStorage = storage.Discard{}
	if cfg.S3Endpoint != "" {
		s3Client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			Region:    cfg.S3Region,
		})
		if err != nil {
			log.Fatal("failed to create s3 client", zap.Error(err))
		}
		s3 := storage.NewS3Storage(s3Client, cfg.S3Bucket)
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("s3 bucket check failed, will retry on first upload", zap.Error(err))
		}
		uploads = s3
	}

	// TikTok
	var (
		ads   tiktok.AdsAPI
		oauth tiktok.Authenticator
		music validation.MusicValidator
	)
	if cfg.UsesMockAPI() {
		mock := tiktok.NewMockClient(tiktok.NewRateFailure(cfg.MockFailureRate, time.Now().UnixNano()), log)
		ads, oauth, music = mock, mock, validation.LocalMusicValidator{}
	} else {
		client := tiktok.NewClient(cfg.TikTokAPIBaseURL, cfg.TikTokAppID, cfg.TikTokAppSecret, cfg.TikTokTimeout, log)
		ads, oauth, music = client, client, validation.NewRemoteMusicValidator(client, log)
	}

	// Services
	authService := services.NewAuthService(store, oauth, publisher, m, cfg, log)
	adService := services.NewAdService(store, music, ads, uploads, publisher, m, cfg.TikTokTimeout, int64(cfg.MaxUploadBytes), log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	adHandler := handlers.NewAdHandler(adService, log)
	metaHandler := handlers.NewMetaHandler(cfg.UsesMockAPI())
	wsHub := handlers.NewWSHub(store, subscriber, log)

	// Start WS hub
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to start ws hub", zap.Error(err))
	}

	app := apphttp.NewApp(cfg, log)
	apphttp.SetupRouter(app, cfg, log, rdb, m, authHandler, adHandler, metaHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server",
		zap.String("addr", addr),
		zap.Bool("mock_api", cfg.UsesMockAPI()),
		zap.Bool("redis", rdb != nil),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
