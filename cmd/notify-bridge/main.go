package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ads-marketplace/tiktok-connector/internal/config"
	"github.com/ads-marketplace/tiktok-connector/internal/db"
	"github.com/ads-marketplace/tiktok-connector/internal/events"
	"github.com/ads-marketplace/tiktok-connector/internal/notify"
	"go.uber.org/zap"
)

// notify-bridge subscribes to ad events published by the API over redis
// and forwards ad outcomes to NOTIFY_WEBHOOK_URL.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required")
	}
	if cfg.NotifyWebhookURL == "" {
		log.Fatal("NOTIFY_WEBHOOK_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	forwarder := notify.NewForwarder(cfg.NotifyWebhookURL, 10*time.Second, log)

	err = subscriber.Subscribe(ctx, events.StreamAds, func(event events.Event) {
		if err := forwarder.Forward(ctx, event); err != nil {
			log.Warn("failed to forward notification",
				zap.String("type", event.Type),
				zap.String("user_id", event.UserID),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		log.Fatal("failed to subscribe", zap.Error(err))
	}

	log.Info("notify-bridge started", zap.String("stream", events.StreamAds))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify-bridge")
	cancel()
}
