package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// placeholderAppID is the value shipped in .env.example; treated as unset.
const placeholderAppID = "your_app_id_here"

type Config struct {
	// TikTok
	TikTokAppID       string
	TikTokAppSecret   string
	TikTokRedirectURI string
	TikTokAPIBaseURL  string
	TikTokAuthURL     string
	TikTokTimeout     time.Duration

	// Mock mode
	MockFailureRate float64

	// Sessions
	SessionTTL  time.Duration // 0 disables expiry
	StateSecret string
	StateTTL    time.Duration

	// Redis (optional: events fan-out and rate limiting)
	RedisURL           string
	RateLimitPerMinute int

	// notify-bridge
	NotifyWebhookURL string

	// Uploads; S3Endpoint empty keeps files out of storage
	MaxUploadBytes int
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3UseSSL       bool
	S3Region       string

	// Server
	APIPort     string
	FrontendURL string
	CORSOrigins string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		TikTokAppID:       getEnv("TIKTOK_APP_ID", ""),
		TikTokAppSecret:   getEnv("TIKTOK_APP_SECRET", ""),
		TikTokRedirectURI: getEnv("TIKTOK_REDIRECT_URI", "http://localhost:5000/api/auth/callback"),
		TikTokAPIBaseURL:  getEnv("TIKTOK_API_BASE_URL", "https://business-api.tiktok.com/open_api/v1.3"),
		TikTokAuthURL:     getEnv("TIKTOK_AUTH_URL", "https://ads.tiktok.com/marketing_api/auth"),
		TikTokTimeout:     time.Duration(getEnvInt("TIKTOK_TIMEOUT_MS", 10000)) * time.Millisecond,

		MockFailureRate: getEnvFloat("MOCK_FAILURE_RATE", 0.1),

		SessionTTL:  time.Duration(getEnvInt("SESSION_TTL_MINUTES", 0)) * time.Minute,
		StateSecret: getEnv("STATE_SECRET", "change-me-in-production"),
		StateTTL:    time.Duration(getEnvInt("STATE_TTL_MINUTES", 10)) * time.Minute,

		RedisURL:           getEnv("REDIS_URL", ""),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),

		MaxUploadBytes: getEnvInt("MAX_UPLOAD_BYTES", 10<<20),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3Bucket:       getEnv("S3_BUCKET", "tiktok-music"),
		S3UseSSL:       getEnv("S3_USE_SSL", "false") == "true",
		S3Region:       getEnv("S3_REGION", ""),

		APIPort:     getEnv("API_PORT", getEnv("PORT", "5000")),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
	}

	if cfg.MockFailureRate < 0 {
		cfg.MockFailureRate = 0
	}
	if cfg.MockFailureRate > 1 {
		cfg.MockFailureRate = 1
	}

	return cfg
}

// UsesMockAPI reports whether TikTok credentials are missing, in which case
// OAuth, music lookup and ad creation all run against local stand-ins.
func (c *Config) UsesMockAPI() bool {
	return c.TikTokAppID == "" || c.TikTokAppID == placeholderAppID
}

func (c *Config) Validate(log *zap.Logger) {
	if c.UsesMockAPI() {
		log.Warn("TIKTOK_APP_ID is not set, using mock OAuth and ads API",
			zap.Float64("mock_failure_rate", c.MockFailureRate))
	} else if c.TikTokAppSecret == "" {
		log.Warn("TIKTOK_APP_SECRET is not set, token exchange will fail")
	}
	if c.StateSecret == "change-me-in-production" {
		log.Warn("STATE_SECRET is default, change in production")
	}
	if c.S3Endpoint == "" {
		log.Info("S3_ENDPOINT is not set, uploaded music is not stored")
	}
	if c.SessionTTL == 0 {
		log.Info("session expiry disabled")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

// ParseOrigins splits CORS_ORIGINS into a fiber-compatible list.
func ParseOrigins(s string) string {
	if s == "" {
		return "*"
	}
	parts := strings.Split(s, ",")
	var origins []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ", ")
}
