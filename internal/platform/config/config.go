package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	ProviderGoogle = "google"
	ProviderStub   = "stub"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	Provider              string `env:"PROVIDER" default:"google"`
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" default:"gcloud-credentials.json"`
	GoogleProjectID       string `env:"GOOGLE_PROJECT_ID"`

	RedisURL            string        `env:"REDIS_URL"`
	TranslationCacheTTL time.Duration `env:"TRANSLATION_CACHE_TTL" default:"10m"`
	UpstreamTimeout     time.Duration `env:"UPSTREAM_TIMEOUT" default:"15s"`

	KeepAliveInterval time.Duration `env:"KEEPALIVE_INTERVAL" default:"30s"`
	MaxSubscribers    int           `env:"MAX_SUBSCRIBERS" default:"1000"`

	PublishRateLimit float64 `env:"PUBLISH_RATE_LIMIT" default:"20"`
	PublishRateBurst int     `env:"PUBLISH_RATE_BURST" default:"40"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func validate(cfg *Config) error {
	switch cfg.Provider {
	case ProviderGoogle:
		if cfg.GoogleCredentialsFile == "" {
			return errors.New("GOOGLE_CREDENTIALS_FILE is required when PROVIDER=google")
		}
	case ProviderStub:
	default:
		return fmt.Errorf("PROVIDER must be %q or %q, got %q", ProviderGoogle, ProviderStub, cfg.Provider)
	}

	if cfg.KeepAliveInterval <= 0 {
		return errors.New("KEEPALIVE_INTERVAL must be positive")
	}
	if cfg.UpstreamTimeout <= 0 {
		return errors.New("UPSTREAM_TIMEOUT must be positive")
	}
	if cfg.MaxSubscribers < 0 {
		return errors.New("MAX_SUBSCRIBERS must not be negative")
	}
	if cfg.PublishRateLimit <= 0 || cfg.PublishRateBurst < 1 {
		return errors.New("PUBLISH_RATE_LIMIT and PUBLISH_RATE_BURST must be positive")
	}

	return nil
}
