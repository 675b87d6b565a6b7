package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/signcast/internal/adapter/google"
	"github.com/pscheid92/signcast/internal/adapter/httpserver"
	"github.com/pscheid92/signcast/internal/adapter/metrics"
	"github.com/pscheid92/signcast/internal/adapter/redis"
	"github.com/pscheid92/signcast/internal/adapter/stub"
	"github.com/pscheid92/signcast/internal/app"
	"github.com/pscheid92/signcast/internal/broadcast"
	"github.com/pscheid92/signcast/internal/domain"
	"github.com/pscheid92/signcast/internal/platform/config"
	"github.com/pscheid92/signcast/internal/platform/logging"
	"github.com/pscheid92/signcast/internal/platform/version"
)

const (
	shutdownTimeout       = 10 * time.Second
	cacheEvictionInterval = time.Minute
	redisBreakerThreshold = 5
	redisBreakerDelay     = 10 * time.Second
)

type upstreams struct {
	translator  domain.Translator
	synthesizer domain.Synthesizer
	close       func()
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupUpstreams(ctx context.Context, cfg *config.Config) upstreams {
	if cfg.Provider == config.ProviderStub {
		slog.Warn("Using stub translation and speech services")
		return upstreams{
			translator:  stub.NewTranslator(stub.DefaultTranslatorConfig()),
			synthesizer: stub.NewSynthesizer(stub.SynthesizerConfig{}),
			close:       func() {},
		}
	}

	projectID, err := google.ProjectID(cfg.GoogleProjectID, cfg.GoogleCredentialsFile)
	if err != nil {
		slog.Error("Failed to resolve Google project", "error", err)
		os.Exit(1)
	}

	translator, err := google.NewTranslator(ctx, projectID, cfg.GoogleCredentialsFile)
	if err != nil {
		slog.Error("Failed to create translation client", "error", err)
		os.Exit(1)
	}

	synthesizer, err := google.NewSynthesizer(ctx, cfg.GoogleCredentialsFile)
	if err != nil {
		_ = translator.Close()
		slog.Error("Failed to create speech client", "error", err)
		os.Exit(1)
	}

	slog.Info("Google Cloud clients ready", "project_id", projectID)
	return upstreams{
		translator:  translator,
		synthesizer: synthesizer,
		close: func() {
			if err := translator.Close(); err != nil {
				slog.Warn("Failed to close translation client", "error", err)
			}
			if err := synthesizer.Close(); err != nil {
				slog.Warn("Failed to close speech client", "error", err)
			}
		},
	}
}

// setupRedis connects when REDIS_URL is set. Without it the translation
// cache stays in memory.
func setupRedis(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) *goredis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	m := metrics.NewRedisMetrics(reg)
	client, err := redis.NewClient(ctx, cfg.RedisURL,
		redis.NewMetricsHook(m),
		redis.NewCircuitBreakerHook(redisBreakerThreshold, redisBreakerDelay, m),
	)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func healthChecks(redisClient *goredis.Client) []httpserver.HealthCheck {
	if redisClient == nil {
		return nil
	}
	return []httpserver.HealthCheck{{
		Name:  "redis",
		Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}}
}

func runGracefulShutdown(srv *httpserver.Server, hub *broadcast.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Shutdown stops the hub too, which ends every open stream.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "provider", cfg.Provider, "version", version.Get().String())

	reg := metrics.NewRegistry()

	ctx := context.Background()
	up := setupUpstreams(ctx, cfg)
	defer up.close()

	redisClient := setupRedis(ctx, cfg, reg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	var rdb goredis.Cmdable
	if redisClient != nil {
		rdb = redisClient
	}
	cache := redis.NewTranslationCache(rdb, cfg.TranslationCacheTTL, metrics.NewCacheMetrics(reg))
	stopEviction := cache.StartEvictionTimer(cacheEvictionInterval)
	defer stopEviction()

	hub := broadcast.NewHub(broadcast.Options{
		KeepAliveInterval: cfg.KeepAliveInterval,
		MaxSubscribers:    cfg.MaxSubscribers,
		Clock:             clock,
		Metrics:           metrics.NewStreamMetrics(reg),
	})

	appSvc := app.NewService(hub, up.translator, up.synthesizer, cache, app.Options{
		UpstreamTimeout: cfg.UpstreamTimeout,
		Clock:           clock,
		Metrics:         metrics.NewUpstreamMetrics(reg),
	})

	srv := httpserver.NewServer(cfg, appSvc, hub, reg, healthChecks(redisClient))

	done := runGracefulShutdown(srv, hub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
