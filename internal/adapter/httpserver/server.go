package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/signcast/internal/adapter/metrics"
	"github.com/pscheid92/signcast/internal/broadcast"
	"github.com/pscheid92/signcast/internal/platform/config"
)

const readHeaderTimeout = 10 * time.Second

type appService interface {
	Publish(ctx context.Context, text string) error
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
	Synthesize(ctx context.Context, text, languageCode, gender string) ([]byte, error)
}

type streamHub interface {
	Subscribe(w broadcast.EventWriter) (*broadcast.Subscriber, error)
	Unsubscribe(sub *broadcast.Subscriber)
	SubscriberCount() int
	Stopped() bool
	Stop()
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService
	hub streamHub

	registry     *prometheus.Registry
	httpMetrics  *metrics.HTTPMetrics
	upgrader     websocket.Upgrader
	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer wires the HTTP boundary. Shutting the server down also stops the
// hub, which ends every open subscription so the shutdown can drain.
func NewServer(cfg *config.Config, app appService, hub streamHub, reg *prometheus.Registry, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = readHeaderTimeout
	e.Server.RegisterOnShutdown(hub.Stop)
	e.HTTPErrorHandler = httpErrorHandler

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		hub:          hub,
		registry:     reg,
		httpMetrics:  metrics.NewHTTPMetrics(reg, streamRoutes...),
		upgrader:     newUpgrader(cfg),
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
