package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/signcast/internal/platform/version"
)

const probeTimeout = 3 * time.Second

// HealthCheck is a named dependency probe, e.g. a Redis ping.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type liveResponse struct {
	Status      string  `json:"status"`
	Uptime      float64 `json:"uptime_seconds"`
	Subscribers int     `json:"subscribers"`
}

type readyResponse struct {
	Status      string `json:"status"`
	Subscribers int    `json:"subscribers,omitempty"`
	FailedCheck string `json:"failed_check,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/health/startup", s.handleStartup)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, liveResponse{
		Status:      "ok",
		Uptime:      time.Since(s.startTime).Seconds(),
		Subscribers: s.hub.SubscriberCount(),
	})
}

// handleReadiness reports not ready once the hub is draining, so load
// balancers stop routing new streams here during shutdown.
func (s *Server) handleReadiness(c echo.Context) error {
	if s.hub.Stopped() {
		return c.JSON(http.StatusServiceUnavailable, readyResponse{Status: "draining"})
	}
	if resp, ok := s.probe(c.Request().Context()); !ok {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, readyResponse{Status: "ready", Subscribers: s.hub.SubscriberCount()})
}

func (s *Server) handleStartup(c echo.Context) error {
	if resp, ok := s.probe(c.Request().Context()); !ok {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, readyResponse{Status: "started"})
}

// probe runs the checks in order and stops at the first failure.
func (s *Server) probe(ctx context.Context) (readyResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			slog.WarnContext(ctx, "Health check failed", "check", hc.Name, "error", err)
			return readyResponse{Status: "unhealthy", FailedCheck: hc.Name, Error: err.Error()}, false
		}
	}
	return readyResponse{}, true
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}
