package httpserver

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/signcast/internal/broadcast"
	"github.com/pscheid92/signcast/internal/platform/config"
)

type mockAppService struct {
	publishFn    func(ctx context.Context, text string) error
	translateFn  func(ctx context.Context, text, targetLanguage string) (string, error)
	synthesizeFn func(ctx context.Context, text, languageCode, gender string) ([]byte, error)
}

func (m *mockAppService) Publish(ctx context.Context, text string) error {
	if m.publishFn != nil {
		return m.publishFn(ctx, text)
	}
	return nil
}

func (m *mockAppService) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if m.translateFn != nil {
		return m.translateFn(ctx, text, targetLanguage)
	}
	return text, nil
}

func (m *mockAppService) Synthesize(ctx context.Context, text, languageCode, gender string) ([]byte, error) {
	if m.synthesizeFn != nil {
		return m.synthesizeFn(ctx, text, languageCode, gender)
	}
	return []byte("audio"), nil
}

type discardWriter struct{}

func (discardWriter) WriteMessage([]byte) error { return nil }
func (discardWriter) WriteKeepAlive() error     { return nil }

type testServerOptions struct {
	healthChecks []HealthCheck
	hub          *broadcast.Hub
	configure    func(*config.Config)
}

type testServerOption func(*testServerOptions)

func withHealthChecks(checks ...HealthCheck) testServerOption {
	return func(o *testServerOptions) { o.healthChecks = checks }
}

func withHub(hub *broadcast.Hub) testServerOption {
	return func(o *testServerOptions) { o.hub = hub }
}

func withConfig(fn func(*config.Config)) testServerOption {
	return func(o *testServerOptions) { o.configure = fn }
}

func newTestConfig() *config.Config {
	return &config.Config{
		AppEnv:             "test",
		Port:               "0",
		LogLevel:           "info",
		LogFormat:          "text",
		Provider:           config.ProviderStub,
		UpstreamTimeout:    time.Second,
		KeepAliveInterval:  30 * time.Second,
		PublishRateLimit:   100,
		PublishRateBurst:   100,
		CORSAllowedOrigins: "*",
	}
}

func newTestServer(t *testing.T, app appService, opts ...testServerOption) *Server {
	t.Helper()

	var o testServerOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := newTestConfig()
	if o.configure != nil {
		o.configure(cfg)
	}

	hub := o.hub
	if hub == nil {
		hub = broadcast.NewHub(broadcast.Options{})
		t.Cleanup(hub.Stop)
	}

	return NewServer(cfg, app, hub, prometheus.NewRegistry(), o.healthChecks)
}

// serve runs a request through the full router, middleware included.
func serve(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}
