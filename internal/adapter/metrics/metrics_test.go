package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_ServesCollectors(t *testing.T) {
	reg := NewRegistry()
	stream := NewStreamMetrics(reg)
	stream.MessagesPublished.Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "signcast_build_info{")
	assert.Contains(t, body, "signcast_stream_messages_published_total 1")
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg, "GET /api/model-output", "/subscribe")

	e := echo.New()
	e.Use(m.Middleware())
	e.POST("/api/model-output", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/api/model-output", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/subscribe", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/model-output"},
		{http.MethodGet, "/api/model-output"},
		{http.MethodGet, "/subscribe"},
		{http.MethodGet, "/health/live"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(r.method, r.path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodPost, "/api/model-output", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "/api/model-output", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "/subscribe", "200")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.Requests), "health endpoints are not recorded")
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration), "only the POST is a short request")
	assert.Equal(t, 2, testutil.CollectAndCount(m.StreamDuration), "GET on the shared path is a stream")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight.WithLabelValues(kindRequest)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight.WithLabelValues(kindStream)))
}

func TestUpstreamMetrics_Labels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUpstreamMetrics(reg)

	m.Calls.WithLabelValues(ServiceTranslate, OutcomeSuccess).Inc()
	m.Calls.WithLabelValues(ServiceTranslate, OutcomeSuccess).Inc()
	m.BreakerState.WithLabelValues(ServiceSynthesize).Set(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Calls.WithLabelValues(ServiceTranslate, OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState.WithLabelValues(ServiceSynthesize)))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP signcast_upstream_circuit_breaker_state Circuit breaker state per service (0=closed, 1=half-open, 2=open).
# TYPE signcast_upstream_circuit_breaker_state gauge
signcast_upstream_circuit_breaker_state{service="synthesize"} 2
`), "signcast_upstream_circuit_breaker_state")
	assert.NoError(t, err)
}

func TestCacheMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCacheMetrics(reg)
	m.Hits.WithLabelValues("memory").Inc()
	m.Misses.WithLabelValues("redis").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Hits.WithLabelValues("memory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Misses.WithLabelValues("redis")))
	assert.Panics(t, func() { NewCacheMetrics(reg) }, "double registration must fail loudly")
}
