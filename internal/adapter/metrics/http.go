package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	kindRequest = "request"
	kindStream  = "stream"
)

// HTTPMetrics splits traffic into short requests (publish, translate,
// synthesize) and long-lived streams (SSE and WebSocket subscriptions).
// They get separate histograms because their durations differ by orders of
// magnitude.
type HTTPMetrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	StreamDuration  *prometheus.HistogramVec
	InFlight        *prometheus.GaugeVec

	streams map[string]bool
}

// NewHTTPMetrics registers the HTTP metrics. A stream entry is either a
// route ("/subscribe") or a method and route ("GET /api/model-output"),
// the latter for paths shared with a non-streaming method.
func NewHTTPMetrics(reg prometheus.Registerer, streams ...string) *HTTPMetrics {
	labels := []string{"method", "route", "status_code"}
	m := &HTTPMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status, streams included.",
		}, labels),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of non-streaming requests. Speech calls can take seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}, labels),
		StreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "stream_duration_seconds",
			Help:      "Lifetime of subscription streams.",
			Buckets:   []float64{1, 10, 30, 60, 300, 900, 1800, 3600, 4 * 3600},
		}, []string{"route"}),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight",
			Help:      "Requests and streams currently being served.",
		}, []string{"kind"}),
		streams: make(map[string]bool, len(streams)),
	}
	for _, s := range streams {
		m.streams[s] = true
	}

	reg.MustRegister(m.Requests, m.RequestDuration, m.StreamDuration, m.InFlight)
	return m
}

func (m *HTTPMetrics) isStream(method, route string) bool {
	return m.streams[route] || m.streams[method+" "+route]
}

// Middleware records every request except the scrape and health probes.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "/metrics" || strings.HasPrefix(route, "/health/") {
				return next(c)
			}
			if route == "" {
				route = "unmatched"
			}

			method := c.Request().Method
			kind := kindRequest
			if m.isStream(method, route) {
				kind = kindStream
			}

			inFlight := m.InFlight.WithLabelValues(kind)
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			err := next(c)
			elapsed := time.Since(start).Seconds()

			status := strconv.Itoa(c.Response().Status)
			m.Requests.WithLabelValues(method, route, status).Inc()
			if kind == kindStream {
				m.StreamDuration.WithLabelValues(route).Observe(elapsed)
			} else {
				m.RequestDuration.WithLabelValues(method, route, status).Observe(elapsed)
			}
			return err
		}
	}
}
