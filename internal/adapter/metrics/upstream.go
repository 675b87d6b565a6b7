package metrics

import "github.com/prometheus/client_golang/prometheus"

// Upstream services and call outcomes.
const (
	ServiceTranslate  = "translate"
	ServiceSynthesize = "synthesize"

	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
	OutcomeCached   = "cached"
)

// UpstreamMetrics tracks calls to the translation and speech services.
type UpstreamMetrics struct {
	Calls        *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	BreakerState *prometheus.GaugeVec
}

// NewUpstreamMetrics creates and registers upstream metrics on the given registry.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	m := &UpstreamMetrics{
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Total number of upstream requests, by service and outcome.",
		}, []string{"service", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Duration of upstream calls that reached the service.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		}, []string{"service"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per service (0=closed, 1=half-open, 2=open).",
		}, []string{"service"}),
	}

	reg.MustRegister(m.Calls, m.Duration, m.BreakerState)
	return m
}
