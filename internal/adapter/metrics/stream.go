package metrics

import "github.com/prometheus/client_golang/prometheus"

// Eviction reasons.
const (
	EvictClosed     = "closed"
	EvictHubStopped = "hub_stopped"
)

// StreamMetrics tracks the broadcast hub and its subscriber channels.
type StreamMetrics struct {
	ActiveSubscribers prometheus.Gauge
	MessagesPublished prometheus.Counter
	Deliveries        prometheus.Counter
	Evictions         *prometheus.CounterVec
	KeepAlives        prometheus.Counter
	WriteErrors       prometheus.Counter
}

// NewStreamMetrics creates and registers stream metrics on the given registry.
func NewStreamMetrics(reg prometheus.Registerer) *StreamMetrics {
	m := &StreamMetrics{
		ActiveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "active_subscribers",
			Help:      "Number of subscribers currently registered with the hub.",
		}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "messages_published_total",
			Help:      "Total number of texts accepted by the hub.",
		}),
		Deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "deliveries_total",
			Help:      "Total number of messages written to subscribers, replays included.",
		}),
		Evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "evictions_total",
			Help:      "Total number of subscribers removed by the hub, by reason.",
		}, []string{"reason"}),
		KeepAlives: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "keepalives_total",
			Help:      "Total number of keep-alive signals written.",
		}),
		WriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "write_errors_total",
			Help:      "Total number of failed writes that ended a subscription.",
		}),
	}

	reg.MustRegister(m.ActiveSubscribers, m.MessagesPublished, m.Deliveries, m.Evictions, m.KeepAlives, m.WriteErrors)
	return m
}
