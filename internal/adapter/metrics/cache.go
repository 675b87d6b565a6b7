package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics holds Prometheus metrics for translation cache performance.
type CacheMetrics struct {
	Hits   *prometheus.CounterVec
	Misses *prometheus.CounterVec
	Errors *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translation_cache",
			Name:      "hits_total",
			Help:      "Total number of translation cache hits, by backend.",
		}, []string{"backend"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translation_cache",
			Name:      "misses_total",
			Help:      "Total number of translation cache misses, by backend.",
		}, []string{"backend"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translation_cache",
			Name:      "errors_total",
			Help:      "Total number of translation cache backend errors, by backend.",
		}, []string{"backend"}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Errors)
	return m
}
