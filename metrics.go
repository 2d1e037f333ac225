package lsl

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the package's prometheus instruments. Instances are
// package-scoped and not registered with any registry by this package;
// callers register them through Metrics.
type metrics struct {
	sessionsTotal         prometheus.Counter
	sessionsActive        prometheus.Gauge
	queueDropsTotal       prometheus.Gauge
	resolverAttemptsTotal prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lsl",
			Subsystem: "outlet",
			Name:      "sessions_total",
			Help:      "Total number of TCP sessions an outlet has accepted.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lsl",
			Subsystem: "outlet",
			Name:      "sessions_active",
			Help:      "Currently connected consumer sessions for an outlet.",
		}),
		queueDropsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lsl",
			Subsystem: "outlet",
			Name:      "queue_drops_total",
			Help:      "Samples discarded across all consumer cursors due to backpressure.",
		}),
		resolverAttemptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lsl",
			Subsystem: "resolver",
			Name:      "attempts_total",
			Help:      "Total number of discovery attempts started (oneshot or continuous).",
		}),
	}
}

// Collectors returns every prometheus.Collector this package's
// instruments expose, so a caller can register them with its own
// registry instead of the global default.
func (m *metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.sessionsTotal,
		m.sessionsActive,
		m.queueDropsTotal,
		m.resolverAttemptsTotal,
	}
}

// defaultMetrics is never registered by this package, so importing it
// never mutates the global registry; Metrics exposes its collectors.
var defaultMetrics = newMetrics()

// Metrics returns the package-wide prometheus collectors for an Outlet
// and Resolver's instrumentation, for callers that want to register
// them with their own prometheus.Registerer.
func Metrics() []prometheus.Collector {
	return defaultMetrics.Collectors()
}
