// Package observability groups the Prometheus instruments exported by the
// gateway.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all gateway instruments. Each Metrics value owns its own
// registry so tests can create instances freely.
type Metrics struct {
	registry *prometheus.Registry

	Turns              *prometheus.CounterVec // completed turns by channel
	CompletionFailures *prometheus.CounterVec // failures by kind
	EvictedSessions    prometheus.Counter
}

// NewMetrics creates the instrument set. activeSessions is sampled on every
// scrape for the active-sessions gauge; pass nil to skip it.
func NewMetrics(namespace string, activeSessions func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed conversation turns by channel.",
		}, []string{"channel"}),
		CompletionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_failures_total",
			Help:      "Failed completion calls by failure kind.",
		}, []string{"kind"}),
		EvictedSessions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_sessions_total",
			Help:      "Sessions removed by the idle sweeper.",
		}),
	}

	if activeSessions != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live conversation sessions.",
		}, activeSessions)
	}

	return m
}

// Handler returns the scrape endpoint for this instrument set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
