// Package observability holds the Prometheus instrumentation for the
// sentinelle service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for the weather cache,
// upstream budget, and backup chain.
type Metrics struct {
	CacheLookups  *prometheus.CounterVec // labels: result={hit,refresh,fallback}
	UpstreamCalls *prometheus.CounterVec // labels: outcome={success,error}
	BackupServed  *prometheus.CounterVec // labels: tier={backup_recent,backup_synthetic,backup_emergency}
	Predictions   *prometheus.CounterVec // labels: level={normal,moderate,high,critical}

	BudgetRemaining prometheus.Gauge
	RequestDuration *prometheus.HistogramVec // labels: endpoint, status
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CacheLookups,
		m.UpstreamCalls,
		m.BackupServed,
		m.Predictions,
		m.BudgetRemaining,
		m.RequestDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinelle",
			Name:      "cache_lookups_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		UpstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinelle",
			Name:      "upstream_calls_total",
			Help:      "Upstream weather provider calls by outcome.",
		}, []string{"outcome"}),
		BackupServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinelle",
			Name:      "backup_served_total",
			Help:      "Degraded observations served by backup tier.",
		}, []string{"tier"}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinelle",
			Name:      "damage_predictions_total",
			Help:      "Damage predictions issued by final risk level.",
		}, []string{"level"}),
		BudgetRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sentinelle",
			Name:      "daily_budget_remaining",
			Help:      "Upstream calls remaining in today's quota.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sentinelle",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by endpoint and status.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint", "status"}),
	}
}
