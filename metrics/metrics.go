// Package metrics provides Prometheus metrics for the ledger engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	registry *prometheus.Registry

	// Transaction metrics
	TransactionsSubmitted *prometheus.CounterVec
	TransactionsApplied   *prometheus.CounterVec
	TransactionsFailed    *prometheus.CounterVec
	TransactionsAbandoned prometheus.Counter
	TransactionLatency    prometheus.Histogram

	// Queue / pool metrics
	QueueDepth    prometheus.Gauge
	WorkersActive prometheus.Gauge

	// Rate updater metrics
	RateTicks       prometheus.Counter
	RateTickLatency prometheus.Histogram

	// Notification and lifecycle metrics
	NotificationFailures prometheus.Counter
	ShutdownTimeouts     *prometheus.CounterVec
}

// New creates metrics registered on a fresh registry under namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TransactionsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_submitted_total",
			Help:      "Total number of transactions accepted into the queue",
		}, []string{"kind"}),
		TransactionsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_applied_total",
			Help:      "Total number of transactions applied successfully",
		}, []string{"kind"}),
		TransactionsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_failed_total",
			Help:      "Total number of transactions rejected by validation",
		}, []string{"kind", "reason"}),
		TransactionsAbandoned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_abandoned_total",
			Help:      "Transactions left unprocessed by a forced shutdown",
		}),
		TransactionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_latency_seconds",
			Help:      "Transaction apply latency in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),

		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Current number of queued transactions",
		}),
		WorkersActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_active",
			Help:      "Number of workers currently applying a transaction",
		}),

		RateTicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_ticks_total",
			Help:      "Total number of completed rate updater ticks",
		}),
		RateTickLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_tick_seconds",
			Help:      "Rate updater tick duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Observer deliveries that panicked",
		}),
		ShutdownTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shutdown_timeouts_total",
			Help:      "Shutdown phases that exceeded their timeout",
		}, []string{"phase"}),
	}
}

// RecordSubmit records a transaction accepted into the queue.
func (m *Metrics) RecordSubmit(kind string, depth int) {
	m.TransactionsSubmitted.WithLabelValues(kind).Inc()
	m.QueueDepth.Set(float64(depth))
}

// RecordTransaction records the outcome of one applied transaction.
func (m *Metrics) RecordTransaction(kind, reason string, duration time.Duration) {
	m.TransactionLatency.Observe(duration.Seconds())
	if reason == "" {
		m.TransactionsApplied.WithLabelValues(kind).Inc()
		return
	}
	m.TransactionsFailed.WithLabelValues(kind, reason).Inc()
}

// RecordAbandoned records transactions dropped by a forced shutdown.
func (m *Metrics) RecordAbandoned(n int) {
	m.TransactionsAbandoned.Add(float64(n))
}

// RecordTick records one rate updater tick.
func (m *Metrics) RecordTick(duration time.Duration) {
	m.RateTicks.Inc()
	m.RateTickLatency.Observe(duration.Seconds())
}

// RecordNotificationFailures records failed observer deliveries.
func (m *Metrics) RecordNotificationFailures(n int) {
	if n > 0 {
		m.NotificationFailures.Add(float64(n))
	}
}

// RecordShutdownTimeout records a shutdown phase that timed out.
func (m *Metrics) RecordShutdownTimeout(phase string) {
	m.ShutdownTimeouts.WithLabelValues(phase).Inc()
}

// UpdatePool updates queue and worker gauges.
func (m *Metrics) UpdatePool(active int64, depth int) {
	m.WorkersActive.Set(float64(active))
	m.QueueDepth.Set(float64(depth))
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
