package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paisbank"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	Mutations          *prometheus.CounterVec
	MutationDuration   *prometheus.HistogramVec
	BalanceConflicts   prometheus.Counter
	BalanceDiscrepancy prometheus.Gauge
	ReconcileRuns      *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Idempotency metrics
	IdempotentReplays prometheus.Counter

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_mutations_total",
				Help:      "Balance-affecting operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		MutationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ledger_mutation_duration_seconds",
				Help:      "Duration of balance-affecting operations, retries included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		BalanceConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_balance_conflicts_total",
			Help:      "Operations that exhausted their retries on a concurrent balance write",
		}),
		BalanceDiscrepancy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_balance_discrepancies",
			Help:      "Cards whose balance differed from their transactions at the last reconciliation",
		}),
		ReconcileRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_reconcile_runs_total",
				Help:      "Scheduled reconciliation runs by status",
			},
			[]string{"status"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Responses served from the idempotency store",
		}),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// ObserveMutation implements usecase.Metrics.
func (m *Metrics) ObserveMutation(operation, outcome string, d time.Duration) {
	m.Mutations.WithLabelValues(operation, outcome).Inc()
	m.MutationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncConflict implements usecase.Metrics.
func (m *Metrics) IncConflict() {
	m.BalanceConflicts.Inc()
}

// SetDiscrepancies implements usecase.Metrics.
func (m *Metrics) SetDiscrepancies(n int) {
	m.BalanceDiscrepancy.Set(float64(n))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// ObserveReconcileRun records the outcome of a scheduled reconciliation.
func (m *Metrics) ObserveReconcileRun(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ReconcileRuns.WithLabelValues(status).Inc()
}
