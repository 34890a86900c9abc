// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Operations       *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	LoaderBatches    *prometheus.HistogramVec
	LoaderErrors     *prometheus.CounterVec
	LoginAttempts    *prometheus.CounterVec
	RejectedQueries  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "catalog",
				Subsystem: "graphql",
				Name:      "operations_total",
				Help:      "GraphQL operations executed, by operation type and outcome",
			},
			[]string{"type", "outcome"},
		),
		OperationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "catalog",
				Subsystem: "graphql",
				Name:      "operation_duration_seconds",
				Help:      "GraphQL operation execution time in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		LoaderBatches: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "catalog",
				Subsystem: "loader",
				Name:      "batch_keys",
				Help:      "Number of distinct keys per relation batch fetch",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"loader"},
		),
		LoaderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "catalog",
				Subsystem: "loader",
				Name:      "errors_total",
				Help:      "Relation batch fetches that failed",
			},
			[]string{"loader"},
		),
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "catalog",
				Subsystem: "auth",
				Name:      "login_attempts_total",
				Help:      "Login attempts seen by the rate limiter, by decision",
			},
			[]string{"decision"},
		),
		RejectedQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "catalog",
				Subsystem: "graphql",
				Name:      "rejected_queries_total",
				Help:      "Documents rejected before execution, by reason",
			},
			[]string{"reason"},
		),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.Operations, m.OperationLatency, m.LoaderBatches, m.LoaderErrors, m.LoginAttempts, m.RejectedQueries,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// The record helpers accept a nil receiver so callers may run without metrics.

func (m *Metrics) ObserveOperation(opType string, failed bool, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.Operations.WithLabelValues(opType, outcome).Inc()
	m.OperationLatency.WithLabelValues(opType).Observe(took.Seconds())
}

func (m *Metrics) ObserveBatch(loader string, keys int, err error) {
	if m == nil {
		return
	}
	m.LoaderBatches.WithLabelValues(loader).Observe(float64(keys))
	if err != nil {
		m.LoaderErrors.WithLabelValues(loader).Inc()
	}
}

func (m *Metrics) LoginAttempt(allowed bool) {
	if m == nil {
		return
	}
	decision := "allowed"
	if !allowed {
		decision = "throttled"
	}
	m.LoginAttempts.WithLabelValues(decision).Inc()
}

func (m *Metrics) RejectQuery(reason string) {
	if m == nil {
		return
	}
	m.RejectedQueries.WithLabelValues(reason).Inc()
}
