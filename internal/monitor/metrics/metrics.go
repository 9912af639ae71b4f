// Package metrics exposes Prometheus collectors for the monitoring loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the monitor service collectors. Services tolerate a nil
// *Metrics so unit tests can skip registration.
type Metrics struct {
	EvaluationsTotal   prometheus.Counter
	EvaluationFailures prometheus.Counter
	ViolationsTotal    *prometheus.CounterVec
	ActiveAlerts       prometheus.Gauge
	EvaluationSeconds  prometheus.Histogram
	PersistFailures    prometheus.Counter
	SweepRuns          prometheus.Counter
}

// New creates and registers all monitor metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		EvaluationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairgate_evaluations_total",
			Help: "Total number of completed bias evaluations",
		}),
		EvaluationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairgate_evaluation_failures_total",
			Help: "Total number of evaluations that failed and were isolated",
		}),
		ViolationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fairgate_violations_total",
			Help: "Total number of detected bias violations by severity",
		}, []string{"severity"}),
		ActiveAlerts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fairgate_active_alerts",
			Help: "Number of alerts not yet resolved",
		}),
		EvaluationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fairgate_evaluation_duration_seconds",
			Help:    "Latency of one full monitoring evaluation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairgate_persist_failures_total",
			Help: "Alert or audit writes that failed after all retries",
		}),
		SweepRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairgate_sweep_runs_total",
			Help: "Completed scheduled sweep passes",
		}),
	}
}

// ObserveEvaluation records one successful evaluation.
func (m *Metrics) ObserveEvaluation(seconds float64) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.Inc()
	m.EvaluationSeconds.Observe(seconds)
}

// IncFailure records one isolated evaluation failure.
func (m *Metrics) IncFailure() {
	if m == nil {
		return
	}
	m.EvaluationFailures.Inc()
}

// IncViolation records one detected violation.
func (m *Metrics) IncViolation(severity string) {
	if m == nil {
		return
	}
	m.ViolationsTotal.WithLabelValues(severity).Inc()
}

// SetActiveAlerts tracks the unresolved-alert gauge.
func (m *Metrics) SetActiveAlerts(n int) {
	if m == nil {
		return
	}
	m.ActiveAlerts.Set(float64(n))
}

// IncPersistFailure records a write that exhausted its retries.
func (m *Metrics) IncPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// IncSweep records one completed sweep pass.
func (m *Metrics) IncSweep() {
	if m == nil {
		return
	}
	m.SweepRuns.Inc()
}
