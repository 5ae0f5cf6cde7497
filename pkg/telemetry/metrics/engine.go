package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"strategos-hq/riskengine/pkg/config"
)

// EngineMetrics tracks engine runs and snapshot persistence.
//
// Metrics:
//   - <ns>_<sub>_runs_total: completed evaluations by classified state
//   - <ns>_<sub>_runs_rejected_total: runs refused before evaluation by reason
//   - <ns>_<sub>_run_duration_seconds: evaluation latency
//   - <ns>_<sub>_triggered_rules: rules triggered per run
//   - <ns>_<sub>_evaluation_errors_total: recovered item errors by source and code
//   - <ns>_<sub>_persist_total: persist attempts by outcome
//   - <ns>_<sub>_persist_duration_seconds: persist latency including retries
type EngineMetrics struct {
	runsTotal        *prometheus.CounterVec
	runsRejected     *prometheus.CounterVec
	runDuration      prometheus.Histogram
	triggeredRules   prometheus.Histogram
	evaluationErrors *prometheus.CounterVec
	persistTotal     *prometheus.CounterVec
	persistDuration  prometheus.Histogram
}

// NewEngineMetrics creates and registers engine metrics.
func NewEngineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EngineMetrics {
	em := &EngineMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total number of engine runs by classified state",
			},
			[]string{"state"},
		),

		runsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_rejected_total",
				Help:      "Total number of engine runs rejected before evaluation",
			},
			[]string{"reason"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of engine evaluation in seconds",
				Buckets:   cfg.RunDurationBuckets,
			},
		),

		triggeredRules: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "triggered_rules",
				Help:      "Number of rules triggered per engine run",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),

		evaluationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_errors_total",
				Help:      "Total number of recovered expression evaluation errors",
			},
			[]string{"source", "code"},
		),

		persistTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "persist_total",
				Help:      "Total number of snapshot/audit persist calls by outcome",
			},
			[]string{"outcome"},
		),

		persistDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "persist_duration_seconds",
				Help:      "Duration of snapshot/audit persistence in seconds",
				Buckets:   cfg.RunDurationBuckets,
			},
		),
	}

	registry.MustRegister(
		em.runsTotal,
		em.runsRejected,
		em.runDuration,
		em.triggeredRules,
		em.evaluationErrors,
		em.persistTotal,
		em.persistDuration,
	)

	return em
}

// RecordRun records a completed evaluation.
func (em *EngineMetrics) RecordRun(state string, triggered int, duration time.Duration) {
	em.runsTotal.WithLabelValues(state).Inc()
	em.runDuration.Observe(duration.Seconds())
	em.triggeredRules.Observe(float64(triggered))
}

// RecordRejected records a run refused before evaluation.
func (em *EngineMetrics) RecordRejected(reason string) {
	em.runsRejected.WithLabelValues(reason).Inc()
}

// RecordEvaluationError records one recovered item error.
func (em *EngineMetrics) RecordEvaluationError(source, code string) {
	em.evaluationErrors.WithLabelValues(source, code).Inc()
}

// RecordPersist records one persist call.
func (em *EngineMetrics) RecordPersist(outcome string, duration time.Duration) {
	em.persistTotal.WithLabelValues(outcome).Inc()
	em.persistDuration.Observe(duration.Seconds())
}
