package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"strategos-hq/riskengine/pkg/config"
)

// ReplayMetrics tracks replay comparisons and verification sweeps.
type ReplayMetrics struct {
	replaysTotal      *prometheus.CounterVec
	sweepsTotal       prometheus.Counter
	sweepDuration     prometheus.Histogram
	lastSweepChecked  prometheus.Gauge
	lastSweepMismatch prometheus.Gauge
}

// NewReplayMetrics creates and registers replay metrics.
func NewReplayMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ReplayMetrics {
	rm := &ReplayMetrics{
		replaysTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "replays_total",
				Help:      "Total number of audit entry replays by outcome",
			},
			[]string{"outcome"},
		),

		sweepsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "replay_verification_sweeps_total",
				Help:      "Total number of scheduled replay verification sweeps",
			},
		),

		sweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "replay_verification_duration_seconds",
				Help:      "Duration of replay verification sweeps in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),

		lastSweepChecked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "replay_verification_last_checked",
				Help:      "Audit entries replayed by the most recent verification sweep",
			},
		),

		lastSweepMismatch: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "replay_verification_last_mismatches",
				Help:      "Mismatches found by the most recent verification sweep",
			},
		),
	}

	registry.MustRegister(
		rm.replaysTotal,
		rm.sweepsTotal,
		rm.sweepDuration,
		rm.lastSweepChecked,
		rm.lastSweepMismatch,
	)

	return rm
}

// RecordReplay records one replay comparison.
func (rm *ReplayMetrics) RecordReplay(outcome string) {
	rm.replaysTotal.WithLabelValues(outcome).Inc()
}

// RecordSweep records a verification sweep.
func (rm *ReplayMetrics) RecordSweep(checked, mismatches int, duration time.Duration) {
	rm.sweepsTotal.Inc()
	rm.sweepDuration.Observe(duration.Seconds())
	rm.lastSweepChecked.Set(float64(checked))
	rm.lastSweepMismatch.Set(float64(mismatches))
}
