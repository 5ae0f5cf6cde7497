package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"strategos-hq/riskengine/pkg/store"
	"strategos-hq/riskengine/pkg/telemetry/metrics"
)

// VerifierConfig bounds one verification sweep.
type VerifierConfig struct {
	// Window is how far back a sweep looks for audit entries.
	Window time.Duration

	// BatchSize caps the number of entries replayed per sweep.
	BatchSize int
}

// SweepReport summarizes one verification sweep.
type SweepReport struct {
	Checked    int      `json:"checked"`
	Matched    int      `json:"matched"`
	Mismatched int      `json:"mismatched"`
	Failed     int      `json:"failed"`
	Mismatches []string `json:"mismatches"`
}

// Verifier replays recent audit entries of all tenants and reports runs
// that no longer reproduce.
type Verifier struct {
	engine  *Engine
	config  VerifierConfig
	metrics *metrics.Collector
	logger  *slog.Logger
	now     func() time.Time
}

// NewVerifier creates a verifier on top of a replay engine.
func NewVerifier(engine *Engine, cfg VerifierConfig, collector *metrics.Collector) *Verifier {
	return &Verifier{
		engine:  engine,
		config:  cfg,
		metrics: collector,
		logger:  slog.Default().With("component", "replay.verifier"),
		now:     time.Now,
	}
}

// Sweep replays the audit entries created within the configured window,
// oldest first, up to the batch size. A cancelled ctx ends the sweep early
// and returns the partial report with ctx.Err().
func (v *Verifier) Sweep(ctx context.Context) (*SweepReport, error) {
	start := time.Now()

	entries, err := v.engine.store.ListAuditLogs(ctx, store.AuditFilter{
		Since: v.now().Add(-v.config.Window),
		Limit: v.config.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	report := &SweepReport{Mismatches: []string{}}
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := v.engine.ReplayEntry(ctx, &entries[i])
		report.Checked++
		switch {
		case res.ReplayError != "":
			report.Failed++
		case res.Match:
			report.Matched++
		default:
			report.Mismatched++
			report.Mismatches = append(report.Mismatches, res.AuditLogID)
		}
	}

	elapsed := time.Since(start)
	v.metrics.RecordVerificationSweep(report.Checked, report.Mismatched, elapsed)

	if report.Mismatched > 0 || report.Failed > 0 {
		v.logger.Warn("replay verification found divergent runs",
			"checked", report.Checked,
			"mismatched", report.Mismatched,
			"failed", report.Failed,
			"audit_log_ids", report.Mismatches,
		)
	} else {
		v.logger.Debug("replay verification completed",
			"checked", report.Checked,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	return report, nil
}
