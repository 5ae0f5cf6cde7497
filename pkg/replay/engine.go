package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/pipeline"
	"strategos-hq/riskengine/pkg/store"
	"strategos-hq/riskengine/pkg/telemetry/metrics"
)

// Store is the read side of the audit log and configuration store.
type Store interface {
	Load(ctx context.Context, tenantID, modelVersionID string) (*model.ResolvedConfig, error)
	GetSession(ctx context.Context, tenantID, id string) (*model.TransformationSession, error)
	GetAuditLog(ctx context.Context, tenantID, id string) (*model.AuditLogEntry, error)
	ListAuditLogs(ctx context.Context, filter store.AuditFilter) ([]model.AuditLogEntry, error)
}

// Result compares one stored engine run with a fresh re-execution.
type Result struct {
	AuditLogID     string                 `json:"audit_log_id"`
	CreatedAt      time.Time              `json:"created_at"`
	Action         string                 `json:"action"`
	StoredPayload  json.RawMessage        `json:"stored_payload"`
	ReplaySnapshot *model.SnapshotPayload `json:"replay_snapshot"`
	ReplayError    string                 `json:"replay_error,omitempty"`
	Match          bool                   `json:"match"`
	ByteIdentical  bool                   `json:"byte_identical"`
	Mismatches     []Mismatch             `json:"mismatches"`
}

// SessionEvents is the audit trail of one session in creation order.
type SessionEvents struct {
	SessionID  string                `json:"session_id"`
	EventCount int                   `json:"event_count"`
	Events     []model.AuditLogEntry `json:"events"`
}

// Engine re-executes audited runs against the configuration they used.
type Engine struct {
	store     Store
	evaluator *pipeline.Evaluator
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// NewEngine creates a replay engine. collector may be nil.
func NewEngine(st Store, evaluator *pipeline.Evaluator, collector *metrics.Collector) *Engine {
	return &Engine{
		store:     st,
		evaluator: evaluator,
		metrics:   collector,
		logger:    slog.Default().With("component", "replay"),
	}
}

// Replay loads an audit entry of the tenant and re-runs it. Only a failed
// lookup of the entry is returned as an error; everything after that is
// reported in the Result.
func (e *Engine) Replay(ctx context.Context, tenantID, auditLogID string) (*Result, error) {
	if tenantID == "" {
		return nil, model.NewInvalidInputError("tenant_id", "is required")
	}
	entry, err := e.store.GetAuditLog(ctx, tenantID, auditLogID)
	if err != nil {
		return nil, err
	}
	return e.ReplayEntry(ctx, entry), nil
}

// ReplayEntry re-runs an already loaded audit entry.
func (e *Engine) ReplayEntry(ctx context.Context, entry *model.AuditLogEntry) *Result {
	res := &Result{
		AuditLogID:    entry.ID,
		CreatedAt:     entry.CreatedAt,
		Action:        entry.Action,
		StoredPayload: entry.Payload,
		Mismatches:    []Mismatch{},
	}

	if err := e.replay(ctx, entry, res); err != nil {
		res.ReplayError = err.Error()
		e.metrics.RecordReplay(metrics.OutcomeError)
		e.logger.Warn("replay failed",
			"tenant_id", entry.TenantID,
			"audit_log_id", entry.ID,
			"error", err,
		)
		return res
	}

	if res.Match {
		e.metrics.RecordReplay(metrics.OutcomeMatch)
	} else {
		e.metrics.RecordReplay(metrics.OutcomeMismatch)
		e.logger.Warn("replay mismatch",
			"tenant_id", entry.TenantID,
			"audit_log_id", entry.ID,
			"mismatches", len(res.Mismatches),
		)
	}
	return res
}

func (e *Engine) replay(ctx context.Context, entry *model.AuditLogEntry, res *Result) error {
	cfg, err := e.store.Load(ctx, entry.TenantID, entry.ModelVersionID)
	if err != nil {
		return fmt.Errorf("load model version %s: %w", entry.ModelVersionID, err)
	}

	payload, err := e.evaluator.Evaluate(cfg, model.CloneInput(entry.Input))
	if err != nil {
		return err
	}
	res.ReplaySnapshot = &payload

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode replay snapshot: %w", err)
	}
	res.ByteIdentical = bytes.Equal(encoded, entry.Payload)

	var stored model.SnapshotPayload
	if err := json.Unmarshal(entry.Payload, &stored); err != nil {
		return fmt.Errorf("decode stored payload: %w", err)
	}

	res.Mismatches = Compare(&stored, &payload)
	res.Match = len(res.Mismatches) == 0
	return nil
}

// Session returns the audit trail of a session of the tenant.
func (e *Engine) Session(ctx context.Context, tenantID, sessionID string) (*SessionEvents, error) {
	if _, err := e.store.GetSession(ctx, tenantID, sessionID); err != nil {
		return nil, err
	}

	entries, err := e.store.ListAuditLogs(ctx, store.AuditFilter{TenantID: tenantID, SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.AuditLogEntry{}
	}
	return &SessionEvents{SessionID: sessionID, EventCount: len(entries), Events: entries}, nil
}
