package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"strategos-hq/riskengine/pkg/classifier"
	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/restructuring"
	"strategos-hq/riskengine/pkg/scoring"
	"strategos-hq/riskengine/pkg/store"
	"strategos-hq/riskengine/pkg/telemetry/logging"
	"strategos-hq/riskengine/pkg/telemetry/metrics"
)

// Evaluator turns a resolved configuration and an input vector into a
// snapshot payload without touching storage.
type Evaluator struct {
	engine *scoring.Engine
}

// NewEvaluator wraps a scoring engine.
func NewEvaluator(engine *scoring.Engine) *Evaluator {
	return &Evaluator{engine: engine}
}

// Evaluate scores input, classifies the total score and selects the
// restructuring directives for the resulting state. It fails only when the
// configuration has no states.
func (e *Evaluator) Evaluate(cfg *model.ResolvedConfig, input map[string]float64) (model.SnapshotPayload, error) {
	breakdown := e.engine.Run(cfg, input)

	state, err := classifier.Classify(breakdown.TotalScore, cfg.States)
	if err != nil {
		return model.SnapshotPayload{}, fmt.Errorf("model version %s: %w", cfg.ModelVersion.ID, err)
	}

	directives := restructuring.ForConfig(cfg, state)
	return model.NewSnapshotPayload(cfg.ModelVersion, breakdown, state, directives), nil
}

// Service runs the full engine path: resolve the model version, evaluate,
// persist the snapshot and audit entry.
type Service struct {
	store     Store
	evaluator *Evaluator
	metrics   *metrics.Collector
	logger    *logging.Logger
}

// NewService creates a pipeline service. collector and logger may be nil.
func NewService(st Store, evaluator *Evaluator, collector *metrics.Collector, logger *logging.Logger) *Service {
	if logger == nil {
		logger, _ = logging.New(logging.Config{})
	}
	return &Service{
		store:     st,
		evaluator: evaluator,
		metrics:   collector,
		logger:    logger.With("component", "pipeline"),
	}
}

// Evaluate resolves the configuration for req and evaluates it without
// persisting anything. Version resolution matches Execute.
func (s *Service) Evaluate(ctx context.Context, req *Request) (*model.SnapshotPayload, error) {
	cfg, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	payload, err := s.evaluator.Evaluate(cfg, model.CloneInput(req.Input))
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// Execute runs one request. Configuration errors (*model.NotFoundError,
// *model.NoActiveModelError, *model.InvalidInputError,
// classifier.ErrNoStates) are returned before anything is written; storage
// failures surface as *store.StorageError.
func (s *Service) Execute(ctx context.Context, req *Request) (*Result, error) {
	ctx = logging.WithTenantID(ctx, req.TenantID)
	if req.SessionID != "" {
		ctx = logging.WithSessionID(ctx, req.SessionID)
	}

	cfg, err := s.resolve(ctx, req)
	if err != nil {
		s.reject(ctx, err)
		return nil, err
	}
	ctx = logging.WithModelVersionID(ctx, cfg.ModelVersion.ID)

	input := model.CloneInput(req.Input)

	start := time.Now()
	payload, err := s.evaluator.Evaluate(cfg, input)
	if err != nil {
		s.reject(ctx, err)
		return nil, err
	}
	s.metrics.RecordRun(&payload, time.Since(start))

	start = time.Now()
	persisted, err := s.store.Persist(ctx, &model.PersistRequest{
		TenantID:       req.TenantID,
		SessionID:      req.SessionID,
		ModelVersionID: cfg.ModelVersion.ID,
		Actor:          req.Actor,
		Input:          input,
		Payload:        payload,
	})
	if err != nil {
		s.metrics.RecordPersist(metrics.OutcomeError, time.Since(start))
		s.logger.ErrorContext(ctx, "engine run not persisted", "error", err)
		return nil, err
	}
	s.metrics.RecordPersist(metrics.OutcomeSuccess, time.Since(start))

	s.logger.InfoContext(ctx, "engine run persisted",
		"state", payload.State,
		"total_score", payload.ScoreBreakdown.TotalScore,
		"triggered_rules", payload.TriggeredRuleCount,
		"errors", len(payload.Errors),
		"snapshot_version", persisted.SnapshotVersion,
		"audit_log_id", persisted.AuditLogID,
	)

	return &Result{
		SnapshotPayload: payload,
		SessionID:       req.SessionID,
		SnapshotVersion: persisted.SnapshotVersion,
		AuditLogID:      persisted.AuditLogID,
		CreatedAt:       persisted.CreatedAt,
	}, nil
}

// resolve validates the request and loads the configuration it runs against.
func (s *Service) resolve(ctx context.Context, req *Request) (*model.ResolvedConfig, error) {
	if req.TenantID == "" {
		return nil, model.NewInvalidInputError("tenant_id", "is required")
	}
	if err := model.ValidateInput(req.Input); err != nil {
		return nil, err
	}

	modelVersionID := req.ModelVersionID
	if req.SessionID != "" {
		session, err := s.store.GetSession(ctx, req.TenantID, req.SessionID)
		if err != nil {
			return nil, err
		}
		if modelVersionID == "" {
			modelVersionID = session.ModelVersionID
		}
	}

	return s.store.Load(ctx, req.TenantID, modelVersionID)
}

func (s *Service) reject(ctx context.Context, err error) {
	reason := RejectReason(err)
	s.metrics.RecordRunRejected(reason)
	s.logger.WarnContext(ctx, "engine run rejected", "reason", reason, "error", err)
}

// RejectReason classifies a pipeline error into a short label.
func RejectReason(err error) string {
	switch {
	case model.IsInvalidInput(err):
		return "invalid_input"
	case model.IsNotFound(err):
		return "not_found"
	case model.IsNoActiveModel(err):
		return "no_active_model"
	case model.IsConflict(err):
		return "conflict"
	case errors.Is(err, classifier.ErrNoStates):
		return "no_states"
	case store.IsStorageError(err):
		return "storage"
	default:
		return "internal"
	}
}
