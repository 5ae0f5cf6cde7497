package pipeline

import (
	"context"
	"time"

	"strategos-hq/riskengine/pkg/model"
)

// Store is the persistence the pipeline depends on. *store.Store satisfies it.
type Store interface {
	Load(ctx context.Context, tenantID, modelVersionID string) (*model.ResolvedConfig, error)
	GetSession(ctx context.Context, tenantID, id string) (*model.TransformationSession, error)
	Persist(ctx context.Context, req *model.PersistRequest) (*model.PersistResult, error)
}

// Request is one engine invocation.
type Request struct {
	TenantID string `json:"tenant_id"`

	// ModelVersionID selects a version explicitly. When empty the session's
	// pinned version is used, then the tenant's active version.
	ModelVersionID string `json:"model_version_id,omitempty"`

	// SessionID appends the run to a transformation session as a new snapshot.
	SessionID string `json:"session_id,omitempty"`

	Actor string             `json:"-"`
	Input map[string]float64 `json:"input"`
}

// Result is the engine output plus what was persisted for it.
type Result struct {
	model.SnapshotPayload

	SessionID       string    `json:"session_id,omitempty"`
	SnapshotVersion int       `json:"snapshot_version"`
	AuditLogID      string    `json:"audit_log_id"`
	CreatedAt       time.Time `json:"created_at"`
}
