package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"strategos-hq/riskengine/pkg/model"
)

// NewSession describes a transformation session to create. An empty
// ModelVersionID pins the tenant's active model version.
type NewSession struct {
	ModelVersionID string `json:"model_version_id,omitempty"`
	Name           string `json:"name,omitempty"`
}

// CreateSession creates a session pinned to a model version. From then on
// the version is locked against structural changes.
func (s *Store) CreateSession(ctx context.Context, tenantID string, in NewSession) (*model.TransformationSession, error) {
	if tenantID == "" {
		return nil, model.NewInvalidInputError("tenant_id", "is required")
	}

	session := model.TransformationSession{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      in.Name,
		CreatedAt: s.now(),
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var (
			mv  model.ModelVersion
			err error
		)
		if in.ModelVersionID == "" {
			mv, err = s.activeModelVersion(ctx, tx, tenantID)
		} else {
			mv, err = s.modelVersion(ctx, tx, tenantID, in.ModelVersionID)
		}
		if err != nil {
			return err
		}
		session.ModelVersionID = mv.ID

		_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO transformation_sessions
			(id, tenant_id, model_version_id, name, snapshot_version, created_at)
			VALUES (?, ?, ?, ?, 0, ?)`),
			session.ID, tenantID, session.ModelVersionID, session.Name, formatTime(session.CreatedAt))
		return err
	})
	if err != nil {
		return nil, s.wrapWriteError("create_session", "session", in.Name, err)
	}

	s.logger.Info("session created",
		"tenant_id", tenantID,
		"session_id", session.ID,
		"model_version_id", session.ModelVersionID,
	)
	return &session, nil
}

// GetSession returns a session of the tenant.
func (s *Store) GetSession(ctx context.Context, tenantID, id string) (*model.TransformationSession, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+sessionColumns+`
		FROM transformation_sessions WHERE id = ? AND tenant_id = ?`), id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("session", id)
	}
	if err != nil {
		return nil, NewStorageError(s.backend, "get_session", err)
	}
	session := row.toModel()
	return &session, nil
}

// ListSessions returns the tenant's sessions, newest first. limit <= 0
// returns all of them.
func (s *Store) ListSessions(ctx context.Context, tenantID string, limit int) ([]model.TransformationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM transformation_sessions WHERE tenant_id = ? ORDER BY created_at DESC, id`
	args := []any{tenantID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, NewStorageError(s.backend, "list_sessions", err)
	}

	out := make([]model.TransformationSession, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// ListSnapshots returns a session's snapshots, oldest first.
func (s *Store) ListSnapshots(ctx context.Context, tenantID, sessionID string) ([]model.Snapshot, error) {
	if _, err := s.GetSession(ctx, tenantID, sessionID); err != nil {
		return nil, err
	}

	var rows []snapshotRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT id, session_id, version, payload, created_at
		FROM snapshots WHERE session_id = ? ORDER BY version`), sessionID); err != nil {
		return nil, NewStorageError(s.backend, "list_snapshots", err)
	}

	out := make([]model.Snapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// SnapshotHistory returns the append-only snapshot history of a session.
// Latest is JSON null when the session has no snapshots.
func (s *Store) SnapshotHistory(ctx context.Context, tenantID, sessionID string) (*model.SnapshotHistory, error) {
	snapshots, err := s.ListSnapshots(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	h := &model.SnapshotHistory{
		SessionID: sessionID,
		Latest:    json.RawMessage("null"),
		History:   make([]model.SnapshotEvent, 0, len(snapshots)),
	}
	for _, snap := range snapshots {
		h.History = append(h.History, model.SnapshotEvent{
			Version:   snap.Version,
			CreatedAt: snap.CreatedAt,
			Snapshot:  snap.Payload,
		})
	}
	if n := len(snapshots); n > 0 {
		h.Version = snapshots[n-1].Version
		h.Latest = snapshots[n-1].Payload
	}
	return h, nil
}
