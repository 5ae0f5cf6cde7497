package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"strategos-hq/riskengine/pkg/model"
)

// Persist writes the audit entry of a run and, when the run belongs to a
// session, the next snapshot of that session. Both rows commit together or
// not at all.
//
// Transient conflicts are retried up to Config.PersistMaxRetries times.
// Cancelling ctx rolls back the current attempt and stops retrying.
func (s *Store) Persist(ctx context.Context, req *model.PersistRequest) (*model.PersistResult, error) {
	if req.TenantID == "" {
		return nil, model.NewInvalidInputError("tenant_id", "is required")
	}
	if req.ModelVersionID == "" {
		return nil, model.NewInvalidInputError("model_version_id", "is required")
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	input, err := json.Marshal(model.CloneInput(req.Input))
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}
	inputHash, err := model.HashInput(req.Input)
	if err != nil {
		return nil, err
	}

	actor := req.Actor
	if actor == "" {
		actor = "system"
	}

	for attempt := 0; ; attempt++ {
		result, err := s.persistOnce(ctx, req, actor, payload, input, inputHash)
		if err == nil {
			s.logger.Debug("run persisted",
				"tenant_id", req.TenantID,
				"session_id", req.SessionID,
				"snapshot_version", result.SnapshotVersion,
				"audit_log_id", result.AuditLogID,
				"attempts", attempt+1,
			)
			return result, nil
		}
		if isDomainError(err) {
			return nil, err
		}
		if !isRetryable(err) || attempt >= s.config.PersistMaxRetries {
			s.logger.Error("persist failed",
				"tenant_id", req.TenantID,
				"session_id", req.SessionID,
				"attempts", attempt+1,
				"error", err,
			)
			return nil, NewStorageError(s.backend, "persist", err)
		}

		s.logger.Warn("persist conflict, retrying",
			"session_id", req.SessionID,
			"attempt", attempt+1,
			"error", err,
		)

		timer := time.NewTimer(time.Duration(attempt+1) * s.config.RetryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, NewStorageError(s.backend, "persist", ctx.Err())
		case <-timer.C:
		}
	}
}

func (s *Store) persistOnce(ctx context.Context, req *model.PersistRequest, actor string, payload, input []byte, inputHash string) (*model.PersistResult, error) {
	result := &model.PersistResult{
		AuditLogID: uuid.NewString(),
		CreatedAt:  s.now(),
	}
	createdAt := formatTime(result.CreatedAt)

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var snapshotVersion sql.NullInt64
		if req.SessionID != "" {
			err := tx.GetContext(ctx, &result.SnapshotVersion, tx.Rebind(`UPDATE transformation_sessions
				SET snapshot_version = snapshot_version + 1
				WHERE id = ? AND tenant_id = ?
				RETURNING snapshot_version`), req.SessionID, req.TenantID)
			if errors.Is(err, sql.ErrNoRows) {
				return model.NewNotFoundError("session", req.SessionID)
			}
			if err != nil {
				return err
			}
			snapshotVersion = sql.NullInt64{Int64: int64(result.SnapshotVersion), Valid: true}

			result.SnapshotID = uuid.NewString()
			if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO snapshots
				(id, session_id, version, payload, created_at) VALUES (?, ?, ?, ?, ?)`),
				result.SnapshotID, req.SessionID, result.SnapshotVersion, string(payload), createdAt); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO audit_logs
			(id, tenant_id, session_id, model_version_id, actor, action, input, input_hash, payload, snapshot_version, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			result.AuditLogID, req.TenantID, nullString(req.SessionID), req.ModelVersionID, actor, model.ActionEngineRun,
			string(input), inputHash, string(payload), snapshotVersion, createdAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AuditFilter selects audit entries. Zero fields do not filter.
type AuditFilter struct {
	TenantID  string
	SessionID string
	Since     time.Time
	Limit     int
}

// GetAuditLog returns one audit entry of the tenant.
func (s *Store) GetAuditLog(ctx context.Context, tenantID, id string) (*model.AuditLogEntry, error) {
	var row auditLogRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+auditLogColumns+`
		FROM audit_logs WHERE id = ? AND tenant_id = ?`), id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("audit_log", id)
	}
	if err != nil {
		return nil, NewStorageError(s.backend, "get_audit_log", err)
	}

	entry, err := row.toModel()
	if err != nil {
		return nil, NewStorageError(s.backend, "decode_audit_log", err)
	}
	return &entry, nil
}

// ListAuditLogs returns audit entries in creation order.
func (s *Store) ListAuditLogs(ctx context.Context, filter AuditFilter) ([]model.AuditLogEntry, error) {
	query := `SELECT ` + auditLogColumns + ` FROM audit_logs WHERE 1 = 1`
	var args []any
	if filter.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, filter.TenantID)
	}
	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, formatTime(filter.Since))
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var rows []auditLogRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, NewStorageError(s.backend, "list_audit_logs", err)
	}

	out := make([]model.AuditLogEntry, 0, len(rows))
	for _, r := range rows {
		entry, err := r.toModel()
		if err != nil {
			return nil, NewStorageError(s.backend, "decode_audit_log", err)
		}
		out = append(out, entry)
	}
	return out, nil
}
