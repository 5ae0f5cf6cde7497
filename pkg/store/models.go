package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"strategos-hq/riskengine/pkg/model"
)

// NewModelVersion describes a model version to create.
type NewModelVersion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateModelVersion creates an inactive, empty model version.
func (s *Store) CreateModelVersion(ctx context.Context, tenantID string, in NewModelVersion) (*model.ModelVersion, error) {
	if tenantID == "" {
		return nil, model.NewInvalidInputError("tenant_id", "is required")
	}
	if in.Name == "" {
		return nil, model.NewInvalidInputError("name", "is required")
	}

	now := s.now()
	mv := model.ModelVersion{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		return s.insertModelVersion(ctx, tx, mv)
	})
	if err != nil {
		return nil, s.wrapWriteError("create_model_version", "model_version", in.Name, err)
	}

	s.logger.Info("model version created", "tenant_id", tenantID, "model_version_id", mv.ID, "name", mv.Name)
	return &mv, nil
}

func (s *Store) insertModelVersion(ctx context.Context, tx *sqlx.Tx, mv model.ModelVersion) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO model_versions
		(id, tenant_id, name, description, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		mv.ID, mv.TenantID, mv.Name, mv.Description, mv.IsActive, formatTime(mv.CreatedAt), formatTime(mv.UpdatedAt))
	return err
}

// GetModelVersion returns one model version of the tenant.
func (s *Store) GetModelVersion(ctx context.Context, tenantID, id string) (*model.ModelVersion, error) {
	mv, err := s.modelVersion(ctx, s.db, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

// ActiveModelVersion returns the tenant's active model version.
func (s *Store) ActiveModelVersion(ctx context.Context, tenantID string) (*model.ModelVersion, error) {
	mv, err := s.activeModelVersion(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

// ListModelVersions returns the tenant's model versions, oldest first.
func (s *Store) ListModelVersions(ctx context.Context, tenantID string) ([]model.ModelVersion, error) {
	var rows []modelVersionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT `+modelVersionColumns+`
		FROM model_versions WHERE tenant_id = ? ORDER BY created_at, id`), tenantID); err != nil {
		return nil, NewStorageError(s.backend, "list_model_versions", err)
	}

	out := make([]model.ModelVersion, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// ActivateModelVersion makes id the tenant's only active model version.
// Deactivating the siblings and activating id happen in one transaction.
func (s *Store) ActivateModelVersion(ctx context.Context, tenantID, id string) (*model.ModelVersion, error) {
	var mv model.ModelVersion
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if mv, err = s.modelVersion(ctx, tx, tenantID, id); err != nil {
			return err
		}

		now := formatTime(s.now())
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE model_versions SET is_active = ?, updated_at = ?
			WHERE tenant_id = ? AND is_active = ?`), false, now, tenantID, true); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE model_versions SET is_active = ?, updated_at = ?
			WHERE id = ?`), true, now, id); err != nil {
			return err
		}

		mv.IsActive = true
		mv.UpdatedAt = parseTime(now)
		return nil
	})
	if err != nil {
		return nil, s.wrapWriteError("activate_model_version", "model_version", id, err)
	}

	s.logger.Info("model version activated", "tenant_id", tenantID, "model_version_id", id)
	return &mv, nil
}

// IsLocked reports whether a session references the model version.
func (s *Store) IsLocked(ctx context.Context, tenantID, modelVersionID string) (bool, error) {
	if _, err := s.modelVersion(ctx, s.db, tenantID, modelVersionID); err != nil {
		return false, err
	}
	locked, err := isLocked(ctx, s.db, modelVersionID)
	if err != nil {
		return false, NewStorageError(s.backend, "check_lock", err)
	}
	return locked, nil
}

func isLocked(ctx context.Context, q sqlx.ExtContext, modelVersionID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n, q.Rebind(`SELECT COUNT(*) FROM transformation_sessions WHERE model_version_id = ?`), modelVersionID)
	return n > 0, err
}

// ensureUnlocked fails with NotFound when the version does not belong to the
// tenant and with Conflict when a session references it.
//
// On PostgreSQL it also row-locks the version until tx ends, so structural
// creates under one version allocate positions one at a time. SQLite
// transactions already begin immediate and hold the write lock.
func (s *Store) ensureUnlocked(ctx context.Context, tx *sqlx.Tx, tenantID, modelVersionID string) error {
	if s.backend == "postgres" {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`SELECT id FROM model_versions WHERE id = ? AND tenant_id = ? FOR UPDATE`),
			modelVersionID, tenantID); err != nil {
			return NewStorageError(s.backend, "lock_model_version", err)
		}
	}
	if _, err := s.modelVersion(ctx, tx, tenantID, modelVersionID); err != nil {
		return err
	}
	locked, err := isLocked(ctx, tx, modelVersionID)
	if err != nil {
		return err
	}
	if locked {
		return model.NewConflictError("model_version", modelVersionID,
			"referenced by a transformation session; clone it to make structural changes")
	}
	return nil
}

// CloneModelVersion copies the full configuration of sourceID into a new
// inactive model version named in.Name.
func (s *Store) CloneModelVersion(ctx context.Context, tenantID, sourceID string, in NewModelVersion) (*model.ModelVersion, error) {
	if in.Name == "" {
		return nil, model.NewInvalidInputError("name", "is required")
	}

	var clone model.ModelVersion
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		src, err := s.modelVersion(ctx, tx, tenantID, sourceID)
		if err != nil {
			return err
		}
		cfg, err := s.loadConfig(ctx, tx, src)
		if err != nil {
			return err
		}

		now := s.now()
		clone = model.ModelVersion{
			ID:          uuid.NewString(),
			TenantID:    tenantID,
			Name:        in.Name,
			Description: in.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.insertModelVersion(ctx, tx, clone); err != nil {
			return err
		}
		return s.copyConfig(ctx, tx, cfg, clone.ID)
	})
	if err != nil {
		return nil, s.wrapWriteError("clone_model_version", "model_version", in.Name, err)
	}

	s.logger.Info("model version cloned",
		"tenant_id", tenantID,
		"source_model_version_id", sourceID,
		"model_version_id", clone.ID,
	)
	return &clone, nil
}

// copyConfig inserts every row of cfg under target with fresh ids, keeping
// positions and activity flags.
func (s *Store) copyConfig(ctx context.Context, tx *sqlx.Tx, cfg *model.ResolvedConfig, target string) error {
	tenantID := cfg.ModelVersion.TenantID
	exec := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		return err
	}

	for _, m := range cfg.Metrics {
		var weight sql.NullFloat64
		if m.Weight != nil {
			weight = sql.NullFloat64{Float64: *m.Weight, Valid: true}
		}
		if err := exec(`INSERT INTO metrics (id, tenant_id, model_version_id, name, weight, is_active, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, uuid.NewString(), tenantID, target, m.Name, weight, m.IsActive, m.Position); err != nil {
			return err
		}
	}

	for _, c := range cfg.Coefficients {
		if err := exec(`INSERT INTO coefficients (id, tenant_id, model_version_id, name, mode, weight, formula, is_active, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, uuid.NewString(), tenantID, target, c.Name, string(c.Mode), c.Weight, c.Formula, c.IsActive, c.Position); err != nil {
			return err
		}
	}

	for _, r := range cfg.Rules {
		ruleID := uuid.NewString()
		if err := exec(`INSERT INTO rules (id, tenant_id, model_version_id, name, description, is_active, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, ruleID, tenantID, target, r.Name, r.Description, r.IsActive, r.Position); err != nil {
			return err
		}
		for _, c := range r.Conditions {
			if err := exec(`INSERT INTO rule_conditions (id, tenant_id, rule_id, expression, is_active, position)
				VALUES (?, ?, ?, ?, ?, ?)`, uuid.NewString(), tenantID, ruleID, c.Expression, c.IsActive, c.Position); err != nil {
				return err
			}
		}
		for _, im := range r.Impacts {
			if err := exec(`INSERT INTO rule_impacts (id, tenant_id, rule_id, mode, value, formula, is_active, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, uuid.NewString(), tenantID, ruleID, string(im.Mode), im.Value, im.Formula, im.IsActive, im.Position); err != nil {
				return err
			}
		}
	}

	stateIDs := make(map[string]string, len(cfg.States))
	for i, st := range cfg.States {
		stateID := uuid.NewString()
		stateIDs[st.ID] = stateID
		if err := exec(`INSERT INTO state_definitions (id, tenant_id, model_version_id, name, description, rank_order, is_critical, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, stateID, tenantID, target, st.Name, st.Description, st.Rank, st.IsCritical, i+1); err != nil {
			return err
		}
		for j, th := range st.Thresholds {
			if err := exec(`INSERT INTO state_thresholds (id, tenant_id, state_definition_id, value, comparator, is_active, position)
				VALUES (?, ?, ?, ?, ?, ?, ?)`, uuid.NewString(), tenantID, stateID, th.Value, string(th.Comparator), th.IsActive, j+1); err != nil {
				return err
			}
		}
	}

	var templates []templateRow
	if err := tx.SelectContext(ctx, &templates, tx.Rebind(`SELECT `+templateColumns+`
		FROM restructuring_templates WHERE model_version_id = ? ORDER BY name, id`), cfg.ModelVersion.ID); err != nil {
		return err
	}
	templateIDs := make(map[string]string, len(templates))
	for _, t := range templates {
		templateID := uuid.NewString()
		templateIDs[t.ID] = templateID
		if err := exec(`INSERT INTO restructuring_templates (id, tenant_id, model_version_id, name, payload)
			VALUES (?, ?, ?, ?, ?)`, templateID, tenantID, target, t.Name, t.Payload); err != nil {
			return err
		}
	}

	for _, rr := range cfg.RestructuringRules {
		if err := exec(`INSERT INTO restructuring_rules (id, tenant_id, model_version_id, template_id, state_definition_id, position)
			VALUES (?, ?, ?, ?, ?, ?)`, uuid.NewString(), tenantID, target,
			templateIDs[rr.TemplateID], nullString(stateIDs[rr.StateDefinitionID]), rr.Position); err != nil {
			return err
		}
	}

	return nil
}

// wrapWriteError passes domain errors through, reports unique violations as
// conflicts and wraps everything else in a StorageError.
func (s *Store) wrapWriteError(operation, resource, id string, err error) error {
	if isDomainError(err) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	if isUniqueViolation(err) {
		return model.NewConflictError(resource, id, "already exists")
	}
	return NewStorageError(s.backend, operation, err)
}

func isDomainError(err error) bool {
	return model.IsNotFound(err) || model.IsNoActiveModel(err) || model.IsInvalidInput(err) || model.IsConflict(err)
}
