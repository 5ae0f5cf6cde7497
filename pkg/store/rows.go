package store

import (
	"database/sql"
	"encoding/json"

	"strategos-hq/riskengine/pkg/model"
)

// Row types mirror table columns for sqlx struct scans.

type modelVersionRow struct {
	ID          string `db:"id"`
	TenantID    string `db:"tenant_id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	IsActive    bool   `db:"is_active"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r modelVersionRow) toModel() model.ModelVersion {
	return model.ModelVersion{
		ID:          r.ID,
		TenantID:    r.TenantID,
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
}

type metricRow struct {
	ID             string          `db:"id"`
	TenantID       string          `db:"tenant_id"`
	ModelVersionID string          `db:"model_version_id"`
	Name           string          `db:"name"`
	Weight         sql.NullFloat64 `db:"weight"`
	IsActive       bool            `db:"is_active"`
	Position       int             `db:"position"`
}

func (r metricRow) toModel() model.Metric {
	m := model.Metric{
		ID:             r.ID,
		TenantID:       r.TenantID,
		ModelVersionID: r.ModelVersionID,
		Name:           r.Name,
		IsActive:       r.IsActive,
		Position:       r.Position,
	}
	if r.Weight.Valid {
		w := r.Weight.Float64
		m.Weight = &w
	}
	return m
}

type coefficientRow struct {
	ID             string  `db:"id"`
	TenantID       string  `db:"tenant_id"`
	ModelVersionID string  `db:"model_version_id"`
	Name           string  `db:"name"`
	Mode           string  `db:"mode"`
	Weight         float64 `db:"weight"`
	Formula        string  `db:"formula"`
	IsActive       bool    `db:"is_active"`
	Position       int     `db:"position"`
}

func (r coefficientRow) toModel() model.Coefficient {
	return model.Coefficient{
		ID:             r.ID,
		TenantID:       r.TenantID,
		ModelVersionID: r.ModelVersionID,
		Name:           r.Name,
		Mode:           model.Mode(r.Mode),
		Weight:         r.Weight,
		Formula:        r.Formula,
		IsActive:       r.IsActive,
		Position:       r.Position,
	}
}

type ruleRow struct {
	ID             string `db:"id"`
	TenantID       string `db:"tenant_id"`
	ModelVersionID string `db:"model_version_id"`
	Name           string `db:"name"`
	Description    string `db:"description"`
	IsActive       bool   `db:"is_active"`
	Position       int    `db:"position"`
}

func (r ruleRow) toModel() model.Rule {
	return model.Rule{
		ID:             r.ID,
		TenantID:       r.TenantID,
		ModelVersionID: r.ModelVersionID,
		Name:           r.Name,
		Description:    r.Description,
		IsActive:       r.IsActive,
		Position:       r.Position,
		Conditions:     []model.RuleCondition{},
		Impacts:        []model.RuleImpact{},
	}
}

type conditionRow struct {
	ID         string `db:"id"`
	RuleID     string `db:"rule_id"`
	Expression string `db:"expression"`
	IsActive   bool   `db:"is_active"`
	Position   int    `db:"position"`
}

func (r conditionRow) toModel() model.RuleCondition {
	return model.RuleCondition{
		ID:         r.ID,
		RuleID:     r.RuleID,
		Expression: r.Expression,
		IsActive:   r.IsActive,
		Position:   r.Position,
	}
}

type impactRow struct {
	ID       string  `db:"id"`
	RuleID   string  `db:"rule_id"`
	Mode     string  `db:"mode"`
	Value    float64 `db:"value"`
	Formula  string  `db:"formula"`
	IsActive bool    `db:"is_active"`
	Position int     `db:"position"`
}

func (r impactRow) toModel() model.RuleImpact {
	return model.RuleImpact{
		ID:       r.ID,
		RuleID:   r.RuleID,
		Mode:     model.Mode(r.Mode),
		Value:    r.Value,
		Formula:  r.Formula,
		IsActive: r.IsActive,
		Position: r.Position,
	}
}

type stateRow struct {
	ID             string `db:"id"`
	TenantID       string `db:"tenant_id"`
	ModelVersionID string `db:"model_version_id"`
	Name           string `db:"name"`
	Description    string `db:"description"`
	Rank           int    `db:"rank_order"`
	IsCritical     bool   `db:"is_critical"`
	Position       int    `db:"position"`
}

func (r stateRow) toModel() model.StateDefinition {
	return model.StateDefinition{
		ID:             r.ID,
		TenantID:       r.TenantID,
		ModelVersionID: r.ModelVersionID,
		Name:           r.Name,
		Description:    r.Description,
		Rank:           r.Rank,
		IsCritical:     r.IsCritical,
		Thresholds:     []model.StateThreshold{},
	}
}

type thresholdRow struct {
	ID                string  `db:"id"`
	StateDefinitionID string  `db:"state_definition_id"`
	Value             float64 `db:"value"`
	Comparator        string  `db:"comparator"`
	IsActive          bool    `db:"is_active"`
	Position          int     `db:"position"`
}

func (r thresholdRow) toModel() model.StateThreshold {
	return model.StateThreshold{
		ID:                r.ID,
		StateDefinitionID: r.StateDefinitionID,
		Value:             r.Value,
		Comparator:        model.Comparator(r.Comparator),
		IsActive:          r.IsActive,
	}
}

type templateRow struct {
	ID             string `db:"id"`
	TenantID       string `db:"tenant_id"`
	ModelVersionID string `db:"model_version_id"`
	Name           string `db:"name"`
	Payload        string `db:"payload"`
}

func (r templateRow) toModel() model.RestructuringTemplate {
	return model.RestructuringTemplate{
		ID:             r.ID,
		TenantID:       r.TenantID,
		ModelVersionID: r.ModelVersionID,
		Name:           r.Name,
		Payload:        json.RawMessage(r.Payload),
	}
}

// restructuringRuleRow is a restructuring rule joined with its template.
type restructuringRuleRow struct {
	ID                string         `db:"id"`
	TenantID          string         `db:"tenant_id"`
	ModelVersionID    string         `db:"model_version_id"`
	TemplateID        string         `db:"template_id"`
	StateDefinitionID sql.NullString `db:"state_definition_id"`
	Position          int            `db:"position"`
	TemplateName      string         `db:"template_name"`
	TemplatePayload   string         `db:"template_payload"`
}

func (r restructuringRuleRow) toModel() model.RestructuringRule {
	return model.RestructuringRule{
		ID:                r.ID,
		TenantID:          r.TenantID,
		ModelVersionID:    r.ModelVersionID,
		TemplateID:        r.TemplateID,
		StateDefinitionID: r.StateDefinitionID.String,
		Position:          r.Position,
		Template: model.RestructuringTemplate{
			ID:             r.TemplateID,
			TenantID:       r.TenantID,
			ModelVersionID: r.ModelVersionID,
			Name:           r.TemplateName,
			Payload:        json.RawMessage(r.TemplatePayload),
		},
	}
}

type sessionRow struct {
	ID              string `db:"id"`
	TenantID        string `db:"tenant_id"`
	ModelVersionID  string `db:"model_version_id"`
	Name            string `db:"name"`
	SnapshotVersion int    `db:"snapshot_version"`
	CreatedAt       string `db:"created_at"`
}

func (r sessionRow) toModel() model.TransformationSession {
	return model.TransformationSession{
		ID:              r.ID,
		TenantID:        r.TenantID,
		ModelVersionID:  r.ModelVersionID,
		Name:            r.Name,
		SnapshotVersion: r.SnapshotVersion,
		CreatedAt:       parseTime(r.CreatedAt),
	}
}

type snapshotRow struct {
	ID        string `db:"id"`
	SessionID string `db:"session_id"`
	Version   int    `db:"version"`
	Payload   string `db:"payload"`
	CreatedAt string `db:"created_at"`
}

func (r snapshotRow) toModel() model.Snapshot {
	return model.Snapshot{
		ID:        r.ID,
		SessionID: r.SessionID,
		Version:   r.Version,
		CreatedAt: parseTime(r.CreatedAt),
		Payload:   json.RawMessage(r.Payload),
	}
}

type auditLogRow struct {
	ID              string         `db:"id"`
	TenantID        string         `db:"tenant_id"`
	SessionID       sql.NullString `db:"session_id"`
	ModelVersionID  string         `db:"model_version_id"`
	Actor           string         `db:"actor"`
	Action          string         `db:"action"`
	Input           string         `db:"input"`
	InputHash       string         `db:"input_hash"`
	Payload         string         `db:"payload"`
	SnapshotVersion sql.NullInt64  `db:"snapshot_version"`
	CreatedAt       string         `db:"created_at"`
}

func (r auditLogRow) toModel() (model.AuditLogEntry, error) {
	entry := model.AuditLogEntry{
		ID:              r.ID,
		TenantID:        r.TenantID,
		SessionID:       r.SessionID.String,
		ModelVersionID:  r.ModelVersionID,
		Actor:           r.Actor,
		Action:          r.Action,
		InputHash:       r.InputHash,
		Payload:         json.RawMessage(r.Payload),
		SnapshotVersion: int(r.SnapshotVersion.Int64),
		CreatedAt:       parseTime(r.CreatedAt),
	}
	if err := json.Unmarshal([]byte(r.Input), &entry.Input); err != nil {
		return entry, err
	}
	return entry, nil
}

// Column lists for SELECTs; they match the row types above.
const (
	modelVersionColumns = `id, tenant_id, name, description, is_active, created_at, updated_at`
	metricColumns       = `id, tenant_id, model_version_id, name, weight, is_active, position`
	coefficientColumns  = `id, tenant_id, model_version_id, name, mode, weight, formula, is_active, position`
	ruleColumns         = `id, tenant_id, model_version_id, name, description, is_active, position`
	stateColumns        = `id, tenant_id, model_version_id, name, description, rank_order, is_critical, position`
	templateColumns     = `id, tenant_id, model_version_id, name, payload`
	sessionColumns      = `id, tenant_id, model_version_id, name, snapshot_version, created_at`
	auditLogColumns     = `id, tenant_id, session_id, model_version_id, actor, action, input, input_hash, payload, snapshot_version, created_at`
)
