package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"strategos-hq/riskengine/pkg/expr"
	"strategos-hq/riskengine/pkg/model"
)

// NewMetric describes a metric to create.
type NewMetric struct {
	Name   string   `json:"name" yaml:"name"`
	Weight *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// NewCoefficient describes a coefficient to create.
type NewCoefficient struct {
	Name    string     `json:"name" yaml:"name"`
	Mode    model.Mode `json:"mode" yaml:"mode"`
	Weight  float64    `json:"weight" yaml:"weight"`
	Formula string     `json:"formula,omitempty" yaml:"formula,omitempty"`
}

// NewRule describes a rule to create, optionally with its conditions and
// impacts.
type NewRule struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Conditions  []string    `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Impacts     []NewImpact `json:"impacts,omitempty" yaml:"impacts,omitempty"`
}

// NewCondition describes a rule condition to create.
type NewCondition struct {
	Expression string `json:"expression"`
}

// NewImpact describes a rule impact to create.
type NewImpact struct {
	Mode    model.Mode `json:"mode" yaml:"mode"`
	Value   float64    `json:"value" yaml:"value"`
	Formula string     `json:"formula,omitempty" yaml:"formula,omitempty"`
}

// NewState describes a state definition to create.
type NewState struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Rank        int            `json:"rank" yaml:"rank"`
	IsCritical  bool           `json:"is_critical" yaml:"is_critical"`
	Thresholds  []NewThreshold `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// NewThreshold describes a state threshold to create. An empty comparator
// means ">=".
type NewThreshold struct {
	Value      float64          `json:"value" yaml:"value"`
	Comparator model.Comparator `json:"comparator,omitempty" yaml:"comparator,omitempty"`
}

// NewTemplate describes a restructuring template to create.
type NewTemplate struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// NewRestructuringRule binds a template to a state. An empty
// StateDefinitionID binds it to the critical state.
type NewRestructuringRule struct {
	TemplateID        string `json:"template_id"`
	StateDefinitionID string `json:"state_definition_id,omitempty"`
}

// CreateMetric adds a metric to an unlocked model version.
func (s *Store) CreateMetric(ctx context.Context, tenantID, modelVersionID string, in NewMetric) (*model.Metric, error) {
	if !model.IsIdentifier(in.Name) {
		return nil, model.NewInvalidInputError("name", fmt.Sprintf("%q is not a valid metric name", in.Name))
	}

	m := model.Metric{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ModelVersionID: modelVersionID,
		Name:           in.Name,
		Weight:         in.Weight,
		IsActive:       true,
	}
	var weight sql.NullFloat64
	if in.Weight != nil {
		weight = sql.NullFloat64{Float64: *in.Weight, Valid: true}
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.ensureUnlocked(ctx, tx, tenantID, modelVersionID); err != nil {
			return err
		}
		return tx.GetContext(ctx, &m.Position, tx.Rebind(`INSERT INTO metrics
			(id, tenant_id, model_version_id, name, weight, is_active, position)
			VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM metrics WHERE model_version_id = ?))
			RETURNING position`),
			m.ID, tenantID, modelVersionID, m.Name, weight, true, modelVersionID)
	})
	if err != nil {
		return nil, s.wrapWriteError("create_metric", "metric", in.Name, err)
	}
	return &m, nil
}

// CreateCoefficient adds a coefficient to an unlocked model version.
func (s *Store) CreateCoefficient(ctx context.Context, tenantID, modelVersionID string, in NewCoefficient) (*model.Coefficient, error) {
	if err := validateCoefficient(in); err != nil {
		return nil, err
	}

	c := model.Coefficient{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ModelVersionID: modelVersionID,
		Name:           in.Name,
		Mode:           in.Mode,
		Weight:         in.Weight,
		Formula:        in.Formula,
		IsActive:       true,
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.ensureUnlocked(ctx, tx, tenantID, modelVersionID); err != nil {
			return err
		}
		return tx.GetContext(ctx, &c.Position, tx.Rebind(`INSERT INTO coefficients
			(id, tenant_id, model_version_id, name, mode, weight, formula, is_active, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM coefficients WHERE model_version_id = ?))
			RETURNING position`),
			c.ID, tenantID, modelVersionID, c.Name, string(c.Mode), c.Weight, c.Formula, true, modelVersionID)
	})
	if err != nil {
		return nil, s.wrapWriteError("create_coefficient", "coefficient", in.Name, err)
	}
	return &c, nil
}

func validateCoefficient(in NewCoefficient) error {
	switch in.Mode {
	case model.ModeScalar:
		if !model.IsIdentifier(in.Name) {
			return model.NewInvalidInputError("name", fmt.Sprintf("%q is not a valid metric name", in.Name))
		}
	case model.ModeFormula:
		if in.Name == "" {
			return model.NewInvalidInputError("name", "is required")
		}
		if err := expr.Validate(in.Formula); err != nil {
			return model.NewInvalidInputError("formula", err.Error())
		}
	default:
		return model.NewInvalidInputError("mode", fmt.Sprintf("must be %q or %q", model.ModeScalar, model.ModeFormula))
	}
	return nil
}

func validateImpact(in NewImpact) error {
	switch in.Mode {
	case model.ModeScalar:
		return nil
	case model.ModeFormula:
		if err := expr.Validate(in.Formula); err != nil {
			return model.NewInvalidInputError("formula", err.Error())
		}
		return nil
	}
	return model.NewInvalidInputError("mode", fmt.Sprintf("must be %q or %q", model.ModeScalar, model.ModeFormula))
}

func validateCondition(expression string) error {
	if err := expr.Validate(expression); err != nil {
		return model.NewInvalidInputError("expression", err.Error())
	}
	return nil
}

// CreateRule adds a rule, with any conditions and impacts given, to an
// unlocked model version.
func (s *Store) CreateRule(ctx context.Context, tenantID, modelVersionID string, in NewRule) (*model.Rule, error) {
	if in.Name == "" {
		return nil, model.NewInvalidInputError("name", "is required")
	}
	for _, c := range in.Conditions {
		if err := validateCondition(c); err != nil {
			return nil, err
		}
	}
	for _, im := range in.Impacts {
		if err := validateImpact(im); err != nil {
			return nil, err
		}
	}

	r := model.Rule{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ModelVersionID: modelVersionID,
		Name:           in.Name,
		Description:    in.Description,
		IsActive:       true,
		Conditions:     []model.RuleCondition{},
		Impacts:        []model.RuleImpact{},
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.ensureUnlocked(ctx, tx, tenantID, modelVersionID); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &r.Position, tx.Rebind(`INSERT INTO rules
			(id, tenant_id, model_version_id, name, description, is_active, position)
			VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM rules WHERE model_version_id = ?))
			RETURNING position`),
			r.ID, tenantID, modelVersionID, r.Name, r.Description, true, modelVersionID); err != nil {
			return err
		}
		for _, expression := range in.Conditions {
			c, err := insertCondition(ctx, tx, tenantID, r.ID, expression)
			if err != nil {
				return err
			}
			r.Conditions = append(r.Conditions, c)
		}
		for _, im := range in.Impacts {
			impact, err := insertImpact(ctx, tx, tenantID, r.ID, im)
			if err != nil {
				return err
			}
			r.Impacts = append(r.Impacts, impact)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapWriteError("create_rule", "rule", in.Name, err)
	}
	return &r, nil
}

// GetRule returns a rule with its conditions and impacts.
func (s *Store) GetRule(ctx context.Context, tenantID, id string) (*model.Rule, error) {
	var row ruleRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+ruleColumns+` FROM rules WHERE id = ? AND tenant_id = ?`), id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("rule", id)
	}
	if err != nil {
		return nil, NewStorageError(s.backend, "get_rule", err)
	}

	r := row.toModel()
	var conditions []conditionRow
	if err := s.db.SelectContext(ctx, &conditions, s.db.Rebind(`SELECT id, rule_id, expression, is_active, position
		FROM rule_conditions WHERE rule_id = ? ORDER BY position, id`), id); err != nil {
		return nil, NewStorageError(s.backend, "get_rule", err)
	}
	for _, c := range conditions {
		r.Conditions = append(r.Conditions, c.toModel())
	}
	var impacts []impactRow
	if err := s.db.SelectContext(ctx, &impacts, s.db.Rebind(`SELECT id, rule_id, mode, value, formula, is_active, position
		FROM rule_impacts WHERE rule_id = ? ORDER BY position, id`), id); err != nil {
		return nil, NewStorageError(s.backend, "get_rule", err)
	}
	for _, im := range impacts {
		r.Impacts = append(r.Impacts, im.toModel())
	}
	return &r, nil
}

// ruleVersion returns the model version owning a rule.
func (s *Store) ruleVersion(ctx context.Context, tx *sqlx.Tx, tenantID, ruleID string) (string, error) {
	var mvID string
	err := tx.GetContext(ctx, &mvID, tx.Rebind(`SELECT model_version_id FROM rules WHERE id = ? AND tenant_id = ?`), ruleID, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.NewNotFoundError("rule", ruleID)
	}
	return mvID, err
}

// AddCondition appends a condition to a rule of an unlocked model version.
func (s *Store) AddCondition(ctx context.Context, tenantID, ruleID string, in NewCondition) (*model.RuleCondition, error) {
	if err := validateCondition(in.Expression); err != nil {
		return nil, err
	}

	var c model.RuleCondition
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		mvID, err := s.ruleVersion(ctx, tx, tenantID, ruleID)
		if err != nil {
			return err
		}
		if err := s.ensureUnlocked(ctx, tx, tenantID, mvID); err != nil {
			return err
		}
		c, err = insertCondition(ctx, tx, tenantID, ruleID, in.Expression)
		return err
	})
	if err != nil {
		return nil, s.wrapWriteError("add_condition", "rule", ruleID, err)
	}
	return &c, nil
}

// AddImpact appends an impact to a rule of an unlocked model version.
func (s *Store) AddImpact(ctx context.Context, tenantID, ruleID string, in NewImpact) (*model.RuleImpact, error) {
	if err := validateImpact(in); err != nil {
		return nil, err
	}

	var im model.RuleImpact
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		mvID, err := s.ruleVersion(ctx, tx, tenantID, ruleID)
		if err != nil {
			return err
		}
		if err := s.ensureUnlocked(ctx, tx, tenantID, mvID); err != nil {
			return err
		}
		im, err = insertImpact(ctx, tx, tenantID, ruleID, in)
		return err
	})
	if err != nil {
		return nil, s.wrapWriteError("add_impact", "rule", ruleID, err)
	}
	return &im, nil
}

func insertCondition(ctx context.Context, tx *sqlx.Tx, tenantID, ruleID, expression string) (model.RuleCondition, error) {
	c := model.RuleCondition{ID: uuid.NewString(), RuleID: ruleID, Expression: expression, IsActive: true}
	err := tx.GetContext(ctx, &c.Position, tx.Rebind(`INSERT INTO rule_conditions
		(id, tenant_id, rule_id, expression, is_active, position)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM rule_conditions WHERE rule_id = ?))
		RETURNING position`),
		c.ID, tenantID, ruleID, expression, true, ruleID)
	return c, err
}

func insertImpact(ctx context.Context, tx *sqlx.Tx, tenantID, ruleID string, in NewImpact) (model.RuleImpact, error) {
	im := model.RuleImpact{ID: uuid.NewString(), RuleID: ruleID, Mode: in.Mode, Value: in.Value, Formula: in.Formula, IsActive: true}
	err := tx.GetContext(ctx, &im.Position, tx.Rebind(`INSERT INTO rule_impacts
		(id, tenant_id, rule_id, mode, value, formula, is_active, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM rule_impacts WHERE rule_id = ?))
		RETURNING position`),
		im.ID, tenantID, ruleID, string(im.Mode), im.Value, im.Formula, true, ruleID)
	return im, err
}

// CreateState adds a state definition, with any thresholds given, to an
// unlocked model version.
func (s *Store) CreateState(ctx context.Context, tenantID, modelVersionID string, in NewState) (*model.StateDefinition, error) {
	if in.Name == "" {
		return nil, model.NewInvalidInputError("name", "is required")
	}
	for _, th := range in.Thresholds {
		if err := validateThreshold(th); err != nil {
			return nil, err
		}
	}

	st := model.StateDefinition{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ModelVersionID: modelVersionID,
		Name:           in.Name,
		Description:    in.Description,
		Rank:           in.Rank,
		IsCritical:     in.IsCritical,
		Thresholds:     []model.StateThreshold{},
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.ensureUnlocked(ctx, tx, tenantID, modelVersionID); err != nil {
			return err
		}
		if in.IsCritical {
			var n int
			if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM state_definitions
				WHERE model_version_id = ? AND is_critical = ?`), modelVersionID, true); err != nil {
				return err
			}
			if n > 0 {
				return model.NewConflictError("state", in.Name, "model version already has a critical state")
			}
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO state_definitions
			(id, tenant_id, model_version_id, name, description, rank_order, is_critical, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM state_definitions WHERE model_version_id = ?))`),
			st.ID, tenantID, modelVersionID, st.Name, st.Description, st.Rank, st.IsCritical, modelVersionID); err != nil {
			return err
		}
		for _, th := range in.Thresholds {
			t, err := insertThreshold(ctx, tx, tenantID, st.ID, th)
			if err != nil {
				return err
			}
			st.Thresholds = append(st.Thresholds, t)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapWriteError("create_state", "state", in.Name, err)
	}
	return &st, nil
}

func validateThreshold(in NewThreshold) error {
	if in.Comparator != "" && !in.Comparator.Valid() {
		return model.NewInvalidInputError("comparator", fmt.Sprintf("must be %q or %q", model.ComparatorGTE, model.ComparatorGT))
	}
	return nil
}

// AddThreshold appends a threshold to a state of an unlocked model version.
func (s *Store) AddThreshold(ctx context.Context, tenantID, stateID string, in NewThreshold) (*model.StateThreshold, error) {
	if err := validateThreshold(in); err != nil {
		return nil, err
	}

	var t model.StateThreshold
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var mvID string
		err := tx.GetContext(ctx, &mvID, tx.Rebind(`SELECT model_version_id FROM state_definitions WHERE id = ? AND tenant_id = ?`), stateID, tenantID)
		if errors.Is(err, sql.ErrNoRows) {
			return model.NewNotFoundError("state", stateID)
		}
		if err != nil {
			return err
		}
		if err := s.ensureUnlocked(ctx, tx, tenantID, mvID); err != nil {
			return err
		}
		t, err = insertThreshold(ctx, tx, tenantID, stateID, in)
		return err
	})
	if err != nil {
		return nil, s.wrapWriteError("add_threshold", "state", stateID, err)
	}
	return &t, nil
}

func insertThreshold(ctx context.Context, tx *sqlx.Tx, tenantID, stateID string, in NewThreshold) (model.StateThreshold, error) {
	comparator := in.Comparator
	if comparator == "" {
		comparator = model.ComparatorGTE
	}
	t := model.StateThreshold{ID: uuid.NewString(), StateDefinitionID: stateID, Value: in.Value, Comparator: comparator, IsActive: true}
	_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO state_thresholds
		(id, tenant_id, state_definition_id, value, comparator, is_active, position)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM state_thresholds WHERE state_definition_id = ?))`),
		t.ID, tenantID, stateID, t.Value, string(t.Comparator), true, stateID)
	return t, err
}

// GetState returns a state definition with its thresholds.
func (s *Store) GetState(ctx context.Context, tenantID, id string) (*model.StateDefinition, error) {
	var row stateRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+stateColumns+` FROM state_definitions WHERE id = ? AND tenant_id = ?`), id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("state", id)
	}
	if err != nil {
		return nil, NewStorageError(s.backend, "get_state", err)
	}

	st := row.toModel()
	var thresholds []thresholdRow
	if err := s.db.SelectContext(ctx, &thresholds, s.db.Rebind(`SELECT id, state_definition_id, value, comparator, is_active, position
		FROM state_thresholds WHERE state_definition_id = ? ORDER BY position, id`), id); err != nil {
		return nil, NewStorageError(s.backend, "get_state", err)
	}
	for _, t := range thresholds {
		st.Thresholds = append(st.Thresholds, t.toModel())
	}
	return &st, nil
}

// CreateTemplate adds a restructuring template to an unlocked model version.
// The payload must be valid JSON and is stored compacted.
func (s *Store) CreateTemplate(ctx context.Context, tenantID, modelVersionID string, in NewTemplate) (*model.RestructuringTemplate, error) {
	if in.Name == "" {
		return nil, model.NewInvalidInputError("name", "is required")
	}
	var compact bytes.Buffer
	if len(in.Payload) == 0 || json.Compact(&compact, in.Payload) != nil {
		return nil, model.NewInvalidInputError("payload", "must be valid JSON")
	}

	t := model.RestructuringTemplate{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ModelVersionID: modelVersionID,
		Name:           in.Name,
		Payload:        json.RawMessage(compact.Bytes()),
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.ensureUnlocked(ctx, tx, tenantID, modelVersionID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO restructuring_templates
			(id, tenant_id, model_version_id, name, payload) VALUES (?, ?, ?, ?, ?)`),
			t.ID, tenantID, modelVersionID, t.Name, string(t.Payload))
		return err
	})
	if err != nil {
		return nil, s.wrapWriteError("create_template", "restructuring_template", in.Name, err)
	}
	return &t, nil
}

// ListTemplates returns the restructuring templates of a model version.
func (s *Store) ListTemplates(ctx context.Context, tenantID, modelVersionID string) ([]model.RestructuringTemplate, error) {
	var rows []templateRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT `+templateColumns+`
		FROM restructuring_templates WHERE model_version_id = ? AND tenant_id = ? ORDER BY name, id`),
		modelVersionID, tenantID); err != nil {
		return nil, NewStorageError(s.backend, "list_templates", err)
	}

	out := make([]model.RestructuringTemplate, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// CreateRestructuringRule binds a template to a state of the same unlocked
// model version.
func (s *Store) CreateRestructuringRule(ctx context.Context, tenantID, modelVersionID string, in NewRestructuringRule) (*model.RestructuringRule, error) {
	if in.TemplateID == "" {
		return nil, model.NewInvalidInputError("template_id", "is required")
	}

	rr := model.RestructuringRule{
		ID:                uuid.NewString(),
		TenantID:          tenantID,
		ModelVersionID:    modelVersionID,
		TemplateID:        in.TemplateID,
		StateDefinitionID: in.StateDefinitionID,
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.ensureUnlocked(ctx, tx, tenantID, modelVersionID); err != nil {
			return err
		}

		var tpl templateRow
		err := tx.GetContext(ctx, &tpl, tx.Rebind(`SELECT `+templateColumns+`
			FROM restructuring_templates WHERE id = ? AND model_version_id = ?`), in.TemplateID, modelVersionID)
		if errors.Is(err, sql.ErrNoRows) {
			return model.NewNotFoundError("restructuring_template", in.TemplateID)
		}
		if err != nil {
			return err
		}
		rr.Template = tpl.toModel()

		if in.StateDefinitionID != "" {
			var n int
			if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM state_definitions
				WHERE id = ? AND model_version_id = ?`), in.StateDefinitionID, modelVersionID); err != nil {
				return err
			}
			if n == 0 {
				return model.NewNotFoundError("state", in.StateDefinitionID)
			}
		}

		return tx.GetContext(ctx, &rr.Position, tx.Rebind(`INSERT INTO restructuring_rules
			(id, tenant_id, model_version_id, template_id, state_definition_id, position)
			VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM restructuring_rules WHERE model_version_id = ?))
			RETURNING position`),
			rr.ID, tenantID, modelVersionID, rr.TemplateID, nullString(rr.StateDefinitionID), modelVersionID)
	})
	if err != nil {
		return nil, s.wrapWriteError("create_restructuring_rule", "restructuring_rule", in.TemplateID, err)
	}
	return &rr, nil
}

// Toggleable identifies a configuration table whose rows carry is_active.
type Toggleable string

// Toggleable resources.
const (
	ToggleMetric      Toggleable = "metric"
	ToggleCoefficient Toggleable = "coefficient"
	ToggleRule        Toggleable = "rule"
	ToggleCondition   Toggleable = "condition"
	ToggleImpact      Toggleable = "impact"
	ToggleThreshold   Toggleable = "threshold"
)

var toggleTables = map[Toggleable]string{
	ToggleMetric:      "metrics",
	ToggleCoefficient: "coefficients",
	ToggleRule:        "rules",
	ToggleCondition:   "rule_conditions",
	ToggleImpact:      "rule_impacts",
	ToggleThreshold:   "state_thresholds",
}

// SetActive toggles the is_active flag of a configuration row. Toggles are
// allowed on locked model versions.
func (s *Store) SetActive(ctx context.Context, tenantID string, resource Toggleable, id string, active bool) error {
	table, ok := toggleTables[resource]
	if !ok {
		return model.NewInvalidInputError("resource", fmt.Sprintf("%q cannot be toggled", resource))
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE `+table+` SET is_active = ? WHERE id = ? AND tenant_id = ?`), active, id, tenantID)
	if err != nil {
		return NewStorageError(s.backend, "set_active", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return NewStorageError(s.backend, "set_active", err)
	}
	if n == 0 {
		return model.NewNotFoundError(string(resource), id)
	}

	s.logger.Info("activation changed", "tenant_id", tenantID, "resource", resource, "id", id, "is_active", active)
	return nil
}
