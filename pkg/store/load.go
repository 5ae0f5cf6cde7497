package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"strategos-hq/riskengine/pkg/model"
)

// Load resolves the configuration of a model version. An empty
// modelVersionID selects the tenant's active version.
//
// Returns *model.NoActiveModelError when the tenant has no active version
// and *model.NotFoundError when the version does not exist for the tenant.
func (s *Store) Load(ctx context.Context, tenantID, modelVersionID string) (*model.ResolvedConfig, error) {
	if tenantID == "" {
		return nil, model.NewInvalidInputError("tenant_id", "is required")
	}

	var cfg *model.ResolvedConfig
	err := s.readTx(ctx, func(tx *sqlx.Tx) error {
		var (
			mv  model.ModelVersion
			err error
		)
		if modelVersionID == "" {
			mv, err = s.activeModelVersion(ctx, tx, tenantID)
		} else {
			mv, err = s.modelVersion(ctx, tx, tenantID, modelVersionID)
		}
		if err != nil {
			return err
		}

		cfg, err = s.loadConfig(ctx, tx, mv)
		if err != nil {
			return NewStorageError(s.backend, "load", err)
		}
		return nil
	})
	if err != nil {
		if isDomainError(err) || IsStorageError(err) {
			return nil, err
		}
		return nil, NewStorageError(s.backend, "load", err)
	}

	mv := cfg.ModelVersion
	s.logger.Debug("configuration loaded",
		"tenant_id", tenantID,
		"model_version_id", mv.ID,
		"rules", len(cfg.Rules),
		"coefficients", len(cfg.Coefficients),
		"states", len(cfg.States),
	)

	return cfg, nil
}

func (s *Store) activeModelVersion(ctx context.Context, q sqlx.ExtContext, tenantID string) (model.ModelVersion, error) {
	var row modelVersionRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`SELECT `+modelVersionColumns+`
		FROM model_versions WHERE tenant_id = ? AND is_active = ?`), tenantID, true)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ModelVersion{}, &model.NoActiveModelError{TenantID: tenantID}
	}
	if err != nil {
		return model.ModelVersion{}, NewStorageError(s.backend, "get_active_model_version", err)
	}
	return row.toModel(), nil
}

func (s *Store) modelVersion(ctx context.Context, q sqlx.ExtContext, tenantID, id string) (model.ModelVersion, error) {
	var row modelVersionRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`SELECT `+modelVersionColumns+`
		FROM model_versions WHERE id = ? AND tenant_id = ?`), id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ModelVersion{}, model.NewNotFoundError("model_version", id)
	}
	if err != nil {
		return model.ModelVersion{}, NewStorageError(s.backend, "get_model_version", err)
	}
	return row.toModel(), nil
}

// loadConfig reads every row of mv, active or not, ordered by position
// then id.
func (s *Store) loadConfig(ctx context.Context, q sqlx.ExtContext, mv model.ModelVersion) (*model.ResolvedConfig, error) {
	cfg := &model.ResolvedConfig{
		ModelVersion:       mv,
		Metrics:            []model.Metric{},
		Coefficients:       []model.Coefficient{},
		Rules:              []model.Rule{},
		States:             []model.StateDefinition{},
		RestructuringRules: []model.RestructuringRule{},
	}

	var metrics []metricRow
	if err := sqlx.SelectContext(ctx, q, &metrics, q.Rebind(`SELECT `+metricColumns+`
		FROM metrics WHERE model_version_id = ? ORDER BY position, id`), mv.ID); err != nil {
		return nil, err
	}
	for _, r := range metrics {
		cfg.Metrics = append(cfg.Metrics, r.toModel())
	}

	var coefficients []coefficientRow
	if err := sqlx.SelectContext(ctx, q, &coefficients, q.Rebind(`SELECT `+coefficientColumns+`
		FROM coefficients WHERE model_version_id = ? ORDER BY position, id`), mv.ID); err != nil {
		return nil, err
	}
	for _, r := range coefficients {
		cfg.Coefficients = append(cfg.Coefficients, r.toModel())
	}

	var rules []ruleRow
	if err := sqlx.SelectContext(ctx, q, &rules, q.Rebind(`SELECT `+ruleColumns+`
		FROM rules WHERE model_version_id = ? ORDER BY position, id`), mv.ID); err != nil {
		return nil, err
	}
	ruleIndex := make(map[string]int, len(rules))
	for i, r := range rules {
		ruleIndex[r.ID] = i
		cfg.Rules = append(cfg.Rules, r.toModel())
	}

	var conditions []conditionRow
	if err := sqlx.SelectContext(ctx, q, &conditions, q.Rebind(`SELECT c.id, c.rule_id, c.expression, c.is_active, c.position
		FROM rule_conditions c JOIN rules r ON r.id = c.rule_id
		WHERE r.model_version_id = ? ORDER BY c.position, c.id`), mv.ID); err != nil {
		return nil, err
	}
	for _, c := range conditions {
		i, ok := ruleIndex[c.RuleID]
		if !ok {
			return nil, fmt.Errorf("condition %s references rule %s outside model version %s", c.ID, c.RuleID, mv.ID)
		}
		cfg.Rules[i].Conditions = append(cfg.Rules[i].Conditions, c.toModel())
	}

	var impacts []impactRow
	if err := sqlx.SelectContext(ctx, q, &impacts, q.Rebind(`SELECT i.id, i.rule_id, i.mode, i.value, i.formula, i.is_active, i.position
		FROM rule_impacts i JOIN rules r ON r.id = i.rule_id
		WHERE r.model_version_id = ? ORDER BY i.position, i.id`), mv.ID); err != nil {
		return nil, err
	}
	for _, im := range impacts {
		i, ok := ruleIndex[im.RuleID]
		if !ok {
			return nil, fmt.Errorf("impact %s references rule %s outside model version %s", im.ID, im.RuleID, mv.ID)
		}
		cfg.Rules[i].Impacts = append(cfg.Rules[i].Impacts, im.toModel())
	}

	var states []stateRow
	if err := sqlx.SelectContext(ctx, q, &states, q.Rebind(`SELECT `+stateColumns+`
		FROM state_definitions WHERE model_version_id = ? ORDER BY position, id`), mv.ID); err != nil {
		return nil, err
	}
	stateIndex := make(map[string]int, len(states))
	for i, r := range states {
		stateIndex[r.ID] = i
		cfg.States = append(cfg.States, r.toModel())
	}

	var thresholds []thresholdRow
	if err := sqlx.SelectContext(ctx, q, &thresholds, q.Rebind(`SELECT t.id, t.state_definition_id, t.value, t.comparator, t.is_active, t.position
		FROM state_thresholds t JOIN state_definitions s ON s.id = t.state_definition_id
		WHERE s.model_version_id = ? ORDER BY t.position, t.id`), mv.ID); err != nil {
		return nil, err
	}
	for _, t := range thresholds {
		i, ok := stateIndex[t.StateDefinitionID]
		if !ok {
			return nil, fmt.Errorf("threshold %s references state %s outside model version %s", t.ID, t.StateDefinitionID, mv.ID)
		}
		cfg.States[i].Thresholds = append(cfg.States[i].Thresholds, t.toModel())
	}

	var restructuring []restructuringRuleRow
	if err := sqlx.SelectContext(ctx, q, &restructuring, q.Rebind(`SELECT rr.id, rr.tenant_id, rr.model_version_id,
		rr.template_id, rr.state_definition_id, rr.position,
		t.name AS template_name, t.payload AS template_payload
		FROM restructuring_rules rr JOIN restructuring_templates t ON t.id = rr.template_id
		WHERE rr.model_version_id = ? ORDER BY rr.position, rr.id`), mv.ID); err != nil {
		return nil, err
	}
	for _, r := range restructuring {
		cfg.RestructuringRules = append(cfg.RestructuringRules, r.toModel())
	}

	return cfg, nil
}
