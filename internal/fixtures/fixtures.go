// Package fixtures builds resolved configurations shared by tests.
package fixtures

import (
	"encoding/json"
	"fmt"

	"strategos-hq/riskengine/pkg/model"
)

// TenantID is the tenant used by fixture configurations.
const TenantID = "00000000-0000-0000-0000-00000000a001"

// Builder assembles a ResolvedConfig with deterministic ids and positions.
type Builder struct {
	cfg model.ResolvedConfig
	seq int
}

// NewBuilder starts a configuration for an active model version.
func NewBuilder(modelVersionID, name string) *Builder {
	return &Builder{cfg: model.ResolvedConfig{
		ModelVersion: model.ModelVersion{ID: modelVersionID, TenantID: TenantID, Name: name, IsActive: true},
	}}
}

func (b *Builder) id(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%03d", prefix, b.seq)
}

// Scalar adds an active scalar coefficient.
func (b *Builder) Scalar(name string, weight float64) *Builder {
	b.cfg.Coefficients = append(b.cfg.Coefficients, model.Coefficient{
		ID: b.id("coef"), TenantID: TenantID, ModelVersionID: b.cfg.ModelVersion.ID,
		Name: name, Mode: model.ModeScalar, Weight: weight, IsActive: true,
		Position: len(b.cfg.Coefficients) + 1,
	})
	return b
}

// Formula adds an active formula coefficient.
func (b *Builder) Formula(name, formula string) *Builder {
	b.cfg.Coefficients = append(b.cfg.Coefficients, model.Coefficient{
		ID: b.id("coef"), TenantID: TenantID, ModelVersionID: b.cfg.ModelVersion.ID,
		Name: name, Mode: model.ModeFormula, Formula: formula, IsActive: true,
		Position: len(b.cfg.Coefficients) + 1,
	})
	return b
}

// Metric adds an active metric with an optional weight.
func (b *Builder) Metric(name string, weight *float64) *Builder {
	b.cfg.Metrics = append(b.cfg.Metrics, model.Metric{
		ID: b.id("metric"), TenantID: TenantID, ModelVersionID: b.cfg.ModelVersion.ID,
		Name: name, Weight: weight, IsActive: true, Position: len(b.cfg.Metrics) + 1,
	})
	return b
}

// Rule adds an active rule with one condition per expression and one scalar
// impact per value.
func (b *Builder) Rule(name string, expressions []string, impacts ...float64) *Builder {
	rule := model.Rule{
		ID: b.id("rule"), TenantID: TenantID, ModelVersionID: b.cfg.ModelVersion.ID,
		Name: name, IsActive: true, Position: len(b.cfg.Rules) + 1,
	}
	for i, e := range expressions {
		rule.Conditions = append(rule.Conditions, model.RuleCondition{
			ID: b.id("cond"), RuleID: rule.ID, Expression: e, IsActive: true, Position: i + 1,
		})
	}
	for i, v := range impacts {
		rule.Impacts = append(rule.Impacts, model.RuleImpact{
			ID: b.id("impact"), RuleID: rule.ID, Mode: model.ModeScalar, Value: v, IsActive: true, Position: i + 1,
		})
	}
	b.cfg.Rules = append(b.cfg.Rules, rule)
	return b
}

// FormulaImpact adds a formula impact to the most recently added rule.
func (b *Builder) FormulaImpact(formula string) *Builder {
	r := &b.cfg.Rules[len(b.cfg.Rules)-1]
	r.Impacts = append(r.Impacts, model.RuleImpact{
		ID: b.id("impact"), RuleID: r.ID, Mode: model.ModeFormula, Formula: formula, IsActive: true,
		Position: len(r.Impacts) + 1,
	})
	return b
}

// State adds a state. threshold nil means the state has no thresholds.
func (b *Builder) State(name string, rank int, critical bool, threshold *float64) *Builder {
	s := model.StateDefinition{
		ID: b.id("state"), TenantID: TenantID, ModelVersionID: b.cfg.ModelVersion.ID,
		Name: name, Rank: rank, IsCritical: critical,
	}
	if threshold != nil {
		s.Thresholds = []model.StateThreshold{{
			ID: b.id("threshold"), StateDefinitionID: s.ID, Value: *threshold,
			Comparator: model.ComparatorGTE, IsActive: true,
		}}
	}
	b.cfg.States = append(b.cfg.States, s)
	return b
}

// Restructuring binds a new template to the named state.
func (b *Builder) Restructuring(stateName, templateName, payload string) *Builder {
	var stateID string
	for _, s := range b.cfg.States {
		if s.Name == stateName {
			stateID = s.ID
		}
	}
	tpl := model.RestructuringTemplate{
		ID: b.id("tpl"), TenantID: TenantID, ModelVersionID: b.cfg.ModelVersion.ID,
		Name: templateName, Payload: json.RawMessage(payload),
	}
	b.cfg.RestructuringRules = append(b.cfg.RestructuringRules, model.RestructuringRule{
		ID: b.id("rr"), TenantID: TenantID, ModelVersionID: b.cfg.ModelVersion.ID,
		TemplateID: tpl.ID, StateDefinitionID: stateID,
		Position: len(b.cfg.RestructuringRules) + 1, Template: tpl,
	})
	return b
}

// Build returns the configuration.
func (b *Builder) Build() *model.ResolvedConfig {
	cfg := b.cfg
	return &cfg
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Example returns the two-coefficient, one-rule configuration used in the
// scoring examples: revenue*0.01, cost*-0.02, HighCost (cost > 220) +12,
// states NORMAL, ELEVATED_RISK >= 70, CRITICAL_ZONE >= 100.
func Example() *model.ResolvedConfig {
	return NewBuilder("mv-example", "example").
		Scalar("revenue", 0.01).
		Scalar("cost", -0.02).
		Rule("HighCost", []string{"cost > 220"}, 12).
		State("NORMAL", 0, false, nil).
		State("ELEVATED_RISK", 1, false, Float(70)).
		State("CRITICAL_ZONE", 2, true, Float(100)).
		Build()
}

// Baseline returns the deterministic baseline model.
func Baseline() *model.ResolvedConfig {
	return NewBuilder("mv-baseline", "deterministic-baseline").
		Metric("revenue", nil).
		Metric("cost", nil).
		Metric("margin", nil).
		Metric("technical_debt", nil).
		Scalar("revenue", 0.008).
		Scalar("cost", -0.005).
		Scalar("margin", 0.04).
		Formula("composite_stress", "(cost * 0.004) + (technical_debt * 0.006) - (margin * 0.015)").
		Rule("high_cost_pressure", []string{"cost > 220"}, 32).
		Rule("margin_collapse", []string{"margin < 0.12"}, 36).
		Rule("debt_spike", []string{"technical_debt > 70"}, 30).
		Rule("revenue_erosion", []string{"revenue < 900"}, 29).
		Rule("cost_revenue_imbalance", []string{"cost > (revenue * 0.78)"}, 31).
		Rule("margin_debt_double_stress", []string{"(margin < 0.15) and (technical_debt > 55)"}, 34).
		Rule("margin_cost_stress", []string{"(margin < 0.18) and (cost > 180)"}, 28).
		State("NORMAL", 0, false, Float(0)).
		State("ELEVATED_RISK", 1, false, Float(35)).
		State("CRITICAL_ZONE", 2, true, Float(60)).
		Restructuring("CRITICAL_ZONE", "portfolio_rationalization", `{"action":"rationalize_portfolio","owner":"Transformation Office","horizon_days":90}`).
		Restructuring("CRITICAL_ZONE", "cost_containment_program", `{"action":"cost_containment","owner":"CFO","horizon_days":60}`).
		Build()
}
