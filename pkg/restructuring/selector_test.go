package restructuring

import (
	"encoding/json"
	"testing"

	"strategos-hq/riskengine/pkg/model"
)

var (
	normal   = model.StateDefinition{ID: "s-normal", Name: "NORMAL", Rank: 0}
	elevated = model.StateDefinition{ID: "s-elevated", Name: "ELEVATED_RISK", Rank: 1}
	critical = model.StateDefinition{ID: "s-critical", Name: "CRITICAL_ZONE", Rank: 2, IsCritical: true}
)

func rules() []model.RestructuringRule {
	return []model.RestructuringRule{
		{
			ID:                "rr-1",
			StateDefinitionID: critical.ID,
			Template: model.RestructuringTemplate{
				ID:      "tpl-1",
				Name:    "portfolio_rationalization",
				Payload: json.RawMessage(`{"action":"rationalize_portfolio","owner":"Transformation Office","horizon_days":90}`),
			},
		},
		{
			ID: "rr-2",
			Template: model.RestructuringTemplate{
				ID:      "tpl-2",
				Name:    "cost_containment_program",
				Payload: json.RawMessage(`{"action":"cost_containment","owner":"CFO","horizon_days":60}`),
			},
		},
		{
			ID:                "rr-3",
			StateDefinitionID: elevated.ID,
			Template:          model.RestructuringTemplate{ID: "tpl-3", Name: "watchlist", Payload: json.RawMessage(`"monitor"`)},
		},
	}
}

func TestSelect_CriticalState(t *testing.T) {
	got := Select(critical, critical, rules())
	if len(got) != 2 {
		t.Fatalf("Select() returned %d directives, want 2", len(got))
	}
	if got[0].RestructuringRuleID != "rr-1" || got[1].RestructuringRuleID != "rr-2" {
		t.Errorf("unexpected order: %s, %s", got[0].RestructuringRuleID, got[1].RestructuringRuleID)
	}
	if got[1].TemplateName != "cost_containment_program" {
		t.Errorf("TemplateName = %s", got[1].TemplateName)
	}
	if string(got[0].Payload) != `{"action":"rationalize_portfolio","owner":"Transformation Office","horizon_days":90}` {
		t.Errorf("payload altered: %s", got[0].Payload)
	}
}

func TestSelect_NonCriticalStates(t *testing.T) {
	if got := Select(normal, critical, rules()); len(got) != 0 {
		t.Errorf("NORMAL selected %d directives, want 0", len(got))
	}

	got := Select(elevated, critical, rules())
	if len(got) != 1 || got[0].TemplateID != "tpl-3" {
		t.Errorf("ELEVATED_RISK selected %+v", got)
	}
}

func TestSelect_NoDeduplication(t *testing.T) {
	rs := rules()
	dup := rs[0]
	dup.ID = "rr-4"
	rs = append(rs, dup)

	got := Select(critical, critical, rs)
	if len(got) != 3 {
		t.Errorf("Select() returned %d directives, want 3 (duplicates kept)", len(got))
	}
}

func TestForConfig(t *testing.T) {
	cfg := &model.ResolvedConfig{
		States:             []model.StateDefinition{normal, elevated, critical},
		RestructuringRules: rules(),
	}
	if got := ForConfig(cfg, critical); len(got) != 2 {
		t.Errorf("ForConfig(critical) = %d directives, want 2", len(got))
	}
	if got := ForConfig(&model.ResolvedConfig{RestructuringRules: rules()}, model.StateDefinition{}); len(got) != 0 {
		t.Errorf("ForConfig without states = %d directives, want 0", len(got))
	}
}
