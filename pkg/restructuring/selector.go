// Package restructuring selects the remediation directives configured for a
// resolved risk state. Payloads are passed through exactly as configured.
package restructuring

import "strategos-hq/riskengine/pkg/model"

// Select returns a directive for every restructuring rule bound to state, in
// rule order. Rules without a state binding belong to critical, the model
// version's critical state. The result may be empty.
func Select(state model.StateDefinition, critical model.StateDefinition, rules []model.RestructuringRule) []model.Directive {
	directives := make([]model.Directive, 0)
	for _, rr := range rules {
		bound := rr.StateDefinitionID
		if bound == "" {
			bound = critical.ID
		}
		if bound == "" || bound != state.ID {
			continue
		}
		directives = append(directives, model.Directive{
			RestructuringRuleID: rr.ID,
			TemplateID:          rr.Template.ID,
			TemplateName:        rr.Template.Name,
			Payload:             rr.Template.Payload,
		})
	}
	return directives
}

// ForConfig selects the directives for state from a resolved configuration.
func ForConfig(cfg *model.ResolvedConfig, state model.StateDefinition) []model.Directive {
	critical, _ := cfg.CriticalState()
	return Select(state, critical, cfg.RestructuringRules)
}
