package model

import (
	"encoding/json"
	"time"
)

// Mode selects how a coefficient or impact produces its value.
type Mode string

const (
	// ModeScalar multiplies an input (coefficients) or adds a constant (impacts).
	ModeScalar Mode = "scalar"
	// ModeFormula evaluates an expression against the input bindings.
	ModeFormula Mode = "formula"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeScalar || m == ModeFormula }

// Comparator is the comparison a StateThreshold applies to the score.
type Comparator string

const (
	// ComparatorGTE is satisfied when score >= threshold. This is the default.
	ComparatorGTE Comparator = ">="
	// ComparatorGT is satisfied when score > threshold.
	ComparatorGT Comparator = ">"
)

// Valid reports whether c is a supported comparator.
func (c Comparator) Valid() bool { return c == ComparatorGTE || c == ComparatorGT }

// ModelVersion is a tenant-scoped, named configuration container.
type ModelVersion struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Metric is a named numeric input slot.
type Metric struct {
	ID             string `json:"id"`
	TenantID       string `json:"tenant_id"`
	ModelVersionID string `json:"model_version_id"`
	Name           string `json:"name"`
	// Weight, when set and no active coefficient shares the metric's name,
	// produces an implicit scalar contribution input[name] * Weight.
	Weight   *float64 `json:"weight,omitempty"`
	IsActive bool     `json:"is_active"`
	Position int      `json:"position"`
}

// Coefficient is a per-metric contribution rule.
type Coefficient struct {
	ID             string  `json:"id"`
	TenantID       string  `json:"tenant_id"`
	ModelVersionID string  `json:"model_version_id"`
	Name           string  `json:"name"`
	Mode           Mode    `json:"mode"`
	Weight         float64 `json:"weight"`
	Formula        string  `json:"formula,omitempty"`
	IsActive       bool    `json:"is_active"`
	Position       int     `json:"position"`
}

// Rule is an independently activatable unit of risk logic.
type Rule struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	ModelVersionID string          `json:"model_version_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	IsActive       bool            `json:"is_active"`
	Position       int             `json:"position"`
	Conditions     []RuleCondition `json:"conditions"`
	Impacts        []RuleImpact    `json:"impacts"`
}

// ActiveConditions returns the active conditions in position order.
func (r Rule) ActiveConditions() []RuleCondition {
	out := make([]RuleCondition, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

// RuleCondition is a boolean expression owned by a Rule.
type RuleCondition struct {
	ID         string `json:"id"`
	RuleID     string `json:"rule_id"`
	Expression string `json:"expression"`
	IsActive   bool   `json:"is_active"`
	Position   int    `json:"position"`
}

// RuleImpact is a score contribution applied when its rule triggers.
type RuleImpact struct {
	ID       string  `json:"id"`
	RuleID   string  `json:"rule_id"`
	Mode     Mode    `json:"mode"`
	Value    float64 `json:"value"`
	Formula  string  `json:"formula,omitempty"`
	IsActive bool    `json:"is_active"`
	Position int     `json:"position"`
}

// StateDefinition is a named risk state. Higher rank means higher risk.
type StateDefinition struct {
	ID             string           `json:"id"`
	TenantID       string           `json:"tenant_id"`
	ModelVersionID string           `json:"model_version_id"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Rank           int              `json:"rank"`
	IsCritical     bool             `json:"is_critical"`
	Thresholds     []StateThreshold `json:"thresholds"`
}

// StateThreshold is a score bound attached to a StateDefinition.
type StateThreshold struct {
	ID                string     `json:"id"`
	StateDefinitionID string     `json:"state_definition_id"`
	Value             float64    `json:"value"`
	Comparator        Comparator `json:"comparator"`
	IsActive          bool       `json:"is_active"`
}

// Satisfied reports whether score passes the threshold. Only ComparatorGTE
// and ComparatorGT exist; the store rejects any other comparator on write.
func (t StateThreshold) Satisfied(score float64) bool {
	if t.Comparator == ComparatorGT {
		return score > t.Value
	}
	return score >= t.Value
}

// RestructuringTemplate holds a directive payload passed through verbatim.
type RestructuringTemplate struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	ModelVersionID string          `json:"model_version_id"`
	Name           string          `json:"name"`
	Payload        json.RawMessage `json:"payload"`
}

// RestructuringRule binds a template to a state. An empty StateDefinitionID
// binds it to the model version's critical state.
type RestructuringRule struct {
	ID                string                `json:"id"`
	TenantID          string                `json:"tenant_id"`
	ModelVersionID    string                `json:"model_version_id"`
	TemplateID        string                `json:"template_id"`
	StateDefinitionID string                `json:"state_definition_id,omitempty"`
	Position          int                   `json:"position"`
	Template          RestructuringTemplate `json:"template"`
}

// ResolvedConfig is everything the engine needs for one model version.
// Slices are in position order. Inactive rows are present with their flags.
type ResolvedConfig struct {
	ModelVersion       ModelVersion        `json:"model_version"`
	Metrics            []Metric            `json:"metrics"`
	Coefficients       []Coefficient       `json:"coefficients"`
	Rules              []Rule              `json:"rules"`
	States             []StateDefinition   `json:"states"`
	RestructuringRules []RestructuringRule `json:"restructuring_rules"`
}

// CriticalState returns the state flagged critical, or the highest-ranked
// state when none is flagged. ok is false when there are no states.
func (c *ResolvedConfig) CriticalState() (state StateDefinition, ok bool) {
	for _, s := range c.States {
		if s.IsCritical {
			return s, true
		}
	}
	for i, s := range c.States {
		if i == 0 || s.Rank > state.Rank {
			state = s
		}
	}
	return state, len(c.States) > 0
}

// TransformationSession is a named run context accumulating snapshots.
type TransformationSession struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	ModelVersionID  string    `json:"model_version_id"`
	Name            string    `json:"name,omitempty"`
	SnapshotVersion int       `json:"snapshot_version"`
	CreatedAt       time.Time `json:"created_at"`
}
