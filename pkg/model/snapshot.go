package model

import (
	"encoding/json"
	"time"
)

// FloatTolerance is the absolute tolerance used whenever two scores are
// compared for equality (replay comparison, tests).
const FloatTolerance = 1e-9

// ConditionContribution records the evaluation of one rule condition.
type ConditionContribution struct {
	RuleID      string `json:"rule_id"`
	ConditionID string `json:"condition_id"`
	Expression  string `json:"expression"`
	Result      bool   `json:"result"`
	Error       string `json:"error,omitempty"`
}

// ImpactContribution records the evaluation of one impact of a triggered rule.
type ImpactContribution struct {
	ImpactID     string   `json:"impact_id"`
	Mode         Mode     `json:"mode"`
	Value        *float64 `json:"value"`
	Formula      *string  `json:"formula"`
	Contribution float64  `json:"contribution"`
	Error        string   `json:"error,omitempty"`
}

// RuleResult is the outcome of one active rule.
type RuleResult struct {
	RuleID       string               `json:"rule_id"`
	Name         string               `json:"name"`
	Triggered    bool                 `json:"triggered"`
	Contribution float64              `json:"contribution"`
	Impacts      []ImpactContribution `json:"impacts"`
}

// CoefficientContribution records one weighted input term.
type CoefficientContribution struct {
	Name         string   `json:"name"`
	Mode         Mode     `json:"mode"`
	Input        *float64 `json:"input"`
	Coefficient  *float64 `json:"coefficient"`
	Formula      *string  `json:"formula"`
	Contribution float64  `json:"contribution"`
	Error        *string  `json:"error"`
	Warning      string   `json:"warning,omitempty"`
}

// EvaluationError is a recovered, item-local evaluation failure.
type EvaluationError struct {
	// Source is "coefficient", "condition" or "impact".
	Source string `json:"source"`
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Code   string `json:"code"`
}

// ScoreBreakdown is the output of the scoring engine for one input vector.
type ScoreBreakdown struct {
	RuleCount                int                       `json:"rule_count"`
	TotalRuleCount           int                       `json:"total_rule_count"`
	TriggeredRuleCount       int                       `json:"triggered_rule_count"`
	ConditionsEvaluated      int                       `json:"conditions_evaluated"`
	Contributions            []ConditionContribution   `json:"contributions"`
	RuleResults              []RuleResult              `json:"rule_results"`
	WeightedInputScore       float64                   `json:"weighted_input_score"`
	RuleImpactScore          float64                   `json:"rule_impact_score"`
	TotalScore               float64                   `json:"total_score"`
	CoefficientContributions []CoefficientContribution `json:"coefficient_contributions"`
	Errors                   []EvaluationError         `json:"errors"`
	Warnings                 []string                  `json:"warnings"`
}

// HasErrors reports whether any item failed to evaluate.
func (b *ScoreBreakdown) HasErrors() bool { return len(b.Errors) > 0 }

// Directive is a selected restructuring action.
type Directive struct {
	RestructuringRuleID string          `json:"restructuring_rule_id"`
	TemplateID          string          `json:"template_id"`
	TemplateName        string          `json:"template_name"`
	Payload             json.RawMessage `json:"payload"`
}

// ModelVersionRef identifies the model version a run used.
type ModelVersionRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TenantID string `json:"tenant_id"`
}

// ScoreSummary is the score_breakdown section of a snapshot.
type ScoreSummary struct {
	WeightedInputScore       float64                   `json:"weighted_input_score"`
	RuleImpactScore          float64                   `json:"rule_impact_score"`
	TotalScore               float64                   `json:"total_score"`
	CoefficientContributions []CoefficientContribution `json:"coefficient_contributions"`
}

// SnapshotPayload is the complete, deterministic output of one engine run.
type SnapshotPayload struct {
	ModelVersion         ModelVersionRef         `json:"model_version"`
	RuleCount            int                     `json:"rule_count"`
	TotalRuleCount       int                     `json:"total_rule_count"`
	TriggeredRuleCount   int                     `json:"triggered_rule_count"`
	ConditionsEvaluated  int                     `json:"conditions_evaluated"`
	State                string                  `json:"state"`
	StateRank            int                     `json:"state_rank"`
	Contributions        []ConditionContribution `json:"contributions"`
	RuleResults          []RuleResult            `json:"rule_results"`
	ScoreBreakdown       ScoreSummary            `json:"score_breakdown"`
	RestructuringActions []Directive             `json:"restructuring_actions"`
	Errors               []EvaluationError       `json:"errors"`
	Warnings             []string                `json:"warnings"`
}

// NewSnapshotPayload assembles the run output. Nil slices become empty so
// the encoded form never mixes null and [].
func NewSnapshotPayload(mv ModelVersion, b *ScoreBreakdown, state StateDefinition, directives []Directive) SnapshotPayload {
	p := SnapshotPayload{
		ModelVersion:        ModelVersionRef{ID: mv.ID, Name: mv.Name, TenantID: mv.TenantID},
		RuleCount:           b.RuleCount,
		TotalRuleCount:      b.TotalRuleCount,
		TriggeredRuleCount:  b.TriggeredRuleCount,
		ConditionsEvaluated: b.ConditionsEvaluated,
		State:               state.Name,
		StateRank:           state.Rank,
		Contributions:       b.Contributions,
		RuleResults:         b.RuleResults,
		ScoreBreakdown: ScoreSummary{
			WeightedInputScore:       b.WeightedInputScore,
			RuleImpactScore:          b.RuleImpactScore,
			TotalScore:               b.TotalScore,
			CoefficientContributions: b.CoefficientContributions,
		},
		RestructuringActions: directives,
		Errors:               b.Errors,
		Warnings:             b.Warnings,
	}
	if p.Contributions == nil {
		p.Contributions = []ConditionContribution{}
	}
	if p.RuleResults == nil {
		p.RuleResults = []RuleResult{}
	}
	if p.ScoreBreakdown.CoefficientContributions == nil {
		p.ScoreBreakdown.CoefficientContributions = []CoefficientContribution{}
	}
	if p.RestructuringActions == nil {
		p.RestructuringActions = []Directive{}
	}
	if p.Errors == nil {
		p.Errors = []EvaluationError{}
	}
	if p.Warnings == nil {
		p.Warnings = []string{}
	}
	return p
}

// Snapshot is the immutable, versioned output of one run within a session.
type Snapshot struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"snapshot"`
}

// SnapshotEvent is one entry of a session's snapshot history.
type SnapshotEvent struct {
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	Snapshot  json.RawMessage `json:"snapshot"`
}

// SnapshotHistory is the append-only snapshot history of a session,
// ordered by version ascending.
type SnapshotHistory struct {
	SessionID string          `json:"session_id"`
	Version   int             `json:"version"`
	Latest    json.RawMessage `json:"latest"`
	History   []SnapshotEvent `json:"history"`
}

// ActionEngineRun is the audit action recorded for every engine run.
const ActionEngineRun = "ENGINE_RUN"

// AuditLogEntry is the immutable record of one engine invocation.
type AuditLogEntry struct {
	ID              string             `json:"id"`
	TenantID        string             `json:"tenant_id"`
	SessionID       string             `json:"session_id,omitempty"`
	ModelVersionID  string             `json:"model_version_id"`
	Actor           string             `json:"actor"`
	Action          string             `json:"action"`
	Input           map[string]float64 `json:"input"`
	InputHash       string             `json:"input_hash"`
	Payload         json.RawMessage    `json:"payload"`
	SnapshotVersion int                `json:"snapshot_version,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// PersistRequest carries one run's output to the persister.
type PersistRequest struct {
	TenantID       string
	SessionID      string
	ModelVersionID string
	Actor          string
	Input          map[string]float64
	Payload        SnapshotPayload
}

// PersistResult identifies what Persist wrote. SnapshotVersion is zero when
// the run had no session.
type PersistResult struct {
	SnapshotVersion int       `json:"snapshot_version"`
	SnapshotID      string    `json:"snapshot_id,omitempty"`
	AuditLogID      string    `json:"audit_log_id"`
	CreatedAt       time.Time `json:"created_at"`
}
