package scoring

import (
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"strategos-hq/riskengine/pkg/expr"
	"strategos-hq/riskengine/pkg/model"
)

// Error sources recorded in model.EvaluationError.
const (
	SourceCondition   = "condition"
	SourceImpact      = "impact"
	SourceCoefficient = "coefficient"
)

// Codes produced by the engine itself rather than the expression evaluator.
const (
	CodeInvalidMode  = "invalid_mode"
	WarnMissingInput = "missing_input"
)

// Engine evaluates a resolved configuration against input vectors.
// An Engine holds no per-run state and is safe for concurrent use.
type Engine struct {
	config *Config
	cache  *programCache
	logger *slog.Logger
}

// New creates a scoring engine. A nil config uses DefaultConfig.
func New(config *Config, logger *slog.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		config: config,
		cache:  newProgramCache(config.ProgramCacheSize),
		logger: logger.With("component", "scoring.engine"),
	}, nil
}

type conditionTask struct {
	rule int
	cond model.RuleCondition
}

type conditionOutcome struct {
	result bool
	err    error
}

type impactTask struct {
	rule   int
	impact model.RuleImpact
}

type impactOutcome struct {
	record model.ImpactContribution
	err    string
}

type coefficientOutcome struct {
	record model.CoefficientContribution
	err    string
}

// Run scores input against cfg. cfg and input are only read. Run never
// fails: item-level problems are reported in the breakdown.
func (e *Engine) Run(cfg *model.ResolvedConfig, input map[string]float64) *model.ScoreBreakdown {
	bindings := model.CloneInput(input)
	breakdown := &model.ScoreBreakdown{
		TotalRuleCount:           len(cfg.Rules),
		Contributions:            []model.ConditionContribution{},
		RuleResults:              []model.RuleResult{},
		CoefficientContributions: []model.CoefficientContribution{},
		Errors:                   []model.EvaluationError{},
		Warnings:                 []string{},
	}

	rules := make([]model.Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		if r.IsActive {
			rules = append(rules, r)
		}
	}
	breakdown.RuleCount = len(rules)

	// Conditions.
	var conds []conditionTask
	for i, r := range rules {
		for _, c := range r.ActiveConditions() {
			conds = append(conds, conditionTask{rule: i, cond: c})
		}
	}
	condOut := make([]conditionOutcome, len(conds))
	e.forEach(len(conds), func(i int) {
		condOut[i] = e.evalCondition(conds[i].cond.Expression, bindings)
	})

	triggered := make([]bool, len(rules))
	for i, task := range conds {
		out := condOut[i]
		record := model.ConditionContribution{
			RuleID:      rules[task.rule].ID,
			ConditionID: task.cond.ID,
			Expression:  task.cond.Expression,
			Result:      out.result,
		}
		if out.err != nil {
			record.Result = false
			record.Error = expr.Code(out.err)
			breakdown.Errors = append(breakdown.Errors, model.EvaluationError{
				Source: SourceCondition,
				ID:     task.cond.ID,
				Name:   rules[task.rule].Name,
				Code:   record.Error,
			})
		} else if out.result {
			triggered[task.rule] = true
		}
		breakdown.Contributions = append(breakdown.Contributions, record)
	}
	breakdown.ConditionsEvaluated = len(conds)

	// Impacts of triggered rules.
	var impacts []impactTask
	for i, r := range rules {
		if !triggered[i] {
			continue
		}
		for _, im := range r.Impacts {
			if im.IsActive {
				impacts = append(impacts, impactTask{rule: i, impact: im})
			}
		}
	}
	impactOut := make([]impactOutcome, len(impacts))
	e.forEach(len(impacts), func(i int) {
		impactOut[i] = e.evalImpact(impacts[i].impact, bindings)
	})

	results := make([]model.RuleResult, len(rules))
	for i, r := range rules {
		results[i] = model.RuleResult{
			RuleID:    r.ID,
			Name:      r.Name,
			Triggered: triggered[i],
			Impacts:   []model.ImpactContribution{},
		}
	}
	for i, task := range impacts {
		out := impactOut[i]
		results[task.rule].Impacts = append(results[task.rule].Impacts, out.record)
		results[task.rule].Contribution += out.record.Contribution
		if out.err != "" {
			breakdown.Errors = append(breakdown.Errors, model.EvaluationError{
				Source: SourceImpact,
				ID:     task.impact.ID,
				Name:   rules[task.rule].Name,
				Code:   out.err,
			})
		}
	}

	var ruleImpactScore float64
	for i, res := range results {
		if triggered[i] {
			breakdown.TriggeredRuleCount++
			ruleImpactScore += res.Contribution
		}
	}
	breakdown.RuleResults = results
	breakdown.RuleImpactScore = ruleImpactScore

	// Coefficients, then implicit metric weights.
	coeffBindings := model.CloneInput(input)
	coeffBindings[model.RuleImpactBinding] = ruleImpactScore

	terms := make([]model.Coefficient, 0, len(cfg.Coefficients)+len(cfg.Metrics))
	named := make(map[string]bool)
	for _, c := range cfg.Coefficients {
		if c.IsActive {
			terms = append(terms, c)
			named[c.Name] = true
		}
	}
	for _, m := range cfg.Metrics {
		if m.IsActive && m.Weight != nil && !named[m.Name] {
			terms = append(terms, model.Coefficient{
				ID:       m.ID,
				Name:     m.Name,
				Mode:     model.ModeScalar,
				Weight:   *m.Weight,
				IsActive: true,
			})
		}
	}

	coeffOut := make([]coefficientOutcome, len(terms))
	e.forEach(len(terms), func(i int) {
		coeffOut[i] = e.evalCoefficient(terms[i], coeffBindings)
	})

	var weighted float64
	for i, out := range coeffOut {
		breakdown.CoefficientContributions = append(breakdown.CoefficientContributions, out.record)
		weighted += out.record.Contribution
		if out.record.Warning != "" {
			breakdown.Warnings = append(breakdown.Warnings, out.record.Warning)
		}
		if out.err != "" {
			breakdown.Errors = append(breakdown.Errors, model.EvaluationError{
				Source: SourceCoefficient,
				ID:     terms[i].ID,
				Name:   terms[i].Name,
				Code:   out.err,
			})
		}
	}
	breakdown.WeightedInputScore = weighted
	breakdown.TotalScore = weighted + ruleImpactScore

	e.logger.Debug("scoring run completed",
		"model_version_id", cfg.ModelVersion.ID,
		"rules", breakdown.RuleCount,
		"triggered", breakdown.TriggeredRuleCount,
		"conditions", breakdown.ConditionsEvaluated,
		"total_score", breakdown.TotalScore,
		"errors", len(breakdown.Errors),
	)

	return breakdown
}

func (e *Engine) evalCondition(source string, bindings map[string]float64) conditionOutcome {
	prog, err := e.cache.compile(source)
	if err != nil {
		return conditionOutcome{err: err}
	}
	ok, err := prog.EvalBool(bindings)
	return conditionOutcome{result: ok, err: err}
}

func (e *Engine) evalImpact(im model.RuleImpact, bindings map[string]float64) impactOutcome {
	record := model.ImpactContribution{ImpactID: im.ID, Mode: im.Mode}

	switch im.Mode {
	case model.ModeScalar:
		v := im.Value
		record.Value = &v
		record.Contribution = v
		return impactOutcome{record: record}
	case model.ModeFormula:
		f := im.Formula
		record.Formula = &f
		v, err := e.evalFormula(f, bindings)
		if err != nil {
			record.Error = expr.Code(err)
			return impactOutcome{record: record, err: record.Error}
		}
		record.Contribution = v
		return impactOutcome{record: record}
	}

	record.Error = CodeInvalidMode
	return impactOutcome{record: record, err: CodeInvalidMode}
}

func (e *Engine) evalCoefficient(c model.Coefficient, bindings map[string]float64) coefficientOutcome {
	record := model.CoefficientContribution{Name: c.Name, Mode: c.Mode}

	switch c.Mode {
	case model.ModeScalar:
		w := c.Weight
		record.Coefficient = &w
		v, ok := bindings[c.Name]
		if !ok {
			record.Warning = WarnMissingInput + ":" + c.Name
			return coefficientOutcome{record: record}
		}
		record.Input = &v
		product := v * w
		if math.IsInf(product, 0) || math.IsNaN(product) {
			code := expr.CodeNonFinite
			record.Error = &code
			return coefficientOutcome{record: record, err: code}
		}
		record.Contribution = product
		return coefficientOutcome{record: record}
	case model.ModeFormula:
		f := c.Formula
		record.Formula = &f
		v, err := e.evalFormula(f, bindings)
		if err != nil {
			code := expr.Code(err)
			record.Error = &code
			return coefficientOutcome{record: record, err: code}
		}
		record.Contribution = v
		return coefficientOutcome{record: record}
	}

	code := CodeInvalidMode
	record.Error = &code
	return coefficientOutcome{record: record, err: code}
}

func (e *Engine) evalFormula(source string, bindings map[string]float64) (float64, error) {
	prog, err := e.cache.compile(source)
	if err != nil {
		return 0, err
	}
	return prog.EvalNumber(bindings)
}

// forEach calls fn for 0..n-1, on up to Parallelism goroutines.
func (e *Engine) forEach(n int, fn func(i int)) {
	if e.config.Parallelism <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(e.config.Parallelism)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
