package scoring

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"strategos-hq/riskengine/internal/fixtures"
	"strategos-hq/riskengine/pkg/model"
)

func newTestEngine(t *testing.T, parallelism int) *Engine {
	t.Helper()
	e, err := New(&Config{Parallelism: parallelism, ProgramCacheSize: 64}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func approx(a, b float64) bool { return math.Abs(a-b) <= model.FloatTolerance }

func TestRun_ExampleScenarios(t *testing.T) {
	tests := []struct {
		name         string
		input        map[string]float64
		wantWeighted float64
		wantTotal    float64
	}{
		{"high revenue", map[string]float64{"revenue": 1400, "cost": 255}, 8.9, 20.9},
		{"low revenue", map[string]float64{"revenue": 640, "cost": 335}, -0.3, 11.7},
	}

	e := newTestEngine(t, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := e.Run(fixtures.Example(), tt.input)

			if !approx(b.WeightedInputScore, tt.wantWeighted) {
				t.Errorf("WeightedInputScore = %v, want %v", b.WeightedInputScore, tt.wantWeighted)
			}
			if !approx(b.RuleImpactScore, 12) {
				t.Errorf("RuleImpactScore = %v, want 12", b.RuleImpactScore)
			}
			if !approx(b.TotalScore, tt.wantTotal) {
				t.Errorf("TotalScore = %v, want %v", b.TotalScore, tt.wantTotal)
			}
			if b.RuleCount != 1 || b.TriggeredRuleCount != 1 || b.ConditionsEvaluated != 1 {
				t.Errorf("counts = %d/%d/%d, want 1/1/1", b.RuleCount, b.TriggeredRuleCount, b.ConditionsEvaluated)
			}
			if len(b.Contributions) != 1 || !b.Contributions[0].Result || b.Contributions[0].Expression != "cost > 220" {
				t.Errorf("Contributions = %+v", b.Contributions)
			}
			if len(b.Errors) != 0 {
				t.Errorf("Errors = %+v", b.Errors)
			}
		})
	}
}

func TestRun_FormulaCoefficient(t *testing.T) {
	cfg := fixtures.NewBuilder("mv", "formula").Formula("spread", "revenue - cost").Build()
	b := newTestEngine(t, 1).Run(cfg, map[string]float64{"revenue": 1000, "cost": 300})

	if len(b.CoefficientContributions) != 1 {
		t.Fatalf("got %d coefficient contributions", len(b.CoefficientContributions))
	}
	c := b.CoefficientContributions[0]
	if c.Contribution != 700 || c.Error != nil || c.Formula == nil || *c.Formula != "revenue - cost" {
		t.Errorf("contribution = %+v", c)
	}
	if c.Input != nil || c.Coefficient != nil {
		t.Errorf("formula contribution should not carry input/coefficient: %+v", c)
	}
}

func TestRun_DivisionByZeroIsRecorded(t *testing.T) {
	cfg := fixtures.NewBuilder("mv", "div").
		Formula("broken", "revenue / 0").
		Scalar("cost", 1).
		Build()
	b := newTestEngine(t, 1).Run(cfg, map[string]float64{"revenue": 1000, "cost": 5})

	broken := b.CoefficientContributions[0]
	if broken.Contribution != 0 || broken.Error == nil || *broken.Error != "division_by_zero" {
		t.Errorf("broken contribution = %+v", broken)
	}
	if b.WeightedInputScore != 5 {
		t.Errorf("WeightedInputScore = %v, want 5 (run continues)", b.WeightedInputScore)
	}
	if len(b.Errors) != 1 || b.Errors[0].Source != SourceCoefficient || b.Errors[0].Name != "broken" {
		t.Errorf("Errors = %+v", b.Errors)
	}
}

func TestRun_ConditionErrorDoesNotTrigger(t *testing.T) {
	cfg := fixtures.NewBuilder("mv", "cond-error").
		Rule("uses_unknown", []string{"profit > 1"}, 50).
		Rule("mixed", []string{"cost +", "cost > 1"}, 7).
		Build()
	b := newTestEngine(t, 1).Run(cfg, map[string]float64{"cost": 10})

	if b.TriggeredRuleCount != 1 || b.RuleImpactScore != 7 {
		t.Errorf("triggered=%d impact=%v, want 1 and 7", b.TriggeredRuleCount, b.RuleImpactScore)
	}
	if b.Contributions[0].Error != "missing_variable:profit" || b.Contributions[0].Result {
		t.Errorf("first contribution = %+v", b.Contributions[0])
	}
	if b.Contributions[1].Error != "invalid_syntax" {
		t.Errorf("second contribution = %+v", b.Contributions[1])
	}
	if len(b.Errors) != 2 {
		t.Errorf("Errors = %+v, want 2 entries", b.Errors)
	}
}

func TestRun_VacuousRule(t *testing.T) {
	cfg := fixtures.NewBuilder("mv", "vacuous").
		Rule("no_conditions", nil, 40).
		Rule("inactive_conditions", []string{"true"}, 25).
		Build()
	cfg.Rules[1].Conditions[0].IsActive = false

	for _, input := range []map[string]float64{nil, {"cost": 1e6}} {
		b := newTestEngine(t, 1).Run(cfg, input)
		if b.TriggeredRuleCount != 0 || b.RuleImpactScore != 0 || b.TotalScore != 0 {
			t.Errorf("input %v: triggered=%d impact=%v total=%v", input, b.TriggeredRuleCount, b.RuleImpactScore, b.TotalScore)
		}
		if b.ConditionsEvaluated != 0 {
			t.Errorf("ConditionsEvaluated = %d, want 0", b.ConditionsEvaluated)
		}
	}
}

func TestRun_InactiveItemsExcluded(t *testing.T) {
	cfg := fixtures.Example()
	cfg.Rules[0].IsActive = false
	cfg.Coefficients[1].IsActive = false

	b := newTestEngine(t, 1).Run(cfg, map[string]float64{"revenue": 1400, "cost": 255})
	if b.RuleCount != 0 || b.TotalRuleCount != 1 {
		t.Errorf("RuleCount=%d TotalRuleCount=%d, want 0/1", b.RuleCount, b.TotalRuleCount)
	}
	if len(b.CoefficientContributions) != 1 || !approx(b.TotalScore, 14) {
		t.Errorf("TotalScore = %v, contributions = %d", b.TotalScore, len(b.CoefficientContributions))
	}
}

func TestRun_MissingScalarInputWarns(t *testing.T) {
	b := newTestEngine(t, 1).Run(fixtures.Example(), map[string]float64{"cost": 100})

	rev := b.CoefficientContributions[0]
	if rev.Contribution != 0 || rev.Input != nil || rev.Error != nil || rev.Warning != "missing_input:revenue" {
		t.Errorf("revenue contribution = %+v", rev)
	}
	if len(b.Warnings) != 1 || len(b.Errors) != 0 {
		t.Errorf("Warnings=%v Errors=%v", b.Warnings, b.Errors)
	}
}

func TestRun_ImpactsAndRuleImpactBinding(t *testing.T) {
	cfg := fixtures.NewBuilder("mv", "impacts").
		Rule("stress", []string{"cost > 100"}, 5, 2.5).
		FormulaImpact("cost / 100").
		Formula("amplified", "rule_impact_score * 2").
		Build()

	b := newTestEngine(t, 1).Run(cfg, map[string]float64{"cost": 300})
	if !approx(b.RuleImpactScore, 10.5) {
		t.Errorf("RuleImpactScore = %v, want 10.5", b.RuleImpactScore)
	}
	if !approx(b.WeightedInputScore, 21) || !approx(b.TotalScore, 31.5) {
		t.Errorf("weighted=%v total=%v, want 21 and 31.5", b.WeightedInputScore, b.TotalScore)
	}
	if got := len(b.RuleResults[0].Impacts); got != 3 {
		t.Errorf("rule impacts recorded = %d, want 3", got)
	}
}

func TestRun_UntriggeredRuleImpactsNotEvaluated(t *testing.T) {
	cfg := fixtures.NewBuilder("mv", "lazy").
		Rule("quiet", []string{"cost > 1000"}).
		FormulaImpact("cost / 0").
		Build()

	b := newTestEngine(t, 1).Run(cfg, map[string]float64{"cost": 1})
	if len(b.Errors) != 0 || len(b.RuleResults[0].Impacts) != 0 {
		t.Errorf("impacts of an untriggered rule were evaluated: %+v", b.RuleResults[0])
	}
}

func TestRun_MetricWeightFallback(t *testing.T) {
	cfg := fixtures.NewBuilder("mv", "metrics").
		Metric("revenue", fixtures.Float(0.5)).
		Metric("cost", fixtures.Float(3)).
		Scalar("cost", -1).
		Build()

	b := newTestEngine(t, 1).Run(cfg, map[string]float64{"revenue": 10, "cost": 2})
	// cost uses its coefficient (-2), revenue uses the metric weight (5).
	if !approx(b.WeightedInputScore, 3) {
		t.Errorf("WeightedInputScore = %v, want 3", b.WeightedInputScore)
	}
	if len(b.CoefficientContributions) != 2 || b.CoefficientContributions[1].Name != "revenue" {
		t.Errorf("CoefficientContributions = %+v", b.CoefficientContributions)
	}
}

func TestRun_Baseline(t *testing.T) {
	input := map[string]float64{"revenue": 800, "cost": 700, "margin": 0.10, "technical_debt": 80}
	b := newTestEngine(t, 1).Run(fixtures.Baseline(), input)

	if b.TriggeredRuleCount != 7 || !approx(b.RuleImpactScore, 220) {
		t.Errorf("triggered=%d impact=%v, want 7 and 220", b.TriggeredRuleCount, b.RuleImpactScore)
	}
	if !approx(b.WeightedInputScore, 6.1825) {
		t.Errorf("WeightedInputScore = %v, want 6.1825", b.WeightedInputScore)
	}
	if !approx(b.TotalScore, 226.1825) {
		t.Errorf("TotalScore = %v, want 226.1825", b.TotalScore)
	}
}

func TestRun_DeterministicAcrossParallelism(t *testing.T) {
	cfg := fixtures.Baseline()
	input := map[string]float64{"revenue": 812.37, "cost": 640.11, "margin": 0.137, "technical_debt": 61.9}

	reference, err := json.Marshal(newTestEngine(t, 1).Run(cfg, input))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	parallel := newTestEngine(t, 8)
	for i := 0; i < 50; i++ {
		got, _ := json.Marshal(parallel.Run(cfg, input))
		if !bytes.Equal(got, reference) {
			t.Fatalf("iteration %d: breakdown differs\n got: %s\nwant: %s", i, got, reference)
		}
	}
}

func TestRun_DoesNotMutateConfigOrInput(t *testing.T) {
	cfg := fixtures.Baseline()
	input := map[string]float64{"revenue": 800, "cost": 700}

	before, _ := json.Marshal(cfg)
	inputBefore := model.CloneInput(input)

	newTestEngine(t, 4).Run(cfg, input)

	after, _ := json.Marshal(cfg)
	if !bytes.Equal(before, after) {
		t.Error("Run mutated the resolved config")
	}
	if !reflect.DeepEqual(input, inputBefore) {
		t.Errorf("Run mutated the input: %v", input)
	}
}

func TestRun_ProgramCacheReused(t *testing.T) {
	e := newTestEngine(t, 1)
	cfg := fixtures.Baseline()
	e.Run(cfg, map[string]float64{"cost": 1})
	n := e.cache.len()
	e.Run(cfg, map[string]float64{"cost": 2})
	if e.cache.len() != n || n == 0 {
		t.Errorf("cache size %d after second run, want %d", e.cache.len(), n)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if _, err := New(&Config{Parallelism: 0}, nil); err == nil {
		t.Error("expected error for zero parallelism")
	}
	if _, err := New(&Config{Parallelism: 1, ProgramCacheSize: -1}, nil); err == nil {
		t.Error("expected error for negative cache size")
	}
}
