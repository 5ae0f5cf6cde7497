package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
	"time"

	"strategos-hq/riskengine/internal/fixtures"
	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/pipeline"
	"strategos-hq/riskengine/pkg/restructuring"
	"strategos-hq/riskengine/pkg/scoring"
	"strategos-hq/riskengine/pkg/store"
)

const tenant = "tenant-a"

func createTempStore(t *testing.T) *store.Store {
	t.Helper()

	cfg := store.DefaultConfig()
	cfg.DSN = filepath.Join(t.TempDir(), "bundle.db")
	cfg.RetryBackoff = time.Millisecond

	s, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

// assertJSON compares two JSON documents structurally.
func assertJSON(t *testing.T, got []byte, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("invalid JSON %s: %v", got, err)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("invalid expected JSON %s: %v", want, err)
	}
	if !reflect.DeepEqual(g, w) {
		t.Errorf("JSON = %s, want %s", got, want)
	}
}

func TestBaseline_IsValid(t *testing.T) {
	b := Baseline()

	if err := Validate(b); err != nil {
		t.Fatalf("Validate(Baseline()) error = %v", err)
	}
	if b.ModelVersion.Name != "deterministic-baseline" || !b.ModelVersion.Activate {
		t.Errorf("ModelVersion = %+v", b.ModelVersion)
	}
	counts := []int{len(b.Metrics), len(b.Coefficients), len(b.Rules), len(b.States), len(b.Templates), len(b.Restructuring)}
	if want := []int{4, 4, 7, 3, 2, 2}; !reflect.DeepEqual(counts, want) {
		t.Errorf("section sizes = %v, want %v", counts, want)
	}

	payload, err := b.Templates[0].PayloadJSON()
	if err != nil {
		t.Fatalf("PayloadJSON() error = %v", err)
	}
	assertJSON(t, payload, `{"action":"rationalize_portfolio","owner":"Transformation Office","horizon_days":90}`)
}

func TestApply_BaselineMatchesFixture(t *testing.T) {
	ctx := context.Background()
	s := createTempStore(t)

	mv, err := Apply(ctx, s, tenant, Baseline())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !mv.IsActive {
		t.Error("applied baseline is not active")
	}

	cfg, err := s.Load(ctx, tenant, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ModelVersion.ID != mv.ID {
		t.Errorf("active version = %s, want %s", cfg.ModelVersion.ID, mv.ID)
	}

	engine, err := scoring.New(scoring.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("scoring.New() error = %v", err)
	}
	ev := pipeline.NewEvaluator(engine)

	tests := []struct {
		input map[string]float64
		state string
	}{
		{map[string]float64{"revenue": 2500, "cost": 100, "margin": 0.45, "technical_debt": 5}, "NORMAL"},
		{map[string]float64{"revenue": 1200, "cost": 150, "margin": 0.35, "technical_debt": 20}, "NORMAL"},
		{map[string]float64{"revenue": 950, "cost": 200, "margin": 0.16, "technical_debt": 60}, "ELEVATED_RISK"},
		{map[string]float64{"revenue": 850, "cost": 700, "margin": 0.1, "technical_debt": 80}, "CRITICAL_ZONE"},
		{map[string]float64{"revenue": 700, "cost": 650, "margin": 0.05, "technical_debt": 90}, "CRITICAL_ZONE"},
	}
	for _, tt := range tests {
		fromStore, err := ev.Evaluate(cfg, tt.input)
		if err != nil {
			t.Fatalf("Evaluate(stored) error = %v", err)
		}
		fromFixture, err := ev.Evaluate(fixtures.Baseline(), tt.input)
		if err != nil {
			t.Fatalf("Evaluate(fixture) error = %v", err)
		}

		if fromStore.State != tt.state {
			t.Errorf("%v: State = %s, want %s", tt.input, fromStore.State, tt.state)
		}
		if math.Abs(fromFixture.ScoreBreakdown.TotalScore-fromStore.ScoreBreakdown.TotalScore) > model.FloatTolerance {
			t.Errorf("%v: TotalScore = %v, fixture %v", tt.input, fromStore.ScoreBreakdown.TotalScore, fromFixture.ScoreBreakdown.TotalScore)
		}
		if fromFixture.State != fromStore.State || fromFixture.TriggeredRuleCount != fromStore.TriggeredRuleCount ||
			len(fromFixture.RestructuringActions) != len(fromStore.RestructuringActions) {
			t.Errorf("%v: stored model diverges from fixture: %+v vs %+v", tt.input, fromStore, fromFixture)
		}
	}
}

func TestApply_UnboundRuleGoesToCriticalState(t *testing.T) {
	ctx := context.Background()
	s := createTempStore(t)

	b, err := Parse([]byte(`
model_version: {name: unbound, activate: true}
states:
  - {name: OK, rank: 0}
  - {name: BAD, rank: 1, is_critical: true, thresholds: [{value: 10, comparator: ">"}]}
templates:
  - name: escalate
    payload: '{"action": "escalate"}'
restructuring:
  - template: escalate
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := Apply(ctx, s, tenant, b); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	cfg, err := s.Load(ctx, tenant, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.RestructuringRules) != 1 || cfg.RestructuringRules[0].StateDefinitionID != "" {
		t.Fatalf("RestructuringRules = %+v, want one unbound rule", cfg.RestructuringRules)
	}

	critical, ok := cfg.CriticalState()
	if !ok {
		t.Fatal("no critical state")
	}
	if critical.Thresholds[0].Comparator != model.ComparatorGT {
		t.Errorf("comparator = %s, want >", critical.Thresholds[0].Comparator)
	}

	directives := restructuring.ForConfig(cfg, critical)
	if len(directives) != 1 || directives[0].TemplateName != "escalate" {
		t.Fatalf("directives = %+v, want escalate", directives)
	}
	assertJSON(t, directives[0].Payload, `{"action":"escalate"}`)
}

func TestApply_InvalidBundleWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := createTempStore(t)

	b := Baseline()
	b.Rules[0].Conditions = []string{"cost >"}

	_, err := Apply(ctx, s, tenant, b)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Apply() error = %v, want *ValidationError", err)
	}

	versions, err := s.ListModelVersions(ctx, tenant)
	if err != nil {
		t.Fatalf("ListModelVersions() error = %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("versions = %d, want 0", len(versions))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Bundle)
		field  string
	}{
		{"missing name", func(b *Bundle) { b.ModelVersion.Name = "" }, "model_version.name"},
		{"bad metric name", func(b *Bundle) { b.Metrics[0].Name = "net revenue" }, "metrics[0].name"},
		{"duplicate metric", func(b *Bundle) { b.Metrics[1].Name = "revenue" }, "metrics[1].name"},
		{"unknown coefficient mode", func(b *Bundle) { b.Coefficients[0].Mode = "log" }, "coefficients[0].mode"},
		{"bad formula", func(b *Bundle) { b.Coefficients[3].Formula = "(cost * " }, "coefficients[3].formula"},
		{"empty condition", func(b *Bundle) { b.Rules[1].Conditions = []string{" "} }, "rules[1].conditions[0]"},
		{"bad impact formula", func(b *Bundle) {
			b.Rules[0].Impacts = []store.NewImpact{{Mode: model.ModeFormula, Formula: "1 +"}}
		}, "rules[0].impacts[0].formula"},
		{"no states", func(b *Bundle) { b.States = nil; b.Restructuring = nil }, "states"},
		{"two critical states", func(b *Bundle) { b.States[1].IsCritical = true }, "states"},
		{"bad comparator", func(b *Bundle) { b.States[0].Thresholds[0].Comparator = "<" }, "states[0].thresholds[0].comparator"},
		{"unknown template", func(b *Bundle) { b.Restructuring[0].Template = "nope" }, "restructuring[0].template"},
		{"unknown state", func(b *Bundle) { b.Restructuring[1].State = "NOPE" }, "restructuring[1].state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Baseline()
			tt.mutate(b)

			err := Validate(b)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}

			fields := make([]string, 0, len(verr.Errors))
			for _, fe := range verr.Errors {
				fields = append(fields, fe.Field)
			}
			if !slices.Contains(fields, tt.field) {
				t.Errorf("fields = %v, want %s", fields, tt.field)
			}
		})
	}
}

func TestTemplate_PayloadJSON(t *testing.T) {
	b, err := Parse([]byte(`
model_version: {name: payloads}
states: [{name: OK}]
templates:
  - name: mapping
    payload: {b: 1, a: [x, y]}
  - name: string
    payload: '{ "a" : 1 }'
  - name: broken
    payload: 'not json'
  - name: missing
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := b.Templates[0].PayloadJSON()
	if err != nil {
		t.Fatalf("mapping payload error = %v", err)
	}
	assertJSON(t, got, `{"a":["x","y"],"b":1}`)

	got, err = b.Templates[1].PayloadJSON()
	if err != nil {
		t.Fatalf("string payload error = %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("string payload = %s, want compact JSON", got)
	}

	if _, err := b.Templates[2].PayloadJSON(); err == nil {
		t.Error("non-JSON payload accepted")
	}
	if _, err := b.Templates[3].PayloadJSON(); err == nil {
		t.Error("missing payload accepted")
	}
}

func TestParse_Errors(t *testing.T) {
	inputs := map[string][]byte{
		"empty":           nil,
		"unknown section": []byte("model_version: {name: x}\nunknown_section: true\n"),
		"binary":          {0xff, 0xfe},
	}
	for name, in := range inputs {
		if _, err := Parse(in); err == nil {
			t.Errorf("%s: Parse() succeeded", name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "model.yaml")
	if err := os.WriteFile(path, baselineYAML, 0o600); err != nil {
		t.Fatal(err)
	}
	b, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if b.ModelVersion.Name != "deterministic-baseline" {
		t.Errorf("name = %s, want deterministic-baseline", b.ModelVersion.Name)
	}

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	var lerr *LoadError
	if !errors.As(err, &lerr) || lerr.Message != "file not found" {
		t.Fatalf("LoadFile(missing) error = %v, want file not found", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error %v does not wrap os.ErrNotExist", err)
	}

	_, err = LoadFile(dir)
	if !errors.As(err, &lerr) || lerr.Message != "not a regular file" {
		t.Errorf("LoadFile(dir) error = %v, want not a regular file", err)
	}
}
