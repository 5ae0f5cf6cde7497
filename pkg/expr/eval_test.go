package expr

import (
	"errors"
	"math"
	"testing"
)

func TestEvaluate_Arithmetic(t *testing.T) {
	bindings := map[string]float64{
		"revenue":        1000,
		"cost":           300,
		"margin":         0.12,
		"technical_debt": 60,
	}

	tests := []struct {
		name string
		expr string
		want float64
	}{
		{"subtraction", "revenue - cost", 700},
		{"precedence", "2 + 3 * 4", 14},
		{"parentheses", "(2 + 3) * 4", 20},
		{"left associative minus", "10 - 4 - 3", 3},
		{"left associative divide", "100 / 10 / 5", 2},
		{"unary minus", "-cost + 100", -200},
		{"double unary", "--5", 5},
		{"unary plus", "+revenue", 1000},
		{"floored modulo", "-7 % 3", 2},
		{"modulo negative divisor", "7 % -3", -2},
		{"exponent literal", "2e3 + .5", 2000.5},
		{"composite stress", "(cost * 0.04) + (technical_debt * 0.06) - (margin * 0.15)", 12 + 3.6 - 0.018},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Evaluate(tt.expr, bindings)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if v.IsBool() {
				t.Fatalf("Evaluate(%q) returned boolean %v", tt.expr, v)
			}
			if math.Abs(v.Num()-tt.want) > 1e-9 {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, v.Num(), tt.want)
			}
		})
	}
}

func TestEvaluate_Boolean(t *testing.T) {
	bindings := map[string]float64{"revenue": 1400, "cost": 255, "margin": 0.1, "technical_debt": 60}

	tests := []struct {
		expr string
		want bool
	}{
		{"cost > 220", true},
		{"cost >= 255", true},
		{"cost < 255", false},
		{"cost <= 255", true},
		{"cost == 255", true},
		{"cost != 255", false},
		{"(margin < 0.15) and (technical_debt > 55)", true},
		{"margin < 0.15 and technical_debt > 70", false},
		{"revenue < 900 or cost > 220", true},
		{"not cost > 220", false},
		{"not not true", true},
		{"cost > (revenue * 0.78)", false},
		{"(cost > 1) == true", true},
		{"true != false", true},
		{"false or true and false", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, err := Evaluate(tt.expr, bindings)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if !v.IsBool() {
				t.Fatalf("Evaluate(%q) returned number %v", tt.expr, v)
			}
			if v.Truth() != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, v.Truth(), tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	bindings := map[string]float64{"revenue": 1000, "cost": 300}

	tests := []struct {
		name     string
		expr     string
		wantCode string
	}{
		{"empty", "   ", CodeEmptyExpression},
		{"division by zero", "revenue / 0", CodeDivisionByZero},
		{"modulo by zero", "revenue % (cost - 300)", CodeDivisionByZero},
		{"unknown identifier", "profit > 1", "missing_variable:profit"},
		{"boolean in arithmetic", "(cost > 1) + 1", CodeTypeMismatch},
		{"number in and", "revenue and cost", CodeTypeMismatch},
		{"not on number", "not revenue", CodeTypeMismatch},
		{"mixed equality", "revenue == true", CodeTypeMismatch},
		{"negate boolean", "-(cost > 1)", CodeTypeMismatch},
		{"overflow", "1e308 * 10", CodeNonFinite},
		{"function call", "abs(cost)", CodeInvalidSyntax},
		{"attribute access", "revenue.real", CodeInvalidSyntax},
		{"assignment", "cost = 1", CodeInvalidSyntax},
		{"chained comparison", "1 < cost < 500", CodeInvalidSyntax},
		{"unbalanced", "(cost + 1", CodeInvalidSyntax},
		{"trailing operator", "cost +", CodeInvalidSyntax},
		{"stray character", "cost $ 1", CodeInvalidSyntax},
		{"python power", "cost ** 2", CodeInvalidSyntax},
		{"bang", "!true", CodeInvalidSyntax},
		{"malformed exponent", "1e+", CodeInvalidSyntax},
		{"identifier glued to number", "2cost", CodeInvalidSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.expr, bindings)
			if err == nil {
				t.Fatalf("Evaluate(%q) expected error", tt.expr)
			}
			if got := Code(err); got != tt.wantCode {
				t.Errorf("Code(%v) = %q, want %q", err, got, tt.wantCode)
			}
		})
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	// The unknown identifier on the right is never reached.
	v, err := Evaluate("false and missing > 1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Truth() {
		t.Error("expected false")
	}

	v, err = Evaluate("true or missing > 1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Truth() {
		t.Error("expected true")
	}
}

func TestEvaluate_DoesNotMutateBindings(t *testing.T) {
	bindings := map[string]float64{"cost": 1}
	if _, err := Evaluate("cost / 0", bindings); err == nil {
		t.Fatal("expected division error")
	}
	if len(bindings) != 1 || bindings["cost"] != 1 {
		t.Errorf("bindings changed: %v", bindings)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	prog, err := Compile("(revenue * 0.08) + (cost * -0.05) + (margin * 0.4) - revenue / 3")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	bindings := map[string]float64{"revenue": 1234.567, "cost": 987.654, "margin": 0.137}

	first, err := prog.EvalNumber(bindings)
	if err != nil {
		t.Fatalf("EvalNumber() error = %v", err)
	}
	for i := 0; i < 100; i++ {
		got, _ := prog.EvalNumber(bindings)
		if math.Float64bits(got) != math.Float64bits(first) {
			t.Fatalf("iteration %d: %v != %v", i, got, first)
		}
	}
}

func TestProgram_EvalKinds(t *testing.T) {
	prog, _ := Compile("cost > 1")
	if _, err := prog.EvalNumber(map[string]float64{"cost": 2}); err == nil {
		t.Error("EvalNumber on a comparison should fail")
	} else {
		var tm *TypeMismatchError
		if !errors.As(err, &tm) || tm.Expected != KindNumber {
			t.Errorf("expected number TypeMismatchError, got %v", err)
		}
	}

	prog, _ = Compile("cost + 1")
	if _, err := prog.EvalBool(map[string]float64{"cost": 2}); err == nil {
		t.Error("EvalBool on arithmetic should fail")
	}
}

func TestCompile_Limits(t *testing.T) {
	deep := ""
	for i := 0; i < MaxDepth+1; i++ {
		deep += "("
	}
	deep += "1"
	for i := 0; i < MaxDepth+1; i++ {
		deep += ")"
	}
	if _, err := Compile(deep); Code(err) != CodeInvalidSyntax {
		t.Errorf("deep nesting: got %v, want syntax error", err)
	}

	long := "1"
	for len(long) <= MaxExpressionLength {
		long += " + 1"
	}
	if _, err := Compile(long); Code(err) != CodeInvalidSyntax {
		t.Errorf("long expression: got %v, want syntax error", err)
	}
}

func TestProgram_IdentifiersAndString(t *testing.T) {
	prog, err := Compile("cost > (revenue * 0.78) and cost > 1")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	ids := prog.Identifiers()
	if len(ids) != 2 || ids[0] != "cost" || ids[1] != "revenue" {
		t.Errorf("Identifiers() = %v", ids)
	}
	if got, want := prog.String(), "((cost > (revenue * 0.78)) and (cost > 1))"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("unknown_metric > 3"); err != nil {
		t.Errorf("Validate should not resolve identifiers: %v", err)
	}
	if err := Validate("1 +"); err == nil {
		t.Error("Validate should reject incomplete expressions")
	}
}
