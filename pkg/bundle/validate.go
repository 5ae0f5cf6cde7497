package bundle

import (
	"fmt"
	"strings"

	"strategos-hq/riskengine/pkg/config"
	"strategos-hq/riskengine/pkg/expr"
	"strategos-hq/riskengine/pkg/model"
)

// ValidationError lists every problem found in a bundle.
type ValidationError struct {
	Errors []config.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "bundle validation failed: " + e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "bundle validation failed with %d errors:\n", len(e.Errors))
	for _, fe := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", fe.Error())
	}
	return sb.String()
}

type validator struct {
	errs []config.FieldError
}

func (v *validator) add(field, format string, args ...any) {
	v.errs = append(v.errs, config.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) expression(field, source string) {
	if strings.TrimSpace(source) == "" {
		v.add(field, "expression is required")
		return
	}
	if err := expr.Validate(source); err != nil {
		v.add(field, "%v", err)
	}
}

// unique reports a duplicate name under field and records name in seen.
func (v *validator) unique(field, name string, seen map[string]bool) {
	if seen[name] {
		v.add(field, "duplicate name %q", name)
	}
	seen[name] = true
}

// Validate checks a bundle before anything is written: names, modes,
// expressions, comparators, the single critical state, template payloads
// and bindings. All problems are reported together.
func Validate(b *Bundle) error {
	v := &validator{}

	if strings.TrimSpace(b.ModelVersion.Name) == "" {
		v.add("model_version.name", "is required")
	}

	seen := map[string]bool{}
	for i, m := range b.Metrics {
		field := fmt.Sprintf("metrics[%d].name", i)
		if !model.IsIdentifier(m.Name) {
			v.add(field, "%q is not a valid identifier", m.Name)
		}
		v.unique(field, m.Name, seen)
	}

	seen = map[string]bool{}
	for i, c := range b.Coefficients {
		prefix := fmt.Sprintf("coefficients[%d]", i)
		v.unique(prefix+".name", c.Name, seen)
		switch c.Mode {
		case model.ModeScalar:
			if !model.IsIdentifier(c.Name) {
				v.add(prefix+".name", "scalar coefficient %q must name an input", c.Name)
			}
		case model.ModeFormula:
			if c.Name == "" {
				v.add(prefix+".name", "is required")
			}
			v.expression(prefix+".formula", c.Formula)
		default:
			v.add(prefix+".mode", "unknown mode %q", c.Mode)
		}
	}

	seen = map[string]bool{}
	for i, r := range b.Rules {
		prefix := fmt.Sprintf("rules[%d]", i)
		if r.Name == "" {
			v.add(prefix+".name", "is required")
		}
		v.unique(prefix+".name", r.Name, seen)
		for j, c := range r.Conditions {
			v.expression(fmt.Sprintf("%s.conditions[%d]", prefix, j), c)
		}
		for j, im := range r.Impacts {
			field := fmt.Sprintf("%s.impacts[%d]", prefix, j)
			switch im.Mode {
			case model.ModeScalar:
			case model.ModeFormula:
				v.expression(field+".formula", im.Formula)
			default:
				v.add(field+".mode", "unknown mode %q", im.Mode)
			}
		}
	}

	states := map[string]bool{}
	critical := 0
	if len(b.States) == 0 {
		v.add("states", "at least one state is required")
	}
	for i, s := range b.States {
		prefix := fmt.Sprintf("states[%d]", i)
		if s.Name == "" {
			v.add(prefix+".name", "is required")
		}
		v.unique(prefix+".name", s.Name, states)
		if s.IsCritical {
			critical++
		}
		for j, th := range s.Thresholds {
			if th.Comparator != "" && !th.Comparator.Valid() {
				v.add(fmt.Sprintf("%s.thresholds[%d].comparator", prefix, j), "unsupported comparator %q", th.Comparator)
			}
		}
	}
	if critical > 1 {
		v.add("states", "at most one state may be critical, found %d", critical)
	}

	templates := map[string]bool{}
	for i := range b.Templates {
		t := &b.Templates[i]
		prefix := fmt.Sprintf("templates[%d]", i)
		if t.Name == "" {
			v.add(prefix+".name", "is required")
		}
		v.unique(prefix+".name", t.Name, templates)
		if _, err := t.PayloadJSON(); err != nil {
			v.add(prefix+".payload", "%v", err)
		}
	}

	for i, rr := range b.Restructuring {
		prefix := fmt.Sprintf("restructuring[%d]", i)
		if !templates[rr.Template] {
			v.add(prefix+".template", "unknown template %q", rr.Template)
		}
		switch {
		case rr.State != "" && !states[rr.State]:
			v.add(prefix+".state", "unknown state %q", rr.State)
		case rr.State == "" && critical == 0:
			v.add(prefix+".state", "unbound rule needs a critical state")
		}
	}

	if len(v.errs) > 0 {
		return &ValidationError{Errors: v.errs}
	}
	return nil
}
