package expr

import "strconv"

// Kind is the runtime type of a Value.
type Kind int

const (
	// KindNumber is a float64 value.
	KindNumber Kind = iota
	// KindBool is a boolean value.
	KindBool
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindBool {
		return "boolean"
	}
	return "number"
}

// Value is the result of evaluating an expression: either a number or a boolean.
type Value struct {
	kind Kind
	num  float64
	b    bool
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// IsBool reports whether the value is a boolean.
func (v Value) IsBool() bool { return v.kind == KindBool }

// Num returns the numeric payload. It is zero for booleans.
func (v Value) Num() float64 { return v.num }

// Truth returns the boolean payload. It is false for numbers.
func (v Value) Truth() bool { return v.b }

// String formats the value the way it would be written in an expression.
func (v Value) String() string {
	if v.kind == KindBool {
		return strconv.FormatBool(v.b)
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}
