package expr

import "math"

// Evaluate compiles and evaluates expression against bindings.
func Evaluate(expression string, bindings map[string]float64) (Value, error) {
	prog, err := Compile(expression)
	if err != nil {
		return Value{}, err
	}
	return prog.Eval(bindings)
}

// Eval evaluates the program. bindings is only read.
func (p *Program) Eval(bindings map[string]float64) (Value, error) {
	return eval(p.root, bindings)
}

// EvalNumber evaluates the program and requires a numeric result.
func (p *Program) EvalNumber(bindings map[string]float64) (float64, error) {
	v, err := p.Eval(bindings)
	if err != nil {
		return 0, err
	}
	if v.IsBool() {
		return 0, &TypeMismatchError{Op: "formula", Expected: KindNumber, Actual: KindBool, Pos: p.root.Pos()}
	}
	return v.Num(), nil
}

// EvalBool evaluates the program and requires a boolean result.
func (p *Program) EvalBool(bindings map[string]float64) (bool, error) {
	v, err := p.Eval(bindings)
	if err != nil {
		return false, err
	}
	if !v.IsBool() {
		return false, &TypeMismatchError{Op: "condition", Expected: KindBool, Actual: KindNumber, Pos: p.root.Pos()}
	}
	return v.Truth(), nil
}

func eval(n Node, bindings map[string]float64) (Value, error) {
	switch t := n.(type) {
	case *NumberLit:
		return Number(t.Value), nil
	case *BoolLit:
		return Bool(t.Value), nil
	case *Ident:
		v, ok := bindings[t.Name]
		if !ok {
			return Value{}, &UnknownIdentifierError{Name: t.Name, Pos: t.pos}
		}
		return Number(v), nil
	case *Unary:
		return evalUnary(t, bindings)
	case *Binary:
		return evalBinary(t, bindings)
	}
	return Value{}, &SyntaxError{Pos: n.Pos(), Message: "unsupported node"}
}

func evalUnary(u *Unary, bindings map[string]float64) (Value, error) {
	x, err := eval(u.X, bindings)
	if err != nil {
		return Value{}, err
	}
	if u.Op == tokNot {
		if !x.IsBool() {
			return Value{}, mismatch(u.Op, KindBool, x, u.pos)
		}
		return Bool(!x.b), nil
	}
	if x.IsBool() {
		return Value{}, mismatch(u.Op, KindNumber, x, u.pos)
	}
	if u.Op == tokMinus {
		return Number(-x.num), nil
	}
	return x, nil
}

func evalBinary(b *Binary, bindings map[string]float64) (Value, error) {
	x, err := eval(b.X, bindings)
	if err != nil {
		return Value{}, err
	}

	// Short-circuit: the right operand is only evaluated when it can change the result.
	if b.Op == tokAnd || b.Op == tokOr {
		if !x.IsBool() {
			return Value{}, mismatch(b.Op, KindBool, x, b.pos)
		}
		if (b.Op == tokAnd && !x.b) || (b.Op == tokOr && x.b) {
			return x, nil
		}
		y, err := eval(b.Y, bindings)
		if err != nil {
			return Value{}, err
		}
		if !y.IsBool() {
			return Value{}, mismatch(b.Op, KindBool, y, b.pos)
		}
		return y, nil
	}

	y, err := eval(b.Y, bindings)
	if err != nil {
		return Value{}, err
	}

	if b.Op == tokEQ || b.Op == tokNE {
		if x.kind != y.kind {
			return Value{}, mismatch(b.Op, x.kind, y, b.pos)
		}
		eq := x.num == y.num
		if x.IsBool() {
			eq = x.b == y.b
		}
		return Bool(eq == (b.Op == tokEQ)), nil
	}

	if x.IsBool() {
		return Value{}, mismatch(b.Op, KindNumber, x, b.pos)
	}
	if y.IsBool() {
		return Value{}, mismatch(b.Op, KindNumber, y, b.pos)
	}

	switch b.Op {
	case tokLT:
		return Bool(x.num < y.num), nil
	case tokLE:
		return Bool(x.num <= y.num), nil
	case tokGT:
		return Bool(x.num > y.num), nil
	case tokGE:
		return Bool(x.num >= y.num), nil
	}

	var r float64
	switch b.Op {
	case tokPlus:
		r = x.num + y.num
	case tokMinus:
		r = x.num - y.num
	case tokStar:
		r = x.num * y.num
	case tokSlash:
		if y.num == 0 {
			return Value{}, &DivisionByZeroError{Pos: b.pos}
		}
		r = x.num / y.num
	case tokPercent:
		if y.num == 0 {
			return Value{}, &DivisionByZeroError{Pos: b.pos}
		}
		r = floorMod(x.num, y.num)
	default:
		return Value{}, &SyntaxError{Pos: b.pos, Message: "unsupported operator " + b.Op.String()}
	}
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return Value{}, &NonFiniteError{Pos: b.pos}
	}
	return Number(r), nil
}

// floorMod returns x mod y with the sign of y.
func floorMod(x, y float64) float64 {
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r
}

func mismatch(op tokenKind, expected Kind, got Value, pos int) error {
	return &TypeMismatchError{Op: op.String(), Expected: expected, Actual: got.kind, Pos: pos}
}
