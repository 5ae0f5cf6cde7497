// Package expr implements the sandboxed expression language used by rule
// conditions, formula coefficients and formula impacts.
//
// Expressions are evaluated purely against a binding map of named numbers.
// There are no functions, no attribute access, no assignment and no access
// to anything outside the bindings.
//
// # Grammar
//
// Operator precedence, lowest to highest:
//
//	or                      left-assoc, short-circuit, boolean operands
//	and                     left-assoc, short-circuit, boolean operands
//	not                     prefix, boolean operand
//	< <= > >= == !=         non-associative (a < b < c is rejected)
//	+ -                     left-assoc, numeric
//	* / %                   left-assoc, numeric; % is floored modulo
//	unary + -               numeric
//	literal | ident | ( )   1.5, 2e3, .25, true, false, revenue, (a + b)
//
// == and != accept two numbers or two booleans. Every other operator is
// typed and mixing kinds fails with a TypeMismatchError.
//
// # Errors
//
// Evaluation never panics. Failures are typed (SyntaxError,
// UnknownIdentifierError, DivisionByZeroError, TypeMismatchError,
// NonFiniteError, ErrEmptyExpression) and Code maps each to the stable
// string recorded in score breakdowns.
//
// # Usage
//
//	prog, err := expr.Compile("(margin < 0.15) and (technical_debt > 55)")
//	if err != nil {
//		return err
//	}
//	ok, err := prog.EvalBool(map[string]float64{"margin": 0.1, "technical_debt": 60})
package expr
