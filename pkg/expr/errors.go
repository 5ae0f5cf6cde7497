package expr

import (
	"errors"
	"fmt"
)

// ErrEmptyExpression is returned for blank expressions.
var ErrEmptyExpression = errors.New("empty expression")

// SyntaxError reports a tokenizer or parser failure.
type SyntaxError struct {
	// Pos is the byte offset in the source where the problem was detected.
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Message)
}

// UnknownIdentifierError is returned when an identifier is not present in the bindings.
type UnknownIdentifierError struct {
	Name string
	Pos  int
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("unknown identifier %q at position %d", e.Name, e.Pos)
}

// DivisionByZeroError is returned for x / 0 and x % 0.
type DivisionByZeroError struct {
	Pos int
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero at position %d", e.Pos)
}

// TypeMismatchError is returned when an operand or result has the wrong kind.
type TypeMismatchError struct {
	// Op is the operator or context that rejected the value.
	Op       string
	Expected Kind
	Actual   Kind
	Pos      int
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch at position %d: %s expects %s, got %s", e.Pos, e.Op, e.Expected, e.Actual)
}

// NonFiniteError is returned when arithmetic overflows to an infinity or NaN.
type NonFiniteError struct {
	Pos int
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("non-finite result at position %d", e.Pos)
}

// Error codes recorded in score breakdowns.
const (
	CodeEmptyExpression = "empty_expression"
	CodeInvalidSyntax   = "invalid_syntax"
	CodeMissingVariable = "missing_variable"
	CodeDivisionByZero  = "division_by_zero"
	CodeTypeMismatch    = "type_mismatch"
	CodeNonFinite       = "non_finite_result"
	CodeEvaluation      = "evaluation_error"
)

// Code maps an evaluation error to its stable code. Unknown identifiers carry
// the name: "missing_variable:cost". A nil error maps to "".
func Code(err error) string {
	if err == nil {
		return ""
	}

	var (
		syntaxErr   *SyntaxError
		unknownErr  *UnknownIdentifierError
		divErr      *DivisionByZeroError
		typeErr     *TypeMismatchError
		nonFiniteEr *NonFiniteError
	)

	switch {
	case errors.Is(err, ErrEmptyExpression):
		return CodeEmptyExpression
	case errors.As(err, &syntaxErr):
		return CodeInvalidSyntax
	case errors.As(err, &unknownErr):
		return CodeMissingVariable + ":" + unknownErr.Name
	case errors.As(err, &divErr):
		return CodeDivisionByZero
	case errors.As(err, &typeErr):
		return CodeTypeMismatch
	case errors.As(err, &nonFiniteEr):
		return CodeNonFinite
	default:
		return CodeEvaluation
	}
}
