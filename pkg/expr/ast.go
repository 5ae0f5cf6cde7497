package expr

import (
	"strconv"
	"strings"
)

// Node is an expression tree node.
type Node interface {
	// Pos returns the byte offset of the node in the source.
	Pos() int
	// String renders the node in fully parenthesised canonical form.
	String() string
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
	pos   int
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
	pos   int
}

// Ident is a reference to a binding.
type Ident struct {
	Name string
	pos  int
}

// Unary is a prefix operation: -x, +x, not x.
type Unary struct {
	Op  tokenKind
	X   Node
	pos int
}

// Binary is an infix operation.
type Binary struct {
	Op   tokenKind
	X, Y Node
	pos  int
}

func (n *NumberLit) Pos() int { return n.pos }
func (n *BoolLit) Pos() int   { return n.pos }
func (n *Ident) Pos() int     { return n.pos }
func (n *Unary) Pos() int     { return n.pos }
func (n *Binary) Pos() int    { return n.pos }

func (n *NumberLit) String() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }
func (n *BoolLit) String() string   { return strconv.FormatBool(n.Value) }
func (n *Ident) String() string     { return n.Name }

func (n *Unary) String() string {
	if n.Op == tokNot {
		return "(not " + n.X.String() + ")"
	}
	return "(" + n.Op.String() + n.X.String() + ")"
}

func (n *Binary) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(n.X.String())
	sb.WriteByte(' ')
	sb.WriteString(n.Op.String())
	sb.WriteByte(' ')
	sb.WriteString(n.Y.String())
	sb.WriteByte(')')
	return sb.String()
}

// walk visits every node depth-first.
func walk(n Node, fn func(Node)) {
	fn(n)
	switch t := n.(type) {
	case *Unary:
		walk(t.X, fn)
	case *Binary:
		walk(t.X, fn)
		walk(t.Y, fn)
	}
}
