package expr

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// MaxExpressionLength is the longest accepted source, in bytes.
	MaxExpressionLength = 4096

	// MaxDepth bounds parenthesis and operator nesting.
	MaxDepth = 64
)

// Program is a parsed expression ready for evaluation.
// A Program is immutable and safe for concurrent use.
type Program struct {
	source string
	root   Node
	idents []string
}

// Compile parses an expression.
func Compile(source string) (*Program, error) {
	src := strings.TrimSpace(source)
	if src == "" {
		return nil, ErrEmptyExpression
	}
	if len(src) > MaxExpressionLength {
		return nil, &SyntaxError{Pos: MaxExpressionLength, Message: fmt.Sprintf("expression exceeds %d bytes", MaxExpressionLength)}
	}

	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: tok.pos, Message: fmt.Sprintf("unexpected %s", describe(tok))}
	}

	return &Program{source: src, root: root, idents: collectIdents(root)}, nil
}

// Validate reports whether source is a well-formed expression.
func Validate(source string) error {
	_, err := Compile(source)
	return err
}

// Source returns the trimmed source text.
func (p *Program) Source() string { return p.source }

// Root returns the expression tree.
func (p *Program) Root() Node { return p.root }

// Identifiers returns the sorted, de-duplicated identifiers the expression references.
func (p *Program) Identifiers() []string {
	out := make([]string, len(p.idents))
	copy(out, p.idents)
	return out
}

// String returns the canonical form of the expression.
func (p *Program) String() string { return p.root.String() }

type parser struct {
	toks  []token
	pos   int
	depth int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > MaxDepth {
		return &SyntaxError{Pos: pos, Message: fmt.Sprintf("expression nested deeper than %d", MaxDepth)}
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		op := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: tokOr, X: left, Y: right, pos: op.pos}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		op := p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: tokAnd, X: left, Y: right, pos: op.pos}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.peek().kind != tokNot {
		return p.parseComparison()
	}
	op := p.next()
	if err := p.enter(op.pos); err != nil {
		return nil, err
	}
	defer p.leave()

	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &Unary{Op: tokNot, X: x, pos: op.pos}, nil
}

func isComparison(k tokenKind) bool {
	switch k {
	case tokLT, tokLE, tokGT, tokGE, tokEQ, tokNE:
		return true
	}
	return false
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !isComparison(p.peek().kind) {
		return left, nil
	}
	op := p.next()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); isComparison(tok.kind) {
		return nil, &SyntaxError{Pos: tok.pos, Message: "chained comparisons are not supported; combine them with 'and'"}
	}
	return &Binary{Op: op.kind, X: left, Y: right, pos: op.pos}, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for k := p.peek().kind; k == tokPlus || k == tokMinus; k = p.peek().kind {
		op := p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op.kind, X: left, Y: right, pos: op.pos}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for k := p.peek().kind; k == tokStar || k == tokSlash || k == tokPercent; k = p.peek().kind {
		op := p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op.kind, X: left, Y: right, pos: op.pos}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	k := p.peek().kind
	if k != tokMinus && k != tokPlus {
		return p.parsePrimary()
	}
	op := p.next()
	if err := p.enter(op.pos); err != nil {
		return nil, err
	}
	defer p.leave()

	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Unary{Op: op.kind, X: x, pos: op.pos}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return &NumberLit{Value: tok.num, pos: tok.pos}, nil
	case tokTrue:
		return &BoolLit{Value: true, pos: tok.pos}, nil
	case tokFalse:
		return &BoolLit{Value: false, pos: tok.pos}, nil
	case tokIdent:
		if next := p.peek(); next.kind == tokLParen {
			return nil, &SyntaxError{Pos: next.pos, Message: fmt.Sprintf("function calls are not allowed (%s)", tok.text)}
		}
		return &Ident{Name: tok.text, pos: tok.pos}, nil
	case tokLParen:
		if err := p.enter(tok.pos); err != nil {
			return nil, err
		}
		defer p.leave()

		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, &SyntaxError{Pos: closing.pos, Message: fmt.Sprintf("expected ')' but found %s", describe(closing))}
		}
		return inner, nil
	}
	return nil, &SyntaxError{Pos: tok.pos, Message: fmt.Sprintf("unexpected %s", describe(tok))}
}

func describe(tok token) string {
	switch tok.kind {
	case tokEOF:
		return tok.kind.String()
	case tokNumber, tokIdent:
		return fmt.Sprintf("%s %q", tok.kind, tok.text)
	}
	return fmt.Sprintf("%q", tok.kind.String())
}

func collectIdents(root Node) []string {
	seen := make(map[string]struct{})
	walk(root, func(n Node) {
		if id, ok := n.(*Ident); ok {
			seen[id.Name] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
