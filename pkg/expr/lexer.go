package expr

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokTrue
	tokFalse
	tokAnd
	tokOr
	tokNot
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokLParen
	tokRParen
	tokLT
	tokLE
	tokGT
	tokGE
	tokEQ
	tokNE
)

var tokenNames = map[tokenKind]string{
	tokEOF:     "end of expression",
	tokNumber:  "number",
	tokIdent:   "identifier",
	tokTrue:    "true",
	tokFalse:   "false",
	tokAnd:     "and",
	tokOr:      "or",
	tokNot:     "not",
	tokPlus:    "+",
	tokMinus:   "-",
	tokStar:    "*",
	tokSlash:   "/",
	tokPercent: "%",
	tokLParen:  "(",
	tokRParen:  ")",
	tokLT:      "<",
	tokLE:      "<=",
	tokGT:      ">",
	tokGE:      ">=",
	tokEQ:      "==",
	tokNE:      "!=",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

var keywords = map[string]tokenKind{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"true":  tokTrue,
	"false": tokFalse,
}

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// tokenize splits src into tokens. The final token is always tokEOF.
func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			tok, next, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			word := src[start:i]
			kind, ok := keywords[word]
			if !ok {
				kind = tokIdent
			}
			toks = append(toks, token{kind: kind, text: word, pos: start})
		default:
			tok, width, err := lexOperator(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += width
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func lexNumber(src string, start int) (token, int, error) {
	i := start
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j >= len(src) || !isDigit(src[j]) {
			return token{}, 0, &SyntaxError{Pos: i, Message: "malformed exponent"}
		}
		for j < len(src) && isDigit(src[j]) {
			j++
		}
		i = j
	}
	if i < len(src) && isIdentStart(src[i]) {
		return token{}, 0, &SyntaxError{Pos: i, Message: fmt.Sprintf("unexpected character %q after number", src[i])}
	}

	text := src[start:i]
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, 0, &SyntaxError{Pos: start, Message: fmt.Sprintf("invalid number %q", text)}
	}
	return token{kind: tokNumber, text: text, num: f, pos: start}, i, nil
}

func lexOperator(src string, i int) (token, int, error) {
	c := src[i]
	var next byte
	if i+1 < len(src) {
		next = src[i+1]
	}

	two := func(kind tokenKind, text string) (token, int, error) {
		return token{kind: kind, text: text, pos: i}, 2, nil
	}
	one := func(kind tokenKind) (token, int, error) {
		return token{kind: kind, text: string(c), pos: i}, 1, nil
	}

	switch c {
	case '+':
		return one(tokPlus)
	case '-':
		return one(tokMinus)
	case '*':
		return one(tokStar)
	case '/':
		return one(tokSlash)
	case '%':
		return one(tokPercent)
	case '(':
		return one(tokLParen)
	case ')':
		return one(tokRParen)
	case '<':
		if next == '=' {
			return two(tokLE, "<=")
		}
		return one(tokLT)
	case '>':
		if next == '=' {
			return two(tokGE, ">=")
		}
		return one(tokGT)
	case '=':
		if next == '=' {
			return two(tokEQ, "==")
		}
		return token{}, 0, &SyntaxError{Pos: i, Message: "unexpected '=' (use '==' for comparison)"}
	case '!':
		if next == '=' {
			return two(tokNE, "!=")
		}
		return token{}, 0, &SyntaxError{Pos: i, Message: "unexpected '!' (use 'not')"}
	}
	return token{}, 0, &SyntaxError{Pos: i, Message: fmt.Sprintf("unexpected character %q", c)}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
