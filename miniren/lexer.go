package miniren

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// token is one element of the flat pre-parse stream: either a bracket
// or paren punctuator, or a finished cell. Spliced value fragments
// enter the stream as cell tokens, which is what lets text and prior
// values compose into one expression.
type token struct {
	cell  *cell
	punct byte // one of [ ] ( ), or 0 for a cell token
}

// lex tokenizes one source-text fragment into flat tokens. Bracket
// structure is resolved later, over the combined stream, because a
// single fragment may be deliberately unbalanced ("entrap [").
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size

		case r == ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}

		case r == '[' || r == ']' || r == '(' || r == ')':
			toks = append(toks, token{punct: byte(r)})
			i++

		case r == '"':
			s, n, err := lexString(src[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{cell: textCell(s)})
			i += n

		case r == '\'':
			name, n := lexWordName(src[i+1:])
			if name == "" {
				return nil, raiseSyntax("invalid lit-word near " + snippet(src[i:]))
			}
			toks = append(toks, token{cell: &cell{kind: kindLitWord, s: name}})
			i += 1 + n

		case isDigit(r) || (r == '-' && i+1 < len(src) && isDigit(rune(src[i+1]))):
			c, n, err := lexNumber(src[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{cell: c})
			i += n

		default:
			name, n := lexWordName(src[i:])
			if name == "" {
				return nil, raiseSyntax("unexpected character near " + snippet(src[i:]))
			}
			i += n
			if i < len(src) && src[i] == ':' {
				toks = append(toks, token{cell: &cell{kind: kindSetWord, s: name}})
				i++
			} else {
				toks = append(toks, token{cell: wordCell(name)})
			}
		}
	}
	return toks, nil
}

func lexString(src string) (string, int, error) {
	// src starts at the opening quote
	var b strings.Builder
	i := 1
	for i < len(src) {
		if src[i] == '"' {
			return b.String(), i + 1, nil
		}
		r, size := utf8.DecodeRuneInString(src[i:])
		b.WriteRune(r)
		i += size
	}
	return "", 0, raiseSyntax("unterminated string")
}

func lexNumber(src string) (*cell, int, error) {
	i := 0
	if src[i] == '-' {
		i++
	}
	start := i
	for i < len(src) && isDigit(rune(src[i])) {
		i++
	}
	isDecimal := false
	if i < len(src) && src[i] == '.' && i+1 < len(src) && isDigit(rune(src[i+1])) {
		isDecimal = true
		i++
		for i < len(src) && isDigit(rune(src[i])) {
			i++
		}
	}
	if start == i {
		return nil, 0, raiseSyntax("invalid number near " + snippet(src))
	}
	lit := src[:i]
	if isDecimal {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, 0, raiseSyntax("invalid decimal " + lit)
		}
		return decimalCell(f), i, nil
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return nil, 0, raiseSyntax("invalid integer " + lit)
	}
	return intCell(n), i, nil
}

// lexWordName consumes a word: letters, digits past the first rune,
// and the symbol characters Rebol words allow.
func lexWordName(src string) (string, int) {
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if unicode.IsSpace(r) || r == '[' || r == ']' || r == '(' || r == ')' ||
			r == '"' || r == ':' || r == ';' || r == '\'' {
			break
		}
		i += size
	}
	return src[:i], i
}

// parse resolves bracket and paren structure over the combined flat
// stream.
func parse(toks []token) ([]*cell, error) {
	cells, rest, err := parseUntil(toks, 0)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, raiseSyntax("unexpected " + string(rest[0].punct))
	}
	return cells, nil
}

func parseUntil(toks []token, want byte) ([]*cell, []token, error) {
	var cells []*cell
	for len(toks) > 0 {
		t := toks[0]
		switch t.punct {
		case '[':
			inner, rest, err := parseUntil(toks[1:], ']')
			if err != nil {
				return nil, nil, err
			}
			cells = append(cells, blockCell(inner))
			toks = rest
		case '(':
			inner, rest, err := parseUntil(toks[1:], ')')
			if err != nil {
				return nil, nil, err
			}
			cells = append(cells, groupCell(inner))
			toks = rest
		case ']', ')':
			if t.punct != want {
				if want == 0 {
					return cells, toks, nil
				}
				return nil, nil, raiseSyntax("expected " + string(want) + " but found " + string(t.punct))
			}
			return cells, toks[1:], nil
		default:
			cells = append(cells, t.cell)
			toks = toks[1:]
		}
	}
	if want != 0 {
		return nil, nil, raiseSyntax("missing " + string(want))
	}
	return cells, nil, nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func snippet(src string) string {
	if len(src) > 12 {
		return strconv.Quote(src[:12] + "...")
	}
	return strconv.Quote(src)
}
