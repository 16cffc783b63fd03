package miniren

import (
	"strconv"
	"strings"
)

type kind uint8

const (
	kindVoid kind = iota
	kindBlank
	kindLogic
	kindInteger
	kindDecimal
	kindChar
	kindText
	kindWord
	kindSetWord
	kindLitWord
	kindBlock
	kindGroup
	kindError
	kindAction
	kindBound
)

func (k kind) String() string {
	switch k {
	case kindVoid:
		return "void"
	case kindBlank:
		return "blank"
	case kindLogic:
		return "logic"
	case kindInteger:
		return "integer"
	case kindDecimal:
		return "decimal"
	case kindChar:
		return "char"
	case kindText:
		return "text"
	case kindWord:
		return "word"
	case kindSetWord:
		return "set-word"
	case kindLitWord:
		return "lit-word"
	case kindBlock:
		return "block"
	case kindGroup:
		return "group"
	case kindError:
		return "error"
	case kindAction:
		return "action"
	case kindBound:
		return "bound-word"
	}
	return "unknown"
}

// cell is one runtime value. Which fields are meaningful depends on
// the kind; cells are immutable after construction.
type cell struct {
	kind kind
	b    bool
	i    int64
	f    float64
	r    rune
	s    string // text content or word name
	list []*cell
	err  *errFields
	fn   *action
	bind *fieldRef
}

// errFields is the payload of an error value. Type, ID, and File spell
// as words; Message, Near, and Where spell as text.
type errFields struct {
	Type    string
	ID      string
	Message string
	File    string
	Near    string
	Where   string
}

// fieldRef is a word bound into an error object by the `in` native.
type fieldRef struct {
	err   *errFields
	field string
}

// action is a callable: either a native with a Go implementation or a
// script func with a param list and body.
type action struct {
	name   string
	params []string
	body   []*cell
	quoted []bool // per-param: take the argument literally, unevaluated
	impl   func(ev *evaluator, sc *scope, args []*cell) (*cell, error)
}

var (
	voidCell  = &cell{kind: kindVoid}
	blankCell = &cell{kind: kindBlank}
	trueCell  = &cell{kind: kindLogic, b: true}
	falseCell = &cell{kind: kindLogic}
)

func logicCell(b bool) *cell {
	if b {
		return trueCell
	}
	return falseCell
}

func intCell(i int64) *cell     { return &cell{kind: kindInteger, i: i} }
func decimalCell(f float64) *cell { return &cell{kind: kindDecimal, f: f} }
func charCell(r rune) *cell     { return &cell{kind: kindChar, r: r} }
func textCell(s string) *cell   { return &cell{kind: kindText, s: s} }
func wordCell(s string) *cell   { return &cell{kind: kindWord, s: s} }
func blockCell(list []*cell) *cell { return &cell{kind: kindBlock, list: list} }
func groupCell(list []*cell) *cell { return &cell{kind: kindGroup, list: list} }

func (c *cell) truthy() bool {
	switch c.kind {
	case kindLogic:
		return c.b
	case kindVoid, kindBlank:
		return false
	default:
		return true
	}
}

// form renders the literal, human-readable spelling (FORM).
func (c *cell) form() string {
	switch c.kind {
	case kindVoid:
		return ""
	case kindBlank:
		return "_"
	case kindLogic:
		if c.b {
			return "true"
		}
		return "false"
	case kindInteger:
		return strconv.FormatInt(c.i, 10)
	case kindDecimal:
		return strconv.FormatFloat(c.f, 'g', -1, 64)
	case kindChar:
		return string(c.r)
	case kindText:
		return c.s
	case kindWord, kindLitWord:
		return c.s
	case kindSetWord:
		return c.s + ":"
	case kindBlock, kindGroup:
		parts := make([]string, len(c.list))
		for i, el := range c.list {
			parts[i] = el.form()
		}
		return strings.Join(parts, " ")
	case kindError:
		return c.err.Message
	case kindAction:
		return "#[action! " + c.fn.name + "]"
	case kindBound:
		return c.bind.field
	}
	return ""
}

// mold renders the quoted, source-form spelling (MOLD). The load-
// bearing difference from form: text keeps its quotes, lit-words keep
// their tick.
func (c *cell) mold() string {
	switch c.kind {
	case kindText:
		return strconv.Quote(c.s)
	case kindChar:
		return `#"` + string(c.r) + `"`
	case kindLitWord:
		return "'" + c.s
	case kindBlock:
		parts := make([]string, len(c.list))
		for i, el := range c.list {
			parts[i] = el.mold()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case kindGroup:
		parts := make([]string, len(c.list))
		for i, el := range c.list {
			parts[i] = el.mold()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case kindError:
		return "make error! [type: '" + c.err.Type + " id: '" + c.err.ID + "]"
	default:
		return c.form()
	}
}
