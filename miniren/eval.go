package miniren

import (
	"fmt"
	"io"
)

// raised carries a script-level error up the evaluator as an ordinary
// Go error. entrap converts it into an error value; if nothing traps
// it, the evaluate boundary does.
type raised struct {
	err *errFields
}

func (r *raised) Error() string {
	return fmt.Sprintf("%s error (%s): %s", r.err.Type, r.err.ID, r.err.Message)
}

func raise(typ, id, message string) error {
	return &raised{err: &errFields{
		Type:    typ,
		ID:      id,
		Message: message,
		File:    "user",
	}}
}

func raiseSyntax(message string) error {
	return raise("syntax", "invalid", message)
}

// returned unwinds a func body when the return native fires.
type returned struct {
	val *cell
}

func (r *returned) Error() string {
	return "return outside of a function"
}

// scope is a chain of word bindings. Set-words assign to an existing
// binding when one is visible, otherwise to the global scope, matching
// the classic func behavior where undeclared words leak globally.
type scope struct {
	vars   map[string]*cell
	parent *scope
}

func (s *scope) lookup(name string) (*cell, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *scope) set(name string, v *cell) {
	root := s
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			return
		}
		root = cur
	}
	root.vars[name] = v
}

type evaluator struct {
	rt     *Runtime
	global *scope
}

func newEvaluator(rt *Runtime) *evaluator {
	return &evaluator{
		rt:     rt,
		global: &scope{vars: map[string]*cell{}},
	}
}

// evalBlock evaluates a cell sequence left to right and returns the
// last expression's value.
func (ev *evaluator) evalBlock(cells []*cell, sc *scope) (*cell, error) {
	result := voidCell
	pos := 0
	for pos < len(cells) {
		var err error
		result, err = ev.evalExpr(cells, &pos, sc)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// evalExpr evaluates one full expression: a unary step, then any
// chain of infix operators, left to right.
func (ev *evaluator) evalExpr(cells []*cell, pos *int, sc *scope) (*cell, error) {
	left, err := ev.evalUnary(cells, pos, sc)
	if err != nil {
		return nil, err
	}
	for *pos < len(cells) {
		next := cells[*pos]
		if next.kind != kindWord || !isInfix(next.s) {
			break
		}
		op := next.s
		*pos++
		right, err := ev.evalUnary(cells, pos, sc)
		if err != nil {
			return nil, err
		}
		left, err = applyInfix(op, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (ev *evaluator) evalUnary(cells []*cell, pos *int, sc *scope) (*cell, error) {
	if *pos >= len(cells) {
		return nil, raise("script", "need-value", "expression ended where a value was expected")
	}
	ev.rt.tick++
	c := cells[*pos]
	*pos++

	switch c.kind {
	case kindWord:
		bound, ok := sc.lookup(c.s)
		if !ok {
			return nil, raise("script", "no-value", c.s+" word has no value")
		}
		if bound.kind == kindAction {
			return ev.apply(bound.fn, cells, pos, sc)
		}
		return bound, nil

	case kindLitWord:
		return wordCell(c.s), nil

	case kindSetWord:
		v, err := ev.evalExpr(cells, pos, sc)
		if err != nil {
			return nil, err
		}
		sc.set(c.s, v)
		return v, nil

	case kindGroup:
		return ev.evalBlock(c.list, sc)

	case kindAction:
		// A spliced function value applies just like a bound word.
		return ev.apply(c.fn, cells, pos, sc)

	default:
		// Literals, blocks, errors, and spliced values self-evaluate.
		return c, nil
	}
}

// apply collects the action's arguments from the stream and invokes
// it. Quoted params take the next token literally; normal params take
// a full evaluated expression.
func (ev *evaluator) apply(fn *action, cells []*cell, pos *int, sc *scope) (*cell, error) {
	args := make([]*cell, len(fn.params))
	for i := range fn.params {
		if i < len(fn.quoted) && fn.quoted[i] {
			if *pos >= len(cells) {
				return nil, raise("script", "need-value", fn.name+" is missing its "+fn.params[i]+" argument")
			}
			args[i] = cells[*pos]
			*pos++
			continue
		}
		v, err := ev.evalExpr(cells, pos, sc)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if fn.impl != nil {
		return fn.impl(ev, sc, args)
	}

	frame := &scope{vars: make(map[string]*cell, len(fn.params)), parent: ev.global}
	for i, p := range fn.params {
		frame.vars[p] = args[i]
	}
	result, err := ev.evalBlock(fn.body, frame)
	if err != nil {
		if ret, ok := err.(*returned); ok {
			return ret.val, nil
		}
		return nil, err
	}
	return result, nil
}

func isInfix(name string) bool {
	switch name {
	case "+", "-", "*", "/", "<", ">", "<=", ">=", "=", "<>":
		return true
	}
	return false
}

func applyInfix(op string, left, right *cell) (*cell, error) {
	switch op {
	case "+", "-", "*", "/":
		return applyMath(op, left, right)
	case "<", ">", "<=", ">=", "=", "<>":
		return applyCompare(op, left, right)
	}
	return nil, raise("script", "no-value", op+" word has no value")
}

func applyMath(op string, left, right *cell) (*cell, error) {
	if left.kind == kindInteger && right.kind == kindInteger {
		a, b := left.i, right.i
		switch op {
		case "+":
			return intCell(a + b), nil
		case "-":
			return intCell(a - b), nil
		case "*":
			return intCell(a * b), nil
		case "/":
			if b == 0 {
				return nil, raise("math", "zero-divide", "attempt to divide by zero")
			}
			if a%b == 0 {
				return intCell(a / b), nil
			}
			return decimalCell(float64(a) / float64(b)), nil
		}
	}

	a, aok := asDecimal(left)
	b, bok := asDecimal(right)
	if !aok || !bok {
		return nil, raise("script", "expect-arg", op+" expected a number argument")
	}
	switch op {
	case "+":
		return decimalCell(a + b), nil
	case "-":
		return decimalCell(a - b), nil
	case "*":
		return decimalCell(a * b), nil
	case "/":
		if b == 0 {
			return nil, raise("math", "zero-divide", "attempt to divide by zero")
		}
		return decimalCell(a / b), nil
	}
	return nil, raise("script", "expect-arg", "unknown operator "+op)
}

func applyCompare(op string, left, right *cell) (*cell, error) {
	a, aok := asDecimal(left)
	b, bok := asDecimal(right)
	if aok && bok {
		switch op {
		case "<":
			return logicCell(a < b), nil
		case ">":
			return logicCell(a > b), nil
		case "<=":
			return logicCell(a <= b), nil
		case ">=":
			return logicCell(a >= b), nil
		case "=":
			return logicCell(a == b), nil
		case "<>":
			return logicCell(a != b), nil
		}
	}
	if left.kind == kindText && right.kind == kindText {
		switch op {
		case "=":
			return logicCell(left.s == right.s), nil
		case "<>":
			return logicCell(left.s != right.s), nil
		}
	}
	return nil, raise("script", "expect-arg", op+" cannot compare "+left.kind.String()+" with "+right.kind.String())
}

func asDecimal(c *cell) (float64, bool) {
	switch c.kind {
	case kindInteger:
		return float64(c.i), true
	case kindDecimal:
		return c.f, true
	}
	return 0, false
}

// installNatives binds the built-in action set into the global scope.
func (ev *evaluator) installNatives(out io.Writer) {
	native := func(name string, params []string, quoted []bool, impl func(*evaluator, *scope, []*cell) (*cell, error)) {
		ev.global.vars[name] = &cell{kind: kindAction, fn: &action{
			name:   name,
			params: params,
			quoted: quoted,
			impl:   impl,
		}}
	}

	native("if", []string{"condition", "branch"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		if !args[0].truthy() {
			return voidCell, nil
		}
		return ev.doBranch(args[1], sc)
	})

	native("either", []string{"condition", "true-branch", "false-branch"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		if args[0].truthy() {
			return ev.doBranch(args[1], sc)
		}
		return ev.doBranch(args[2], sc)
	})

	native("for", []string{"word", "start", "end", "bump", "body"}, []bool{true, false, false, false, false},
		func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
			word := args[0]
			if word.kind != kindWord {
				return nil, raise("script", "expect-arg", "for expected a word argument")
			}
			if args[1].kind != kindInteger || args[2].kind != kindInteger || args[3].kind != kindInteger {
				return nil, raise("script", "expect-arg", "for expected integer bounds")
			}
			body := args[4]
			if body.kind != kindBlock {
				return nil, raise("script", "expect-arg", "for expected a block body")
			}
			bump := args[3].i
			if bump == 0 {
				return nil, raise("script", "invalid-arg", "for bump must not be zero")
			}
			result := voidCell
			frame := &scope{vars: map[string]*cell{word.s: voidCell}, parent: sc}
			for i := args[1].i; (bump > 0 && i <= args[2].i) || (bump < 0 && i >= args[2].i); i += bump {
				frame.vars[word.s] = intCell(i)
				var err error
				result, err = ev.evalBlock(body.list, frame)
				if err != nil {
					return nil, err
				}
			}
			return result, nil
		})

	native("return", []string{"value"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		return nil, &returned{val: args[0]}
	})

	native("func", []string{"spec", "body"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		spec, body := args[0], args[1]
		if spec.kind != kindBlock || body.kind != kindBlock {
			return nil, raise("script", "expect-arg", "func expected spec and body blocks")
		}
		var params []string
		for _, el := range spec.list {
			// Type annotations ([integer!] etc) and doc strings in the
			// spec block are skipped; only words become params.
			if el.kind == kindWord {
				params = append(params, el.s)
			}
		}
		return &cell{kind: kindAction, fn: &action{
			name:   "func",
			params: params,
			body:   body.list,
		}}, nil
	})

	native("entrap", []string{"block"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		if args[0].kind != kindBlock {
			return nil, raise("script", "expect-arg", "entrap expected a block argument")
		}
		result, err := ev.evalBlock(args[0].list, sc)
		if err != nil {
			if r, ok := err.(*raised); ok {
				return &cell{kind: kindError, err: r.err}, nil
			}
			return nil, err
		}
		return blockCell([]*cell{result}), nil
	})

	native("first", []string{"series"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		if args[0].kind != kindBlock {
			return nil, raise("script", "expect-arg", "first expected a block argument")
		}
		if len(args[0].list) == 0 {
			return nil, raise("script", "out-of-range", "first of an empty block")
		}
		return args[0].list[0], nil
	})

	native("error?", []string{"value"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		return logicCell(args[0].kind == kindError), nil
	})

	native("block?", []string{"value"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		return logicCell(args[0].kind == kindBlock), nil
	})

	native("integer?", []string{"value"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		return logicCell(args[0].kind == kindInteger), nil
	})

	native("print", []string{"value"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		fmt.Fprintln(out, args[0].form())
		return voidCell, nil
	})

	native("in", []string{"context", "word"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		if args[0].kind != kindError {
			return nil, raise("script", "expect-arg", "in expected an error context")
		}
		if args[1].kind != kindWord {
			return nil, raise("script", "expect-arg", "in expected a word argument")
		}
		return &cell{kind: kindBound, bind: &fieldRef{err: args[0].err, field: args[1].s}}, nil
	})

	native("get", []string{"word"}, nil, func(ev *evaluator, sc *scope, args []*cell) (*cell, error) {
		switch args[0].kind {
		case kindBound:
			return fetchField(args[0].bind)
		case kindWord:
			v, ok := sc.lookup(args[0].s)
			if !ok {
				return nil, raise("script", "no-value", args[0].s+" word has no value")
			}
			return v, nil
		default:
			return args[0], nil
		}
	})
}

// doBranch runs a block branch in the caller's scope; a non-block
// branch value is returned as-is.
func (ev *evaluator) doBranch(branch *cell, sc *scope) (*cell, error) {
	if branch.kind != kindBlock {
		return branch, nil
	}
	return ev.evalBlock(branch.list, sc)
}

func fetchField(ref *fieldRef) (*cell, error) {
	switch ref.field {
	case "type":
		return wordCell(ref.err.Type), nil
	case "id":
		return wordCell(ref.err.ID), nil
	case "message":
		return textCell(ref.err.Message), nil
	case "file":
		return wordCell(ref.err.File), nil
	case "near":
		return textCell(ref.err.Near), nil
	case "where":
		return textCell(ref.err.Where), nil
	}
	return nil, raise("script", "no-value", ref.field+" is not a field of error!")
}
