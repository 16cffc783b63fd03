package engine

import (
	ren "github.com/hostilefork/ren-go"
	"github.com/hostilefork/ren-go/errors"
)

// Shared literal fragments for the evaluate protocol. Built once;
// never mutated.
var (
	fragEntrapOpen = literal("entrap [")
	fragClose      = literal("]")
	fragErrorQ     = literal("error?")
	fragBlockQ     = literal("block?")
	fragFirst      = literal("first")
	fragGetIn      = literal("get in")
)

func literal(s string) ren.Frag {
	buf := make([]byte, 0, len(s)+1)
	buf = append(buf, s...)
	buf = append(buf, 0)
	return ren.TextFrag(buf)
}

// Load evaluates one raw source-text fragment directly, with no
// error-trap wrapping, then asks the runtime whether the result is an
// error value; if so the decoded *ScriptError is returned as the
// error. Load is the simple path: unlike Value1 it does not protect
// against faults raised during the evaluation itself.
func (e *Engine) Load(code string) (*Value, error) {
	t, err := NewText(code)
	if err != nil {
		return nil, err
	}

	raw, hostErr := e.rt.EvalQuiet([]ren.Frag{t.Fragment(), ren.End()})
	if hostErr != nil {
		return nil, errors.Eval("load", hostErr)
	}
	v := e.wrap(raw)

	isErr, hostErr := e.isError(v)
	if hostErr != nil {
		v.Release()
		return nil, hostErr
	}
	if isErr {
		scriptErr, decodeErr := e.decodeScriptError(v)
		if decodeErr != nil {
			return nil, decodeErr
		}
		return nil, scriptErr
	}
	return v, nil
}

// Value1 evaluates one fragment inside the runtime's entrap construct,
// so any error raised during evaluation is captured as a normal return
// value instead of propagating as a native fault. Trapped errors come
// back decoded as *ScriptError.
func (e *Engine) Value1(code ren.Fragment) (*Value, error) {
	return e.entrap("value1", code)
}

// Value2 evaluates exactly two fragments in sequence under the same
// entrap/unwrap protocol as Value1. The fragments compose into a
// single expression: a function value followed by an argument value
// evaluates as application.
func (e *Engine) Value2(a, b ren.Fragment) (*Value, error) {
	return e.entrap("value2", a, b)
}

// Value3 evaluates exactly three fragments with no trap and no error
// classification: the raw resulting value is returned unconditionally.
// This is the fast path for call sites that have already validated
// their inputs cannot raise.
func (e *Engine) Value3(a, b, c ren.Fragment) (*Value, error) {
	raw, err := e.rt.Eval([]ren.Frag{a.Fragment(), b.Fragment(), c.Fragment(), ren.End()})
	if err != nil {
		return nil, errors.Eval("value3", err)
	}
	return e.wrap(raw), nil
}

// Elide evaluates one fragment purely for side effect; any result is
// discarded, nothing is wrapped.
func (e *Engine) Elide(code ren.Fragment) error {
	if err := e.rt.Elide([]ren.Frag{code.Fragment(), ren.End()}); err != nil {
		return errors.Eval("elide", err)
	}
	return nil
}

// MapField evaluates a small reflection expression against an existing
// value to fetch the named field, wraps it, applies f, and releases
// the intermediate value on every path.
func (e *Engine) MapField(v *Value, field string, f func(*Value) (string, error)) (string, error) {
	ft, err := NewText("'" + field)
	if err != nil {
		return "", err
	}

	raw, hostErr := e.rt.Eval([]ren.Frag{fragGetIn, v.Fragment(), ft.Fragment(), ren.End()})
	if hostErr != nil {
		return "", errors.Decode(field, hostErr)
	}
	fv := e.wrap(raw)
	defer fv.Release()

	return f(fv)
}

// entrap is the hardened core of the evaluate family: wrap the
// fragments in entrap [ ... ], classify the result, and unwrap the
// one-element block the runtime uses for non-error results.
func (e *Engine) entrap(op string, code ...ren.Fragment) (*Value, error) {
	list := make([]ren.Frag, 0, len(code)+3)
	list = append(list, fragEntrapOpen)
	for _, c := range code {
		list = append(list, c.Fragment())
	}
	list = append(list, fragClose, ren.End())

	raw, hostErr := e.rt.Eval(list)
	if hostErr != nil {
		return nil, errors.Eval(op, hostErr)
	}
	trapped := e.wrap(raw)

	isErr, hostErr := e.isError(trapped)
	if hostErr != nil {
		trapped.Release()
		return nil, hostErr
	}
	if isErr {
		scriptErr, decodeErr := e.decodeScriptError(trapped)
		if decodeErr != nil {
			return nil, decodeErr
		}
		return nil, scriptErr
	}

	isBlock, hostErr := e.isBlock(trapped)
	if hostErr != nil {
		trapped.Release()
		return nil, hostErr
	}
	if !isBlock {
		// The runtime wraps non-error entrap results in a one-element
		// block; anything else is returned as-is.
		return trapped, nil
	}

	inner, hostErr := e.rt.Eval([]ren.Frag{fragFirst, trapped.Fragment(), ren.End()})
	trapped.Release()
	if hostErr != nil {
		return nil, errors.Eval(op, hostErr)
	}
	return e.wrap(inner), nil
}

func (e *Engine) isError(v *Value) (bool, error) {
	ok, err := e.rt.Did([]ren.Frag{fragErrorQ, v.Fragment(), ren.End()})
	if err != nil {
		return false, errors.Eval("error?", err)
	}
	return ok, nil
}

func (e *Engine) isBlock(v *Value) (bool, error) {
	ok, err := e.rt.Did([]ren.Frag{fragBlockQ, v.Fragment(), ren.End()})
	if err != nil {
		return false, errors.Eval("block?", err)
	}
	return ok, nil
}
