package engine

import (
	"sync/atomic"

	ren "github.com/hostilefork/ren-go"
	"github.com/hostilefork/ren-go/errors"
)

// Value is an owned handle to a runtime-allocated value, bound to the
// engine that produced it. The handle is never null while the Value is
// alive, and exactly one release call is issued for it over the
// Value's lifetime.
//
// A Value must not be used after its engine has been closed. That is a
// borrowing discipline the caller enforces; it is not runtime-checked.
type Value struct {
	eng      *Engine
	raw      ren.RawValue
	released atomic.Bool
}

// Release gives the underlying runtime reference back. The first call
// releases; later calls are no-ops, so Release is safe to defer next
// to early-return paths.
func (v *Value) Release() {
	if v.released.Swap(true) {
		return
	}
	v.eng.log.Debug("releasing value")
	v.eng.rt.Release(v.raw)
}

// Fragment implements ren.Fragment, letting a live value be spliced
// into further evaluate calls. Using a released or null value as a
// fragment is a caller bug and panics.
func (v *Value) Fragment() ren.Frag {
	v.check()
	return ren.ValueFrag(v.raw)
}

// UnboxInteger extracts the native integer. The underlying value must
// be integer-representable; a wrong-shaped value behaves as the
// foreign runtime defines and is not separately validated here.
func (v *Value) UnboxInteger() (int64, error) {
	v.check()
	n, err := v.eng.rt.UnboxInteger(v.raw)
	if err != nil {
		return 0, errors.Unbox("unbox integer", err)
	}
	return n, nil
}

// UnboxString extracts the literal (FORM) spelling, as used for
// free-text fields such as an error message. The runtime-owned buffer
// is copied and freed inside the Runtime implementation.
func (v *Value) UnboxString() (string, error) {
	v.check()
	s, err := v.eng.rt.Spell(v.raw)
	if err != nil {
		return "", errors.Unbox("spell value", err)
	}
	return s, nil
}

// UnboxStringQ extracts the quoted (MOLD) spelling, as used for
// identifier-like fields that must not carry free-text escaping.
func (v *Value) UnboxStringQ() (string, error) {
	v.check()
	s, err := v.eng.rt.SpellQuoted(v.raw)
	if err != nil {
		return "", errors.Unbox("spell value (quoted)", err)
	}
	return s, nil
}

func (v *Value) check() {
	if v.raw == 0 {
		panic("ren: use of null value handle")
	}
	if v.released.Load() {
		panic("ren: use of released value")
	}
}
