package ren

// RawValue is an opaque handle to a value allocated and owned by the
// foreign runtime. The zero value is the null handle and is never a
// live value.
type RawValue uint64

// Frag is a single evaluable unit on the wire: either owned,
// NUL-terminated UTF-8 source text, or a handle to a previously
// produced runtime value. Exactly one of the two fields is set.
type Frag struct {
	Text  []byte
	Value RawValue
}

// TextFrag wraps a NUL-terminated UTF-8 buffer as a fragment.
// The buffer must not be mutated after this call.
func TextFrag(buf []byte) Frag {
	return Frag{Text: buf}
}

// ValueFrag wraps a runtime value handle as a fragment.
func ValueFrag(v RawValue) Frag {
	return Frag{Value: v}
}

// IsText reports whether the fragment carries source text.
func (f Frag) IsText() bool {
	return f.Text != nil
}

// IsEnd reports whether the fragment is the end-of-list sentinel.
func (f Frag) IsEnd() bool {
	return len(f.Text) == 2 && f.Text[0] == endByte0 && f.Text[1] == endByte1
}

// The fixed two-byte marker that terminates every variadic fragment
// list handed to the evaluator.
const (
	endByte0 = 0x80
	endByte1 = 0x00
)

// End returns the end-of-list sentinel fragment. Every fragment list
// passed to a Runtime evaluate call must have it as its final element.
func End() Frag {
	return Frag{Text: []byte{endByte0, endByte1}}
}

// Terminated reports whether frags ends with the sentinel.
func Terminated(frags []Frag) bool {
	return len(frags) > 0 && frags[len(frags)-1].IsEnd()
}

// Fragment is the capability shared by anything that can be spliced
// into an evaluate call: owned source text and live runtime values
// both implement it.
type Fragment interface {
	// Fragment returns the borrowed wire representation. The result
	// must not outlive the implementing object.
	Fragment() Frag
}

// Runtime is the fixed entry-point contract of the foreign evaluator.
// The method set mirrors the native C surface one for one; nothing in
// this repository renegotiates it.
//
// Evaluate calls (Eval, EvalQuiet, Did, Elide) take a fragment list
// terminated by End and evaluate it left to right as a single composed
// expression. Errors returned by Runtime methods are host faults
// (memory, missing export, runtime not started); script-level errors
// travel as ordinary values and are classified by the caller.
type Runtime interface {
	// Startup initializes the runtime. rebStartup.
	Startup() error
	// Shutdown tears the runtime down; clean requests full teardown
	// rather than a fast process-exit path. rebShutdown.
	Shutdown(clean bool) error
	// Tick returns the monotonically increasing evaluation step
	// counter. Pure read. rebTick.
	Tick() uint64

	// Value constructors. Defined to always succeed for well-formed
	// native inputs. rebVoid, rebBlank, rebChar, rebInteger, rebDecimal.
	Void() RawValue
	Blank() RawValue
	Char(r rune) RawValue
	Integer(v int64) RawValue
	Decimal(v float64) RawValue

	// Eval evaluates a terminated fragment list and returns the raw
	// result handle. rebValue.
	Eval(frags []Frag) (RawValue, error)
	// EvalQuiet is the quiet variant that does not apply the splicing
	// quote convention to value fragments. rebValueQ.
	EvalQuiet(frags []Frag) (RawValue, error)
	// Did evaluates a terminated fragment list and reduces the result
	// to a boolean. rebDid.
	Did(frags []Frag) (bool, error)
	// Elide evaluates for side effect only and discards the result.
	// rebElide.
	Elide(frags []Frag) error

	// Release gives back one reference to a runtime-owned value.
	// Calling it twice for the same handle corrupts the runtime; the
	// engine layer guarantees exactly one call per owned handle.
	// rebRelease.
	Release(v RawValue)

	// Spell extracts the literal (FORM) string of a value; SpellQuoted
	// extracts the quoted (MOLD) form, as used for identifier-like
	// fields. Implementations copy out of the runtime-owned buffer and
	// free it before returning. rebSpell, rebSpellQ, rebFree.
	Spell(v RawValue) (string, error)
	SpellQuoted(v RawValue) (string, error)

	// UnboxInteger extracts a native integer. The value must be
	// integer-representable; anything else is a precondition violation
	// and behaves as the foreign runtime defines. rebUnboxInteger.
	UnboxInteger(v RawValue) (int64, error)
}
