package miniren

import (
	"bytes"
	"io"
	"os"
	"sync"

	ren "github.com/hostilefork/ren-go"
	"github.com/hostilefork/ren-go/errors"
)

// Runtime implements ren.Runtime in pure Go. Every produced value
// lives in a handle table until released, so tests can assert the
// exactly-once release discipline via LiveHandles.
type Runtime struct {
	mu      sync.Mutex
	out     io.Writer
	ev      *evaluator
	handles map[ren.RawValue]*cell
	next    ren.RawValue
	tick    uint64
	started bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithOutput redirects print output; the default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(rt *Runtime) { rt.out = w }
}

// New returns a stopped runtime. Startup brings it up; engine.New does
// that for you.
func New(opts ...Option) *Runtime {
	rt := &Runtime{out: os.Stdout}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// LiveHandles reports how many produced values have not been released.
func (rt *Runtime) LiveHandles() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.handles)
}

// Startup implements ren.Runtime.
func (rt *Runtime) Startup() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.started {
		return errors.InvalidInput(errors.PhaseStartup, "runtime already started")
	}
	rt.ev = newEvaluator(rt)
	rt.ev.installNatives(rt.out)
	rt.handles = make(map[ren.RawValue]*cell)
	rt.next = 0
	rt.started = true
	return nil
}

// Shutdown implements ren.Runtime. A clean shutdown drops every
// outstanding handle along with the evaluator state.
func (rt *Runtime) Shutdown(clean bool) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if !rt.started {
		return errors.NotRunning(errors.PhaseShutdown)
	}
	rt.started = false
	rt.ev = nil
	if clean {
		rt.handles = nil
	}
	return nil
}

// Tick implements ren.Runtime: one tick per evaluation step.
func (rt *Runtime) Tick() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.tick
}

// Value constructors.

func (rt *Runtime) Void() ren.RawValue  { return rt.alloc(voidCell) }
func (rt *Runtime) Blank() ren.RawValue { return rt.alloc(blankCell) }

func (rt *Runtime) Char(r rune) ren.RawValue {
	return rt.alloc(charCell(r))
}

func (rt *Runtime) Integer(v int64) ren.RawValue {
	return rt.alloc(intCell(v))
}

func (rt *Runtime) Decimal(v float64) ren.RawValue {
	return rt.alloc(decimalCell(v))
}

// Eval implements ren.Runtime.
func (rt *Runtime) Eval(frags []ren.Frag) (ren.RawValue, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	result, err := rt.run(frags)
	if err != nil {
		return 0, err
	}
	return rt.allocLocked(result), nil
}

// EvalQuiet implements ren.Runtime. The quiet variant differs only in
// the splicing quote convention, which the subset does not surface, so
// it shares Eval's behavior here.
func (rt *Runtime) EvalQuiet(frags []ren.Frag) (ren.RawValue, error) {
	return rt.Eval(frags)
}

// Did implements ren.Runtime.
func (rt *Runtime) Did(frags []ren.Frag) (bool, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	result, err := rt.run(frags)
	if err != nil {
		return false, err
	}
	return result.truthy(), nil
}

// Elide implements ren.Runtime.
func (rt *Runtime) Elide(frags []ren.Frag) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, err := rt.run(frags)
	return err
}

// Release implements ren.Runtime. Releasing a handle twice is the
// corruption the engine layer exists to prevent; the strict test
// backend makes it loud instead of silent.
func (rt *Runtime) Release(v ren.RawValue) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, ok := rt.handles[v]; !ok {
		panic("miniren: release of unknown or already-released handle")
	}
	delete(rt.handles, v)
}

// Spell implements ren.Runtime (FORM spelling).
func (rt *Runtime) Spell(v ren.RawValue) (string, error) {
	c, err := rt.fetch(v)
	if err != nil {
		return "", err
	}
	return c.form(), nil
}

// SpellQuoted implements ren.Runtime (MOLD spelling).
func (rt *Runtime) SpellQuoted(v ren.RawValue) (string, error) {
	c, err := rt.fetch(v)
	if err != nil {
		return "", err
	}
	return c.mold(), nil
}

// UnboxInteger implements ren.Runtime.
func (rt *Runtime) UnboxInteger(v ren.RawValue) (int64, error) {
	c, err := rt.fetch(v)
	if err != nil {
		return 0, err
	}
	switch c.kind {
	case kindInteger:
		return c.i, nil
	case kindChar:
		return int64(c.r), nil
	}
	return 0, errors.TypeMismatch(errors.PhaseUnbox, "integer", c.kind.String())
}

// run splices a terminated fragment list into one token stream,
// parses the bracket structure, and evaluates it as a single composed
// expression. A script-level error that nothing trapped comes back as
// an error value, which is what lets the untrapped load path classify it
// with a separate error? check.
func (rt *Runtime) run(frags []ren.Frag) (*cell, error) {
	if !rt.started {
		return nil, errors.NotRunning(errors.PhaseEval)
	}
	if !ren.Terminated(frags) {
		return nil, errors.MissingTerminator(errors.PhaseEval)
	}

	var toks []token
	for _, f := range frags[:len(frags)-1] {
		if f.IsText() {
			text := f.Text
			if i := bytes.IndexByte(text, 0); i >= 0 {
				text = text[:i]
			}
			lexed, err := lex(string(text))
			if err != nil {
				return rt.trap(err)
			}
			toks = append(toks, lexed...)
			continue
		}
		c, ok := rt.handles[f.Value]
		if !ok {
			return nil, errors.InvalidInput(errors.PhaseEval, "fragment references an unknown value handle")
		}
		toks = append(toks, token{cell: c})
	}

	cells, err := parse(toks)
	if err != nil {
		return rt.trap(err)
	}
	result, err := rt.ev.evalBlock(cells, rt.ev.global)
	if err != nil {
		return rt.trap(err)
	}
	return result, nil
}

// trap converts an escaped script-level error into an error value;
// anything else is a host fault and propagates.
func (rt *Runtime) trap(err error) (*cell, error) {
	switch e := err.(type) {
	case *raised:
		return &cell{kind: kindError, err: e.err}, nil
	case *returned:
		r := raise("script", "return-escaped", "return was called outside of a function").(*raised)
		return &cell{kind: kindError, err: r.err}, nil
	}
	return nil, err
}

func (rt *Runtime) alloc(c *cell) ren.RawValue {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.allocLocked(c)
}

func (rt *Runtime) allocLocked(c *cell) ren.RawValue {
	rt.next++
	rt.handles[rt.next] = c
	return rt.next
}

func (rt *Runtime) fetch(v ren.RawValue) (*cell, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	c, ok := rt.handles[v]
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseUnbox, "unknown value handle")
	}
	return c, nil
}

var _ ren.Runtime = (*Runtime)(nil)
