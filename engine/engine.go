package engine

import (
	"go.uber.org/zap"

	ren "github.com/hostilefork/ren-go"
	"github.com/hostilefork/ren-go/errors"
)

// Engine is the live handle to the foreign runtime. It owns the
// startup/shutdown pairing and is the only producer of Values.
//
// An Engine is meant to be used from a single goroutine for its whole
// lifetime; the lease gates existence, not individual calls.
type Engine struct {
	rt    ren.Runtime
	lease *Lease
	log   *zap.Logger
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLease substitutes a private lease for the process-wide default.
func WithLease(l *Lease) Option {
	return func(e *Engine) { e.lease = l }
}

// WithLogger attaches a zap logger; the default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New acquires the lease, starts the foreign runtime, and returns the
// engine. It panics if an engine already holds the lease: concurrent
// or nested engine creation is a programming error, not a recoverable
// condition. A startup fault releases the lease and is returned as a
// structured error.
func New(rt ren.Runtime, opts ...Option) (*Engine, error) {
	e := &Engine{
		rt:    rt,
		lease: processLease,
		log:   Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.lease.acquire()
	if err := rt.Startup(); err != nil {
		e.lease.release()
		return nil, errors.Startup(err)
	}

	e.log.Debug("engine started")
	return e, nil
}

// Close shuts the foreign runtime down (full teardown) and releases
// the lease. It panics if the lease is no longer held at close time:
// that means the invariant was corrupted externally. Values produced
// by this engine must not be used afterwards.
func (e *Engine) Close() error {
	e.log.Debug("engine closing")
	err := e.rt.Shutdown(true)
	e.lease.release()
	if err != nil {
		return errors.Shutdown(err)
	}
	return nil
}

// Tick returns the runtime's monotonically increasing evaluation step
// counter. Pure read, no side effects.
func (e *Engine) Tick() uint64 {
	return e.rt.Tick()
}

// Value constructors. Each calls one foreign constructor and binds the
// resulting handle to this engine. These are defined to always succeed
// for well-formed native inputs; character validity is the caller's
// responsibility and is not validated at this layer.

// Void returns a new void value.
func (e *Engine) Void() *Value {
	return e.wrap(e.rt.Void())
}

// Blank returns a new blank value.
func (e *Engine) Blank() *Value {
	return e.wrap(e.rt.Blank())
}

// Char returns a new character value.
func (e *Engine) Char(r rune) *Value {
	return e.wrap(e.rt.Char(r))
}

// Integer returns a new integer value.
func (e *Engine) Integer(v int64) *Value {
	return e.wrap(e.rt.Integer(v))
}

// Decimal returns a new decimal value.
func (e *Engine) Decimal(v float64) *Value {
	return e.wrap(e.rt.Decimal(v))
}

func (e *Engine) wrap(raw ren.RawValue) *Value {
	return &Value{eng: e, raw: raw}
}
