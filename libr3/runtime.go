package libr3

import (
	"context"
	"math"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	ren "github.com/hostilefork/ren-go"
	"github.com/hostilefork/ren-go/errors"
)

// Shim export names. The wasm build must provide all of them; New
// fails fast on the first one missing.
const (
	expAlloc        = "r3_alloc"
	expFree         = "r3_free"
	expStartup      = "r3_startup"
	expShutdown     = "r3_shutdown"
	expTick         = "r3_tick"
	expVoid         = "r3_void"
	expBlank        = "r3_blank"
	expChar         = "r3_char"
	expInteger      = "r3_integer"
	expDecimal      = "r3_decimal"
	expEval         = "r3_eval"
	expEvalQ        = "r3_eval_q"
	expDid          = "r3_did"
	expElide        = "r3_elide"
	expRelease      = "r3_release"
	expSpell        = "r3_spell"
	expSpellQ       = "r3_spell_q"
	expUnboxInteger = "r3_unbox_integer"
)

// Runtime implements ren.Runtime by driving a libr3 wasm instance.
// Like the instance it wraps, it is not safe for concurrent use; the
// engine layer already serializes access.
type Runtime struct {
	ctx context.Context
	log *zap.Logger
	wz  wazero.Runtime
	mod api.Module

	allocFn    api.Function
	freeFn     api.Function
	startupFn  api.Function
	shutdownFn api.Function
	tickFn     api.Function
	voidFn     api.Function
	blankFn    api.Function
	charFn     api.Function
	integerFn  api.Function
	decimalFn  api.Function
	evalFn     api.Function
	evalQFn    api.Function
	didFn      api.Function
	elideFn    api.Function
	releaseFn  api.Function
	spellFn    api.Function
	spellQFn   api.Function
	unboxIntFn api.Function

	started bool
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithLogger attaches a zap logger; the default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runtime) { r.log = log }
}

// New compiles and instantiates the libr3 wasm build described by cfg
// and resolves the full shim export set. The returned runtime is
// stopped; engine.New starts it.
func New(ctx context.Context, cfg Config, opts ...Option) (*Runtime, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}

	wasmBytes := cfg.WasmBytes
	if wasmBytes == nil {
		var err error
		wasmBytes, err = os.ReadFile(cfg.WasmPath)
		if err != nil {
			return nil, errors.Load("read runtime binary", err)
		}
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	r := &Runtime{
		ctx: ctx,
		log: zap.NewNop(),
		wz:  wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r.wz); err != nil {
		r.wz.Close(ctx)
		return nil, errors.Load("instantiate WASI", err)
	}

	modCfg := wazero.NewModuleConfig().
		WithName("libr3").
		WithStartFunctions("_initialize")
	mod, err := r.wz.InstantiateWithConfig(ctx, wasmBytes, modCfg)
	if err != nil {
		r.wz.Close(ctx)
		return nil, errors.Load("instantiate runtime module", err)
	}
	r.mod = mod

	if err := r.resolveExports(); err != nil {
		r.wz.Close(ctx)
		return nil, err
	}
	return r, nil
}

func (r *Runtime) resolveExports() error {
	if r.mod.Memory() == nil {
		return errors.MissingExport("memory")
	}
	for _, e := range []struct {
		name string
		fn   *api.Function
	}{
		{expAlloc, &r.allocFn},
		{expFree, &r.freeFn},
		{expStartup, &r.startupFn},
		{expShutdown, &r.shutdownFn},
		{expTick, &r.tickFn},
		{expVoid, &r.voidFn},
		{expBlank, &r.blankFn},
		{expChar, &r.charFn},
		{expInteger, &r.integerFn},
		{expDecimal, &r.decimalFn},
		{expEval, &r.evalFn},
		{expEvalQ, &r.evalQFn},
		{expDid, &r.didFn},
		{expElide, &r.elideFn},
		{expRelease, &r.releaseFn},
		{expSpell, &r.spellFn},
		{expSpellQ, &r.spellQFn},
		{expUnboxInteger, &r.unboxIntFn},
	} {
		fn := r.mod.ExportedFunction(e.name)
		if fn == nil {
			return errors.MissingExport(e.name)
		}
		*e.fn = fn
	}
	return nil
}

// Close tears down the wasm instance and the wazero runtime. It is
// separate from Shutdown: Shutdown stops the evaluator, Close discards
// the whole instance.
func (r *Runtime) Close() error {
	if err := r.mod.Close(r.ctx); err != nil {
		r.wz.Close(r.ctx)
		return errors.Shutdown(err)
	}
	if err := r.wz.Close(r.ctx); err != nil {
		return errors.Shutdown(err)
	}
	return nil
}

// Startup implements ren.Runtime.
func (r *Runtime) Startup() error {
	if r.started {
		return errors.InvalidInput(errors.PhaseStartup, "runtime already started")
	}
	if _, err := r.startupFn.Call(r.ctx); err != nil {
		return err
	}
	r.started = true
	return nil
}

// Shutdown implements ren.Runtime.
func (r *Runtime) Shutdown(clean bool) error {
	if !r.started {
		return errors.NotRunning(errors.PhaseShutdown)
	}
	r.started = false
	var flag uint64
	if clean {
		flag = 1
	}
	_, err := r.shutdownFn.Call(r.ctx, flag)
	return err
}

// Tick implements ren.Runtime.
func (r *Runtime) Tick() uint64 {
	results, err := r.tickFn.Call(r.ctx)
	if err != nil {
		r.log.Warn("tick read failed", zap.Error(err))
		return 0
	}
	return results[0]
}

// Value constructors. A construction fault leaves the caller with the
// null handle, which the engine layer refuses to use.

func (r *Runtime) Void() ren.RawValue  { return r.construct(r.voidFn) }
func (r *Runtime) Blank() ren.RawValue { return r.construct(r.blankFn) }

func (r *Runtime) Char(c rune) ren.RawValue {
	return r.construct(r.charFn, uint64(uint32(c)))
}

func (r *Runtime) Integer(v int64) ren.RawValue {
	return r.construct(r.integerFn, uint64(v))
}

func (r *Runtime) Decimal(v float64) ren.RawValue {
	return r.construct(r.decimalFn, math.Float64bits(v))
}

func (r *Runtime) construct(fn api.Function, args ...uint64) ren.RawValue {
	results, err := fn.Call(r.ctx, args...)
	if err != nil {
		r.log.Error("value construction trapped", zap.Error(err))
		return 0
	}
	return ren.RawValue(results[0])
}

// Eval implements ren.Runtime.
func (r *Runtime) Eval(frags []ren.Frag) (ren.RawValue, error) {
	results, err := r.evaluate(r.evalFn, frags)
	if err != nil {
		return 0, err
	}
	return ren.RawValue(results[0]), nil
}

// EvalQuiet implements ren.Runtime.
func (r *Runtime) EvalQuiet(frags []ren.Frag) (ren.RawValue, error) {
	results, err := r.evaluate(r.evalQFn, frags)
	if err != nil {
		return 0, err
	}
	return ren.RawValue(results[0]), nil
}

// Did implements ren.Runtime.
func (r *Runtime) Did(frags []ren.Frag) (bool, error) {
	results, err := r.evaluate(r.didFn, frags)
	if err != nil {
		return false, err
	}
	return uint32(results[0]) != 0, nil
}

// Elide implements ren.Runtime.
func (r *Runtime) Elide(frags []ren.Frag) error {
	_, err := r.evaluate(r.elideFn, frags)
	return err
}

// evaluate lowers the fragment list into guest memory, invokes one of
// the evaluate exports, and frees the scratch buffers on every path.
func (r *Runtime) evaluate(fn api.Function, frags []ren.Frag) ([]uint64, error) {
	if !r.started {
		return nil, errors.NotRunning(errors.PhaseEval)
	}
	if !ren.Terminated(frags) {
		return nil, errors.MissingTerminator(errors.PhaseEval)
	}

	a := r.newArena()
	defer a.release()

	argv, argc, err := a.marshalFrags(frags)
	if err != nil {
		return nil, err
	}
	return fn.Call(r.ctx, uint64(argv), uint64(argc))
}

// Release implements ren.Runtime.
func (r *Runtime) Release(v ren.RawValue) {
	if _, err := r.releaseFn.Call(r.ctx, uint64(v)); err != nil {
		r.log.Error("value release trapped", zap.Uint64("handle", uint64(v)), zap.Error(err))
	}
}

// Spell implements ren.Runtime (FORM spelling).
func (r *Runtime) Spell(v ren.RawValue) (string, error) {
	return r.spell(r.spellFn, v)
}

// SpellQuoted implements ren.Runtime (MOLD spelling).
func (r *Runtime) SpellQuoted(v ren.RawValue) (string, error) {
	return r.spell(r.spellQFn, v)
}

// spell copies the runtime-owned spelling buffer out and frees it
// before returning, so the guest allocation never outlives the call.
func (r *Runtime) spell(fn api.Function, v ren.RawValue) (string, error) {
	if !r.started {
		return "", errors.NotRunning(errors.PhaseUnbox)
	}
	results, err := fn.Call(r.ctx, uint64(v))
	if err != nil {
		return "", err
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return "", errors.InvalidInput(errors.PhaseUnbox, "value has no spelling")
	}

	data, readErr := r.readCString(r.mod.Memory(), ptr)
	if _, err := r.freeFn.Call(r.ctx, uint64(ptr)); err != nil {
		r.log.Warn("failed to free spelling buffer", zap.Uint32("ptr", ptr), zap.Error(err))
	}
	if readErr != nil {
		return "", readErr
	}
	return string(data), nil
}

// UnboxInteger implements ren.Runtime.
func (r *Runtime) UnboxInteger(v ren.RawValue) (int64, error) {
	if !r.started {
		return 0, errors.NotRunning(errors.PhaseUnbox)
	}
	results, err := r.unboxIntFn.Call(r.ctx, uint64(v))
	if err != nil {
		return 0, err
	}
	return int64(results[0]), nil
}

var _ ren.Runtime = (*Runtime)(nil)
