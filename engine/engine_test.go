package engine

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	ren "github.com/hostilefork/ren-go"
	"github.com/hostilefork/ren-go/miniren"
)

// newEngine starts an engine against a private lease and a fresh
// in-process runtime, so lifecycle tests do not contend for the
// process-wide lease.
func newEngine(t *testing.T, opts ...miniren.Option) (*Engine, *miniren.Runtime) {
	t.Helper()
	rt := miniren.New(opts...)
	e, err := New(rt, WithLease(NewLease()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, rt
}

func TestEngineLifecycle(t *testing.T) {
	lease := NewLease()
	e, err := New(miniren.New(), WithLease(lease))
	require.NoError(t, err)
	require.True(t, lease.Held())

	require.NoError(t, e.Close())
	require.False(t, lease.Held())
}

func TestSecondEnginePanics(t *testing.T) {
	lease := NewLease()
	e, err := New(miniren.New(), WithLease(lease))
	require.NoError(t, err)
	defer e.Close()

	require.Panics(t, func() {
		_, _ = New(miniren.New(), WithLease(lease))
	})
}

// failingRuntime refuses to start; the embedded interface is never
// reached.
type failingRuntime struct {
	ren.Runtime
}

func (failingRuntime) Startup() error {
	return fmt.Errorf("refused")
}

func TestStartupFailureReleasesLease(t *testing.T) {
	lease := NewLease()
	_, err := New(failingRuntime{}, WithLease(lease))
	require.Error(t, err)
	require.False(t, lease.Held(), "a failed startup must give the lease back")

	// The lease is reusable after the failure.
	e, err := New(miniren.New(), WithLease(lease))
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

func TestIntegerRoundTrip(t *testing.T) {
	e, _ := newEngine(t)
	v := e.Integer(1020)
	defer v.Release()

	n, err := v.UnboxInteger()
	require.NoError(t, err)
	require.Equal(t, int64(1020), n)
}

func TestValue1Arithmetic(t *testing.T) {
	e, _ := newEngine(t)
	v, err := e.Value1(MustText("1 + 1"))
	require.NoError(t, err)
	defer v.Release()

	n, err := v.UnboxInteger()
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestLoadArithmetic(t *testing.T) {
	e, _ := newEngine(t)
	v, err := e.Load("1 + 1")
	require.NoError(t, err)
	defer v.Release()

	n, err := v.UnboxInteger()
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestValue1ScriptError(t *testing.T) {
	e, rt := newEngine(t)
	_, err := e.Value1(MustText("1 / 0"))
	require.Error(t, err)

	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
	require.Equal(t, "math", scriptErr.Type)
	require.Equal(t, "zero-divide", scriptErr.ID)
	require.Equal(t, "attempt to divide by zero", scriptErr.Message)
	require.Equal(t, "user", scriptErr.File)
	require.Empty(t, scriptErr.Near)
	require.Empty(t, scriptErr.Where)
	require.Zero(t, scriptErr.Line)

	require.Zero(t, rt.LiveHandles(), "error decoding must release every intermediate value")
}

func TestLoadScriptError(t *testing.T) {
	e, rt := newEngine(t)
	_, err := e.Load("1 / 0")

	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
	require.Equal(t, "zero-divide", scriptErr.ID)
	require.Zero(t, rt.LiveHandles())
}

func TestValue2Composition(t *testing.T) {
	e, _ := newEngine(t)
	one := e.Integer(1)
	defer one.Release()

	v, err := e.Value2(MustText("1 +"), one)
	require.NoError(t, err)
	defer v.Release()

	n, err := v.UnboxInteger()
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestValue3Untrapped(t *testing.T) {
	e, _ := newEngine(t)
	v, err := e.Value3(MustText("1"), MustText("+"), MustText("1"))
	require.NoError(t, err)
	defer v.Release()

	n, err := v.UnboxInteger()
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestElidePrints(t *testing.T) {
	var out bytes.Buffer
	e, _ := newEngine(t, miniren.WithOutput(&out))

	require.NoError(t, e.Elide(MustText(`print "Hello, World!"`)))
	require.Equal(t, "Hello, World!\n", out.String())
}

func TestFibonacciApplication(t *testing.T) {
	e, rt := newEngine(t)
	fib, err := e.Load(`fib: func [n] [
		either n <= 1 [n] [(fib n - 1) + (fib n - 2)]
	]`)
	require.NoError(t, err)
	defer fib.Release()

	want := []int64{0, 1, 1, 2, 3, 5, 8, 13, 21, 34, 55}
	for n, expected := range want {
		arg := e.Integer(int64(n))
		v, err := e.Value2(fib, arg)
		require.NoError(t, err, "fib %d", n)

		got, err := v.UnboxInteger()
		require.NoError(t, err)
		require.Equal(t, expected, got, "fib %d", n)

		v.Release()
		arg.Release()
	}

	fib.Release()
	require.Equal(t, 0, rt.LiveHandles(), "every produced value must be released exactly once")
}

func TestUnicodeSpell(t *testing.T) {
	e, _ := newEngine(t)
	const phrase = "визит и землетрясение"

	v, err := e.Value1(MustText(`"` + phrase + `"`))
	require.NoError(t, err)
	defer v.Release()

	got, err := v.UnboxString()
	require.NoError(t, err)
	require.Equal(t, phrase, got)
}

func TestSpellQuotedKeepsQuotes(t *testing.T) {
	e, _ := newEngine(t)
	v, err := e.Value1(MustText(`"hello"`))
	require.NoError(t, err)
	defer v.Release()

	form, err := v.UnboxString()
	require.NoError(t, err)
	require.Equal(t, "hello", form)

	mold, err := v.UnboxStringQ()
	require.NoError(t, err)
	require.Equal(t, `"hello"`, mold)
}

func TestTickAdvances(t *testing.T) {
	e, _ := newEngine(t)
	before := e.Tick()

	v, err := e.Value1(MustText("1 + 2 + 3"))
	require.NoError(t, err)
	v.Release()

	require.Greater(t, e.Tick(), before)
}

func TestMapFieldReleasesIntermediate(t *testing.T) {
	e, rt := newEngine(t)
	errv, err := e.Value3(MustText("1"), MustText("/"), MustText("0"))
	require.NoError(t, err)

	typ, err := e.MapField(errv, "type", (*Value).UnboxStringQ)
	require.NoError(t, err)
	require.Equal(t, "math", typ)

	errv.Release()
	require.Zero(t, rt.LiveHandles())
}
