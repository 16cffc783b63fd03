package miniren

import (
	stderrors "errors"
	"testing"

	ren "github.com/hostilefork/ren-go"
	"github.com/hostilefork/ren-go/errors"
)

func startRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	rt := New(opts...)
	if err := rt.Startup(); err != nil {
		t.Fatalf("startup failed: %v", err)
	}
	t.Cleanup(func() { _ = rt.Shutdown(true) })
	return rt
}

func text(src string) ren.Frag {
	return ren.TextFrag(append([]byte(src), 0))
}

func evalRaw(t *testing.T, rt *Runtime, src string) ren.RawValue {
	t.Helper()
	v, err := rt.Eval([]ren.Frag{text(src), ren.End()})
	if err != nil {
		t.Fatalf("eval %q failed: %v", src, err)
	}
	return v
}

func evalInt(t *testing.T, rt *Runtime, src string) int64 {
	t.Helper()
	v := evalRaw(t, rt, src)
	defer rt.Release(v)
	n, err := rt.UnboxInteger(v)
	if err != nil {
		t.Fatalf("unbox of %q result failed: %v", src, err)
	}
	return n
}

func hostKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()
	var be *errors.Error
	if !stderrors.As(err, &be) {
		t.Fatalf("expected a structured host error, got %T: %v", err, err)
	}
	if be.Kind != kind {
		t.Fatalf("expected kind %s, got %s (%v)", kind, be.Kind, err)
	}
}

func TestStartupTwiceFails(t *testing.T) {
	rt := startRuntime(t)
	if err := rt.Startup(); err == nil {
		t.Fatal("second startup should fail")
	}
}

func TestEvalBeforeStartup(t *testing.T) {
	rt := New()
	_, err := rt.Eval([]ren.Frag{text("1 + 1"), ren.End()})
	if err == nil {
		t.Fatal("eval on a stopped runtime should fail")
	}
	hostKind(t, err, errors.KindNotRunning)
}

func TestShutdownWhenStopped(t *testing.T) {
	rt := New()
	err := rt.Shutdown(true)
	if err == nil {
		t.Fatal("shutdown of a stopped runtime should fail")
	}
	hostKind(t, err, errors.KindNotRunning)
}

func TestMissingTerminator(t *testing.T) {
	rt := startRuntime(t)
	_, err := rt.Eval([]ren.Frag{text("1 + 1")})
	if err == nil {
		t.Fatal("unterminated fragment list should fail")
	}
	hostKind(t, err, errors.KindMissingTerminator)
}

func TestIntegerRoundTrip(t *testing.T) {
	rt := startRuntime(t)
	v := rt.Integer(1020)
	defer rt.Release(v)
	n, err := rt.UnboxInteger(v)
	if err != nil {
		t.Fatalf("unbox failed: %v", err)
	}
	if n != 1020 {
		t.Fatalf("expected 1020, got %d", n)
	}
}

func TestCharUnboxesAsCodepoint(t *testing.T) {
	rt := startRuntime(t)
	v := rt.Char('A')
	defer rt.Release(v)
	n, err := rt.UnboxInteger(v)
	if err != nil {
		t.Fatalf("unbox failed: %v", err)
	}
	if n != 65 {
		t.Fatalf("expected 65, got %d", n)
	}
}

func TestUnboxTypeMismatch(t *testing.T) {
	rt := startRuntime(t)
	v := evalRaw(t, rt, `"not a number"`)
	defer rt.Release(v)
	_, err := rt.UnboxInteger(v)
	if err == nil {
		t.Fatal("unbox of a text value should fail")
	}
	hostKind(t, err, errors.KindTypeMismatch)
}

func TestReleaseUnknownHandlePanics(t *testing.T) {
	rt := startRuntime(t)
	defer func() {
		if recover() == nil {
			t.Fatal("release of an unknown handle should panic")
		}
	}()
	rt.Release(ren.RawValue(999))
}

func TestDoubleReleasePanics(t *testing.T) {
	rt := startRuntime(t)
	v := rt.Integer(7)
	rt.Release(v)
	defer func() {
		if recover() == nil {
			t.Fatal("double release should panic")
		}
	}()
	rt.Release(v)
}

func TestLiveHandles(t *testing.T) {
	rt := startRuntime(t)
	if n := rt.LiveHandles(); n != 0 {
		t.Fatalf("fresh runtime should have 0 live handles, got %d", n)
	}
	a := rt.Integer(1)
	b := rt.Integer(2)
	if n := rt.LiveHandles(); n != 2 {
		t.Fatalf("expected 2 live handles, got %d", n)
	}
	rt.Release(a)
	rt.Release(b)
	if n := rt.LiveHandles(); n != 0 {
		t.Fatalf("expected 0 live handles after release, got %d", n)
	}
}

func TestValueFragmentSplicing(t *testing.T) {
	rt := startRuntime(t)
	one := rt.Integer(1)
	defer rt.Release(one)
	v, err := rt.Eval([]ren.Frag{text("1 + "), ren.ValueFrag(one), ren.End()})
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	defer rt.Release(v)
	n, err := rt.UnboxInteger(v)
	if err != nil {
		t.Fatalf("unbox failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestUnknownValueFragment(t *testing.T) {
	rt := startRuntime(t)
	_, err := rt.Eval([]ren.Frag{text("1 + "), ren.ValueFrag(12345), ren.End()})
	if err == nil {
		t.Fatal("eval with an unknown value handle should fail")
	}
	hostKind(t, err, errors.KindInvalidInput)
}

func TestDid(t *testing.T) {
	rt := startRuntime(t)
	for src, want := range map[string]bool{
		"1 < 2":           true,
		"2 < 1":           false,
		"integer? 5":      true,
		`integer? "five"`: false,
	} {
		got, err := rt.Did([]ren.Frag{text(src), ren.End()})
		if err != nil {
			t.Fatalf("did %q failed: %v", src, err)
		}
		if got != want {
			t.Fatalf("did %q: expected %v, got %v", src, want, got)
		}
	}
}

func TestElideDoesNotLeakHandles(t *testing.T) {
	rt := startRuntime(t)
	if err := rt.Elide([]ren.Frag{text("x: 3 + 4"), ren.End()}); err != nil {
		t.Fatalf("elide failed: %v", err)
	}
	if n := rt.LiveHandles(); n != 0 {
		t.Fatalf("elide should not allocate handles, got %d live", n)
	}
	if got := evalInt(t, rt, "x"); got != 7 {
		t.Fatalf("expected x = 7, got %d", got)
	}
}

func TestSpellFormAndMold(t *testing.T) {
	rt := startRuntime(t)
	v := evalRaw(t, rt, `"hello"`)
	defer rt.Release(v)

	form, err := rt.Spell(v)
	if err != nil {
		t.Fatalf("spell failed: %v", err)
	}
	if form != "hello" {
		t.Fatalf("expected form %q, got %q", "hello", form)
	}

	mold, err := rt.SpellQuoted(v)
	if err != nil {
		t.Fatalf("spell quoted failed: %v", err)
	}
	if mold != `"hello"` {
		t.Fatalf("expected mold %q, got %q", `"hello"`, mold)
	}
}

func TestSpellUnicode(t *testing.T) {
	rt := startRuntime(t)
	const phrase = "визит и землетрясение"
	v := evalRaw(t, rt, `"`+phrase+`"`)
	defer rt.Release(v)
	got, err := rt.Spell(v)
	if err != nil {
		t.Fatalf("spell failed: %v", err)
	}
	if got != phrase {
		t.Fatalf("expected %q, got %q", phrase, got)
	}
}

func TestTickAdvances(t *testing.T) {
	rt := startRuntime(t)
	before := rt.Tick()
	v := evalRaw(t, rt, "1 + 2 + 3")
	rt.Release(v)
	after := rt.Tick()
	if after <= before {
		t.Fatalf("tick should advance across evaluation, before=%d after=%d", before, after)
	}
}

func TestUntrappedErrorBecomesErrorValue(t *testing.T) {
	rt := startRuntime(t)
	v, err := rt.Eval([]ren.Frag{text("1 / 0"), ren.End()})
	if err != nil {
		t.Fatalf("script error should not surface as a host fault: %v", err)
	}
	defer rt.Release(v)
	isErr, err := rt.Did([]ren.Frag{text("error? "), ren.ValueFrag(v), ren.End()})
	if err != nil {
		t.Fatalf("did failed: %v", err)
	}
	if !isErr {
		t.Fatal("division by zero should evaluate to an error value")
	}
}
