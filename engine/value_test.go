package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTextRejectsInteriorNUL(t *testing.T) {
	_, err := NewText("bad\x00text")
	require.Error(t, err)
}

func TestMustTextPanicsOnInteriorNUL(t *testing.T) {
	require.Panics(t, func() { MustText("bad\x00text") })
}

func TestTextRoundTrip(t *testing.T) {
	txt, err := NewText("1 + 1")
	require.NoError(t, err)
	require.Equal(t, "1 + 1", txt.String())

	frag := txt.Fragment()
	require.True(t, frag.IsText())
	require.Equal(t, byte(0), frag.Text[len(frag.Text)-1], "fragment text must be NUL-terminated")
}

func TestReleaseIsIdempotent(t *testing.T) {
	e, rt := newEngine(t)
	v := e.Integer(7)

	v.Release()
	v.Release() // second call is a no-op, not a double free
	require.Zero(t, rt.LiveHandles())
}

func TestUseAfterReleasePanics(t *testing.T) {
	e, _ := newEngine(t)
	v := e.Integer(7)
	v.Release()

	require.Panics(t, func() { v.Fragment() })
	require.Panics(t, func() { _, _ = v.UnboxInteger() })
}

func TestValuesReleaseIndependently(t *testing.T) {
	e, rt := newEngine(t)
	a := e.Integer(1)
	b := e.Integer(2)
	require.Equal(t, 2, rt.LiveHandles())

	a.Release()
	require.Equal(t, 1, rt.LiveHandles())

	n, err := b.UnboxInteger()
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	b.Release()
	require.Zero(t, rt.LiveHandles())
}
