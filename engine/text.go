package engine

import (
	"strings"

	ren "github.com/hostilefork/ren-go"
	"github.com/hostilefork/ren-go/errors"
)

// Text is an owned, immutable, NUL-terminated UTF-8 buffer usable as
// an evaluable fragment. It never owns a runtime value, so it needs no
// release.
type Text struct {
	buf []byte
}

// NewText builds an owned fragment from source text. Interior NUL
// bytes cannot be represented in the runtime's C string convention and
// are rejected.
func NewText(s string) (*Text, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, errors.InvalidText("source text contains an interior NUL byte")
	}
	buf := make([]byte, 0, len(s)+1)
	buf = append(buf, s...)
	buf = append(buf, 0)
	return &Text{buf: buf}, nil
}

// MustText is NewText for literals known to be NUL-free; it panics on
// invalid input.
func MustText(s string) *Text {
	t, err := NewText(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Fragment implements ren.Fragment.
func (t *Text) Fragment() ren.Frag {
	return ren.TextFrag(t.buf)
}

// String returns the source text without the terminator.
func (t *Text) String() string {
	return string(t.buf[:len(t.buf)-1])
}
