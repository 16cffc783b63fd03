package libr3

import (
	"bytes"
	"encoding/binary"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	ren "github.com/hostilefork/ren-go"
	"github.com/hostilefork/ren-go/errors"
)

// allocation tracks one guest buffer for end-of-call cleanup.
type allocation struct {
	ptr  uint32
	size uint32
}

// arena allocates scratch buffers in runtime memory for a single
// boundary call and frees all of them afterwards. Fragment text and
// the argv array live exactly as long as the call that uses them.
type arena struct {
	rt     *Runtime
	allocs []allocation
}

func (r *Runtime) newArena() *arena {
	return &arena{rt: r}
}

// bytes copies data into freshly allocated guest memory and returns
// the guest pointer.
func (a *arena) bytes(data []byte) (uint32, error) {
	size := uint32(len(data))
	results, err := a.rt.allocFn.Call(a.rt.ctx, uint64(size))
	if err != nil {
		return 0, errors.AllocationFailed(size, err)
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return 0, errors.AllocationFailed(size, nil)
	}
	a.allocs = append(a.allocs, allocation{ptr: ptr, size: size})

	if !a.rt.mod.Memory().Write(ptr, data) {
		return 0, errors.OutOfBounds("write of %d bytes at %d exceeds runtime memory", size, ptr)
	}
	return ptr, nil
}

// release frees every buffer the arena handed out. Free failures are
// logged, not returned: the call whose scratch this was has already
// produced its result or its error.
func (a *arena) release() {
	for _, al := range a.allocs {
		if _, err := a.rt.freeFn.Call(a.rt.ctx, uint64(al.ptr)); err != nil {
			a.rt.log.Warn("failed to free runtime scratch buffer", zap.Uint32("ptr", al.ptr), zap.Error(err))
		}
	}
	a.allocs = nil
}

// marshalFrags lowers a terminated fragment list into guest memory:
// every text fragment becomes a guest buffer, and the argv array of
// tagged 64-bit entries references them. Bit 0 clear means text
// pointer, set means value handle. The sentinel rides along as an
// ordinary text entry, so the guest sees the same termination
// convention the native variadic API uses.
func (a *arena) marshalFrags(frags []ren.Frag) (argv uint32, argc uint32, err error) {
	entries := make([]uint64, 0, len(frags))
	for _, f := range frags {
		if f.IsText() {
			ptr, err := a.bytes(f.Text)
			if err != nil {
				return 0, 0, err
			}
			entries = append(entries, uint64(ptr)<<1)
			continue
		}
		entries = append(entries, uint64(f.Value)<<1|1)
	}

	buf := make([]byte, 8*len(entries))
	for i, e := range entries {
		binary.LittleEndian.PutUint64(buf[8*i:], e)
	}
	argv, err = a.bytes(buf)
	if err != nil {
		return 0, 0, err
	}
	return argv, uint32(len(entries)), nil
}

// readCString copies a NUL-terminated guest buffer out, chunk by
// chunk. A short read near the memory boundary falls back to single
// bytes before giving up.
func (r *Runtime) readCString(mem api.Memory, ptr uint32) ([]byte, error) {
	const chunk = 64
	var out []byte
	off := ptr
	for {
		view, ok := mem.Read(off, chunk)
		if !ok {
			view, ok = mem.Read(off, 1)
			if !ok {
				return nil, errors.OutOfBounds("unterminated string at %d runs past runtime memory", ptr)
			}
		}
		if i := bytes.IndexByte(view, 0); i >= 0 {
			return append(out, view[:i]...), nil
		}
		out = append(out, view...)
		off += uint32(len(view))
	}
}
