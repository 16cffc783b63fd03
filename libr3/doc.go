// Package libr3 implements the ren.Runtime contract against a
// WebAssembly core-module build of the libr3 evaluator, executed with
// wazero.
//
// The wasm build is expected to export a flat shim over the native
// entry points, plus a linear memory and a guest allocator:
//
//	memory                          linear memory
//	r3_alloc(size) -> ptr           guest allocation
//	r3_free(ptr)                    guest deallocation
//	r3_startup()
//	r3_shutdown(clean)
//	r3_tick() -> u64
//	r3_void() -> handle             value constructors
//	r3_blank() -> handle
//	r3_char(codepoint) -> handle
//	r3_integer(i64) -> handle
//	r3_decimal(f64) -> handle
//	r3_eval(argv, argc) -> handle   evaluate entry points
//	r3_eval_q(argv, argc) -> handle
//	r3_did(argv, argc) -> i32
//	r3_elide(argv, argc)
//	r3_release(handle)
//	r3_spell(handle) -> ptr         runtime-owned C string
//	r3_spell_q(handle) -> ptr
//	r3_unbox_integer(handle) -> i64
//
// Fragment lists cross the boundary as an argv array of 64-bit entries
// in guest memory. Bit 0 tags the entry: clear means the remaining bits
// are a guest pointer to NUL-terminated UTF-8 source text, set means
// they are a value handle. The final entry always points at the
// two-byte end marker, mirroring the native variadic convention.
//
// Spell results are runtime-owned buffers: the host copies the bytes
// out and calls r3_free before returning, so no guest allocation
// outlives the call that produced it.
package libr3
