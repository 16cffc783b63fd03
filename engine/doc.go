// Package engine provides the high-level API of the ren boundary: a
// lease-guarded Engine wrapping one live foreign runtime, owned Value
// handles bound to that engine, owned Text fragments, and the evaluate
// family (Load, Value1, Value2, Value3, Elide) with its error-trapping
// and block-unwrapping protocol.
//
// Exactly one Engine may be live per lease at a time; the default lease
// is process-wide. Constructing a second engine while one is live, or
// closing an engine whose lease is no longer held, is a programming
// error and panics.
package engine
