// Package ren provides a safe Go boundary around the Ren-C scripting
// runtime ("libr3").
//
// The foreign runtime exposes an unsafe, pointer-based C evaluation
// API. This library turns it into a lifetime-checked, reference-released
// value system with a uniform error-trapping protocol: at most one live
// engine per process, every produced value tied to the engine that made
// it, and evaluation errors surfaced as structured Go errors instead of
// native faults.
//
// # Architecture Overview
//
//	ren/             Root package with the Frag wire type, the Fragment
//	                 capability, and the fixed Runtime entry-point contract
//	├── engine/      High-level API: lease-guarded Engine lifecycle, value
//	                 constructors, the evaluate family, error decoding
//	├── errors/      Structured host-side error types for debugging
//	├── libr3/       wazero-backed Runtime loading a core-wasm libr3 build
//	├── miniren/     Pure-Go Runtime implementing a small evaluator subset,
//	                 used by tests and as a dependency-free backend
//	└── cmd/ren/     CLI and interactive REPL
//
// # Quick Start
//
// Evaluate an expression against the built-in backend:
//
//	eng, err := engine.New(miniren.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	two, err := eng.Value1(engine.MustText("1 + 1"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer two.Release()
//
//	n, _ := two.UnboxInteger()
//	fmt.Println(n) // 2
//
// # Ownership
//
// Every Value owns exactly one runtime reference and releases it exactly
// once, on Release; Release is safe to defer alongside early-return
// paths. A Value must not be used after the engine that produced it has
// been closed — that discipline is the caller's, not runtime-checked.
//
// # Thread Safety
//
// The engine lease gates existence, not calls: one live Engine per
// process across all goroutines, but a live Engine is meant to be used
// from a single goroutine for its whole lifetime. The wrapper is fully
// synchronous; evaluate calls block until the runtime returns, with no
// cancellation or timeout at this layer.
package ren
