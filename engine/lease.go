package engine

import "sync/atomic"

// Lease enforces the single-active-runtime invariant: at most one
// Engine may hold a given lease at a time, across all goroutines. The
// default process-wide lease backs New; tests inject private leases
// via WithLease so lifecycle scenarios do not interfere with each
// other.
//
// Acquiring a held lease or releasing an unheld one is fatal misuse.
// The foreign runtime has no notion of two concurrently active
// instances in one process, so there is no safe recovery.
type Lease struct {
	held atomic.Bool
}

// NewLease returns an unheld lease.
func NewLease() *Lease {
	return &Lease{}
}

// Held reports whether an engine currently holds the lease.
func (l *Lease) Held() bool {
	return l.held.Load()
}

func (l *Lease) acquire() {
	if !l.held.CompareAndSwap(false, true) {
		panic("ren: an engine is already running against this lease")
	}
}

func (l *Lease) release() {
	if !l.held.CompareAndSwap(true, false) {
		panic("ren: runtime lease released while not held")
	}
}

// processLease guards the default one-engine-per-process invariant.
var processLease = NewLease()

// ProcessLease returns the process-wide default lease.
func ProcessLease() *Lease {
	return processLease
}
