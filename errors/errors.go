package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the boundary the error occurred
type Phase string

const (
	PhaseStartup  Phase = "startup"  // runtime bring-up
	PhaseShutdown Phase = "shutdown" // runtime teardown
	PhaseLoad     Phase = "load"     // loading the runtime binary
	PhaseEval     Phase = "eval"     // fragment evaluation
	PhaseUnbox    Phase = "unbox"    // native extraction from a value
	PhaseDecode   Phase = "decode"   // error-value field decoding
)

// Kind categorizes the error
type Kind string

const (
	KindHostFault         Kind = "host_fault"
	KindNotRunning        Kind = "not_running"
	KindMissingExport     Kind = "missing_export"
	KindMissingTerminator Kind = "missing_terminator"
	KindInvalidText       Kind = "invalid_text"
	KindInvalidInput      Kind = "invalid_input"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindTypeMismatch      Kind = "type_mismatch"
	KindAllocation        Kind = "allocation"
)

// Error is the structured host-side error type used throughout the
// boundary. Script-level errors are not represented here; those travel
// as engine.ScriptError values.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Startup creates a runtime bring-up error
func Startup(cause error) *Error {
	return &Error{
		Phase:  PhaseStartup,
		Kind:   KindHostFault,
		Detail: "start foreign runtime",
		Cause:  cause,
	}
}

// Shutdown creates a runtime teardown error
func Shutdown(cause error) *Error {
	return &Error{
		Phase:  PhaseShutdown,
		Kind:   KindHostFault,
		Detail: "shut down foreign runtime",
		Cause:  cause,
	}
}

// Eval wraps a host fault raised while evaluating fragments
func Eval(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseEval,
		Kind:   KindHostFault,
		Detail: detail,
		Cause:  cause,
	}
}

// NotRunning is returned when an entry point is called against a
// runtime that has not been started or was already shut down
func NotRunning(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotRunning,
		Detail: "runtime is not running",
	}
}

// MissingExport is returned when the runtime binary lacks one of the
// fixed entry points
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMissingExport,
		Detail: fmt.Sprintf("entry point %q not exported", name),
	}
}

// MissingTerminator is returned for a fragment list without the
// end-of-list sentinel
func MissingTerminator(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingTerminator,
		Detail: "fragment list is not terminated by the end sentinel",
	}
}

// InvalidText is returned for source text that cannot become an owned
// fragment, e.g. an interior NUL byte
func InvalidText(detail string) *Error {
	return &Error{
		Phase:  PhaseEval,
		Kind:   KindInvalidText,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// TypeMismatch is returned when a value cannot be unboxed to the
// requested native shape
func TypeMismatch(phase Phase, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Detail: fmt.Sprintf("want %s, got %s", want, got),
	}
}

// Unbox wraps a host fault raised during native extraction
func Unbox(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseUnbox,
		Kind:   KindHostFault,
		Detail: detail,
		Cause:  cause,
	}
}

// Decode wraps a fault raised while pulling fields out of an error value
func Decode(field string, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindHostFault,
		Detail: fmt.Sprintf("decode field %q", field),
		Cause:  cause,
	}
}

// Load creates a runtime binary loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindHostFault,
		Detail: detail,
		Cause:  cause,
	}
}

// OutOfBounds creates a guest memory bounds error
func OutOfBounds(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseEval,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// AllocationFailed creates a guest allocation failure error
func AllocationFailed(size uint32, cause error) *Error {
	return &Error{
		Phase:  PhaseEval,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes in runtime memory", size),
		Cause:  cause,
	}
}
