package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "phase and kind only",
			err:  &Error{Phase: PhaseEval, Kind: KindHostFault},
			want: "[eval] host_fault",
		},
		{
			name: "with detail",
			err:  &Error{Phase: PhaseLoad, Kind: KindMissingExport, Detail: `entry point "rebTick" not exported`},
			want: `[load] missing_export: entry point "rebTick" not exported`,
		},
		{
			name: "with cause",
			err:  Eval("evaluate fragments", fmt.Errorf("trap")),
			want: "[eval] host_fault: evaluate fragments (caused by: trap)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := MissingTerminator(PhaseEval)

	if !stderrors.Is(err, &Error{Phase: PhaseEval, Kind: KindMissingTerminator}) {
		t.Error("expected Is to match on phase and kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseUnbox, Kind: KindMissingTerminator}) {
		t.Error("expected Is to reject a different phase")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("out of memory")
	err := AllocationFailed(64, cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestBuilder(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := New(PhaseDecode, KindHostFault).
		Detail("decode field %q", "message").
		Cause(cause).
		Build()

	if err.Phase != PhaseDecode || err.Kind != KindHostFault {
		t.Fatalf("builder lost phase/kind: %v", err)
	}
	if !strings.Contains(err.Error(), `"message"`) {
		t.Errorf("detail not formatted: %q", err.Error())
	}
	if err.Unwrap() != cause {
		t.Error("cause not preserved")
	}
}
