package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeState(t *testing.T) {
	bracket := func(line int) string { return "<" + PlainLine(line) + ">" }

	tests := []struct {
		name  string
		state DebuggerState
		want  []string
	}{
		{"exited", DebuggerState{Exited: true, ExitStatus: 3}, []string{"Child exited (status 3)"}},
		{"signaled", DebuggerState{Signaled: true, Signal: "SIGSEGV"}, []string{"Child exited with SIGSEGV"}},
		{
			"stopped",
			DebuggerState{Running: true, Stopped: true, Signal: "SIGTRAP", Function: "leaf", Line: 6, Resolved: true},
			[]string{"Child stopped (signal SIGTRAP)", "Stopped at leaf (<6>)"},
		},
		{
			"unresolved",
			DebuggerState{Running: true, Stopped: true, Signal: "SIGTRAP", PC: 0x10},
			[]string{"Child stopped (signal SIGTRAP)", "Stopped at 0x10, could not resolve function and line"},
		},
		{"not running", DebuggerState{}, []string{"The process is not running"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.state.Describe(bracket))
		})
	}
}

func TestStackframeLocation(t *testing.T) {
	frame := Stackframe{Function: "middle", Line: 12}
	assert.Equal(t, "middle (12)", frame.Location(nil))
}

func TestBreakpointString(t *testing.T) {
	bp := &Breakpoint{ID: 2, Addr: 0x401136, Spec: "leaf", FunctionName: "leaf", Line: 5}
	assert.Equal(t, "Breakpoint 2 at 0x401136 for leaf (5)", bp.String())

	bp = &Breakpoint{ID: 3, Addr: 0x10, Spec: "*0x10"}
	assert.Equal(t, "Breakpoint 3 at 0x10 for *0x10", bp.String())
}

func TestAsmInstructionBytes(t *testing.T) {
	inst := AsmInstruction{Bytes: []byte{0x48, 0x89, 0xe5}}
	assert.Equal(t, "48 89 e5", inst.BytesString())
}
