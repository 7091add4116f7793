package api

// DebuggerState represents the current context of the debugger.
type DebuggerState struct {
	// Running is true if there is a traced process.
	Running bool `json:"running"`
	// Pid is the process ID of the traced process, zero if there is none.
	Pid int `json:"pid"`

	// Stopped is true if the last resume ended with the process suspended
	// by a signal.
	Stopped bool `json:"stopped"`
	// Signal is the name of the signal that stopped or killed the process.
	Signal string `json:"signal,omitempty"`
	// PC is the address the process is suspended at.
	PC uint64 `json:"pc,omitempty"`
	// Function and Line are the source location of PC, Resolved is false
	// if PC could not be mapped.
	Function string `json:"function,omitempty"`
	Line     int    `json:"line,omitempty"`
	Resolved bool   `json:"resolved"`

	// Breakpoint is the breakpoint at which the debugged process is
	// suspended, nil if the process is not suspended at a breakpoint.
	Breakpoint *Breakpoint `json:"breakPoint,omitempty"`
	// PreviousBreakpoint is the breakpoint that was stepped over before
	// resuming.
	PreviousBreakpoint *Breakpoint `json:"previousBreakPoint,omitempty"`

	// Exited indicates whether the debugged process has exited.
	Exited     bool `json:"exited"`
	ExitStatus int  `json:"exitStatus"`
	// Signaled indicates whether the debugged process was terminated by
	// Signal.
	Signaled bool `json:"signaled"`
}

// Breakpoint addresses a location at which process execution may be
// suspended.
type Breakpoint struct {
	// ID is a unique identifier for the breakpoint.
	ID int `json:"id"`
	// Addr is the address of the breakpoint.
	Addr uint64 `json:"addr"`
	// Spec is the location the user asked for.
	Spec string `json:"spec"`
	// FunctionName is the name of the function at the breakpoint, and
	// may not always be available.
	FunctionName string `json:"functionName,omitempty"`
	// Line is the source line of the breakpoint, zero if unknown.
	Line int `json:"line"`
	// Armed is true if the breakpoint is installed in the current process.
	Armed bool `json:"armed"`
	// OriginalByte is the code byte replaced by the breakpoint.
	OriginalByte byte `json:"originalByte"`
}

// Stackframe describes one frame in a stack trace.
type Stackframe struct {
	PC           uint64 `json:"pc"`
	FramePointer uint64 `json:"framePointer"`
	Function     string `json:"function"`
	Line         int    `json:"line"`
}

// AsmInstruction represents one assembly instruction.
type AsmInstruction struct {
	// PC is the address of this instruction.
	PC       uint64 `json:"pc"`
	Function string `json:"function,omitempty"`
	Line     int    `json:"line,omitempty"`
	// Bytes is the instruction as read from memory, with breakpoints
	// removed.
	Bytes []byte `json:"bytes"`
	// Text is the formatted instruction.
	Text string `json:"text"`
	// Breakpoint is true if there is a breakpoint at this instruction
	Breakpoint bool `json:"breakpoint"`
	// AtPC is true if this is the instruction the process is stopped at
	AtPC bool `json:"atpc"`
}
