package api

import (
	"fmt"
	"strconv"
)

// LineFormatter formats a source line number for display.
type LineFormatter func(line int) string

// PlainLine formats line without decorations.
func PlainLine(line int) string {
	return strconv.Itoa(line)
}

// Describe returns the messages reporting how the last resume of the
// process ended.
func (s *DebuggerState) Describe(fmtLine LineFormatter) []string {
	if fmtLine == nil {
		fmtLine = PlainLine
	}
	switch {
	case s.Exited:
		return []string{fmt.Sprintf("Child exited (status %d)", s.ExitStatus)}
	case s.Signaled:
		return []string{fmt.Sprintf("Child exited with %s", s.Signal)}
	case s.Stopped:
		r := []string{fmt.Sprintf("Child stopped (signal %s)", s.Signal)}
		if s.Resolved {
			r = append(r, fmt.Sprintf("Stopped at %s (%s)", s.Function, fmtLine(s.Line)))
		} else {
			r = append(r, fmt.Sprintf("Stopped at %#x, could not resolve function and line", s.PC))
		}
		return r
	case s.Running:
		return []string{fmt.Sprintf("Process %d is running", s.Pid)}
	}
	return []string{"The process is not running"}
}

// Location returns "function (line)" for the frame.
func (frame *Stackframe) Location(fmtLine LineFormatter) string {
	if fmtLine == nil {
		fmtLine = PlainLine
	}
	return fmt.Sprintf("%s (%s)", frame.Function, fmtLine(frame.Line))
}

func (bp *Breakpoint) String() string {
	return fmt.Sprintf("Breakpoint %d at %#x for %s", bp.ID, bp.Addr, bp.Location(nil))
}

// Location describes where the breakpoint is.
func (bp *Breakpoint) Location(fmtLine LineFormatter) string {
	if fmtLine == nil {
		fmtLine = PlainLine
	}
	switch {
	case bp.FunctionName != "" && bp.Line > 0:
		return fmt.Sprintf("%s (%s)", bp.FunctionName, fmtLine(bp.Line))
	case bp.FunctionName != "":
		return bp.FunctionName
	}
	return bp.Spec
}

// BytesString returns the bytes of the instruction in hexadecimal.
func (inst *AsmInstruction) BytesString() string {
	return fmt.Sprintf("% x", inst.Bytes)
}
