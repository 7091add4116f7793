package proc

import (
	"fmt"
	"syscall"
)

// StopKind is the reason the wait for a traced process returned.
type StopKind uint8

const (
	// StopStopped means the process is stopped by a signal and can be
	// resumed.
	StopStopped StopKind = iota
	// StopExited means the process exited normally.
	StopExited
	// StopSignaled means the process was terminated by a signal.
	StopSignaled
)

// StopEvent describes a change of state of the traced process.
type StopEvent struct {
	Kind       StopKind
	Signal     syscall.Signal // StopStopped and StopSignaled
	SignalName string         // Symbolic name of Signal, e.g. SIGTRAP
	PC         uint64         // StopStopped only
	ExitStatus int            // StopExited only
}

// Terminated returns true if the process no longer exists after this event.
func (ev StopEvent) Terminated() bool {
	return ev.Kind == StopExited || ev.Kind == StopSignaled
}

func (ev StopEvent) String() string {
	switch ev.Kind {
	case StopExited:
		return fmt.Sprintf("exited (status %d)", ev.ExitStatus)
	case StopSignaled:
		return fmt.Sprintf("signaled %s", ev.SignalName)
	default:
		return fmt.Sprintf("stopped %s at %#x", ev.SignalName, ev.PC)
	}
}
