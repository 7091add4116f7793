package debugger

import (
	"errors"
	"fmt"
)

// ErrNoProcess is returned by operations that need a running process when
// there is none.
var ErrNoProcess = errors.New("the process is not running")

// ErrStepFailed is matched by every StepError.
var ErrStepFailed = errors.New("failed to step over the breakpoint")

// ResolveError is returned when a breakpoint location can not be turned
// into an address.
type ResolveError struct {
	Spec string
	Kind LocationKind
	Err  error
}

func (err *ResolveError) Error() string {
	switch {
	case err.Spec == "":
		return "no breakpoint location specified"
	case err.Kind == AddrLocation:
		return fmt.Sprintf("invalid address %q: %v", err.Spec, err.Err)
	}
	return fmt.Sprintf("Failed to find the address of %s %s", err.Kind, err.Spec)
}

func (err *ResolveError) Unwrap() error {
	return err.Err
}

// StepError is returned when stepping over a breakpoint before resuming
// did not complete. The breakpoint is left disarmed.
type StepError struct {
	ID   int
	Addr uint64
	Err  error
}

func (err *StepError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("failed to step over breakpoint %d at %#x: %v", err.ID, err.Addr, err.Err)
	}
	return fmt.Sprintf("failed to step over breakpoint %d at %#x", err.ID, err.Addr)
}

func (err *StepError) Unwrap() error {
	return err.Err
}

func (err *StepError) Is(target error) bool {
	return target == ErrStepFailed
}
