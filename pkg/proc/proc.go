package proc

import (
	"errors"
	"fmt"
)

// ErrProcessExited indicates that the process has exited and contains both
// process id and exit status.
type ErrProcessExited struct {
	Pid    int
	Status int
}

func (pe ErrProcessExited) Error() string {
	return fmt.Sprintf("Process %d has exited with status %d", pe.Pid, pe.Status)
}

// ErrUnresolvedPC is returned when an address could not be mapped to a
// function and line.
type ErrUnresolvedPC struct {
	PC uint64
}

func (err *ErrUnresolvedPC) Error() string {
	return fmt.Sprintf("could not resolve function and line for %#x", err.PC)
}

// ErrNativeBackendDisabled is returned by the native backend on platforms
// it does not support.
var ErrNativeBackendDisabled = errors.New("native backend disabled on this platform")
