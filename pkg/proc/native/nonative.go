//go:build !linux || !amd64

package native

import (
	"github.com/go-delve/deet/pkg/proc"
)

// Launch returns ErrNativeBackendDisabled.
func Launch(_ []string, _ LaunchConfig, _ *proc.BreakpointMap) (*Process, error) {
	return nil, proc.ErrNativeBackendDisabled
}

func (dbp *Process) Continue() (proc.StopEvent, error) {
	return proc.StopEvent{}, proc.ErrNativeBackendDisabled
}

func (dbp *Process) PrevPC() (uint64, error) {
	return 0, proc.ErrNativeBackendDisabled
}

func (dbp *Process) InstallBreakpoint(addr uint64) (byte, error) {
	return 0, proc.ErrNativeBackendDisabled
}

func (dbp *Process) StepOverBreakpoint(addr uint64, orig byte) (bool, error) {
	return false, proc.ErrNativeBackendDisabled
}

func (dbp *Process) Stacktrace(r proc.SymbolResolver, entry string, depth int) ([]proc.Stackframe, error) {
	return nil, proc.ErrNativeBackendDisabled
}

func (dbp *Process) Kill() error {
	return proc.ErrNativeBackendDisabled
}

func (dbp *Process) ReadMemory(buf []byte, addr uint64) (int, error) {
	return 0, proc.ErrNativeBackendDisabled
}
