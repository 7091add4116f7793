package native

import (
	"fmt"

	sys "golang.org/x/sys/unix"
)

func (dbp *Process) registers() (*sys.PtraceRegs, error) {
	var (
		regs sys.PtraceRegs
		err  error
	)
	dbp.execPtraceFunc(func() { err = sys.PtraceGetRegs(dbp.pid, &regs) })
	if err != nil {
		return nil, fmt.Errorf("could not get registers of %d: %w", dbp.pid, err)
	}
	return &regs, nil
}

func (dbp *Process) setPC(pc uint64) error {
	regs, err := dbp.registers()
	if err != nil {
		return err
	}
	regs.Rip = pc
	dbp.execPtraceFunc(func() { err = sys.PtraceSetRegs(dbp.pid, regs) })
	if err != nil {
		return fmt.Errorf("could not set registers of %d: %w", dbp.pid, err)
	}
	return nil
}
