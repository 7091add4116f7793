//go:build amd64

package native

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	sys "golang.org/x/sys/unix"

	"github.com/go-delve/deet/pkg/logflags"
	"github.com/go-delve/deet/pkg/proc"
)

const (
	personalityGetPersonality = 0xffffffff // argument to pass to personality syscall to get the current personality
	_ADDR_NO_RANDOMIZE        = 0x0040000  // ADDR_NO_RANDOMIZE linux constant
)

// Launch creates and begins debugging a new process. First entry in
// `cmd` is the program to run, and then rest are the arguments
// to be supplied to that process. The process is stopped at its first
// instruction with every breakpoint of bps installed.
func Launch(cmd []string, conf LaunchConfig, bps *proc.BreakpointMap) (*Process, error) {
	if len(cmd) == 0 {
		return nil, errors.New("no executable specified")
	}

	var (
		process *exec.Cmd
		err     error
	)

	dbp := newProcess(0)
	dbp.execPtraceFunc(func() {
		if conf.DisableASLR {
			oldPersonality, _, err := syscall.Syscall(sys.SYS_PERSONALITY, personalityGetPersonality, 0, 0)
			if err == syscall.Errno(0) {
				newPersonality := oldPersonality | _ADDR_NO_RANDOMIZE
				syscall.Syscall(sys.SYS_PERSONALITY, newPersonality, 0, 0)
				defer syscall.Syscall(sys.SYS_PERSONALITY, oldPersonality, 0, 0)
			}
		}

		process = exec.Command(cmd[0])
		process.Args = cmd
		process.Stdin = os.Stdin
		process.Stdout = os.Stdout
		process.Stderr = os.Stderr
		process.SysProcAttr = &syscall.SysProcAttr{
			Ptrace:  true,
			Setpgid: true,
		}
		if conf.TTY != "" {
			dbp.ctty, err = redirectToTTY(process, conf.TTY)
			if err != nil {
				return
			}
		}
		if conf.WorkingDir != "" {
			process.Dir = conf.WorkingDir
		}
		err = process.Start()
	})
	if err != nil {
		dbp.postExit()
		return nil, fmt.Errorf("could not launch process: %w", err)
	}
	dbp.pid = process.Process.Pid

	ev, err := dbp.wait()
	if err != nil {
		dbp.Kill()
		return nil, fmt.Errorf("waiting for target execve failed: %w", err)
	}
	if ev.Terminated() {
		return nil, fmt.Errorf("process %d %s before reaching its first instruction", dbp.pid, ev)
	}

	log := logflags.NativeLogger()
	log.Debugf("launched %s, pid %d, %s", cmd[0], dbp.pid, ev)

	if bps != nil {
		for _, bp := range bps.List() {
			orig, err := dbp.InstallBreakpoint(bp.Addr)
			if err != nil {
				log.WithError(err).Warnf("could not install breakpoint %d at %#x", bp.ID, bp.Addr)
				bps.MarkDisarmed(bp.Addr)
				continue
			}
			bps.MarkInstalled(bp.Addr, orig)
		}
	}
	return dbp, nil
}

// wait blocks until the process changes state and translates the wait
// status into a StopEvent.
func (dbp *Process) wait() (proc.StopEvent, error) {
	var (
		s    sys.WaitStatus
		wpid int
		err  error
	)
	for {
		wpid, err = sys.Wait4(dbp.pid, &s, sys.WALL, nil)
		if err != sys.EINTR {
			break
		}
	}
	if err != nil {
		return proc.StopEvent{}, fmt.Errorf("wait4 on %d failed: %w", dbp.pid, err)
	}
	if wpid != dbp.pid {
		return proc.StopEvent{}, fmt.Errorf("wait4 returned unexpected pid %d", wpid)
	}

	switch {
	case s.Exited():
		dbp.exitStatus = s.ExitStatus()
		dbp.postExit()
		return proc.StopEvent{Kind: proc.StopExited, ExitStatus: s.ExitStatus()}, nil
	case s.Signaled():
		dbp.postExit()
		return proc.StopEvent{Kind: proc.StopSignaled, Signal: s.Signal(), SignalName: sys.SignalName(s.Signal())}, nil
	case s.Stopped():
		sig := s.StopSignal()
		dbp.lastSignal = sig
		regs, err := dbp.registers()
		if err != nil {
			return proc.StopEvent{}, err
		}
		return proc.StopEvent{Kind: proc.StopStopped, Signal: sig, SignalName: sys.SignalName(sig), PC: regs.Rip}, nil
	}
	panic(fmt.Sprintf("unexpected wait status %#x for pid %d", uint32(s), dbp.pid))
}

// pendingSignal returns the signal to deliver on the next resume and clears
// it. Breakpoint and single step traps are never delivered.
func (dbp *Process) pendingSignal() int {
	sig := dbp.lastSignal
	dbp.lastSignal = 0
	if sig == sys.SIGTRAP {
		return 0
	}
	return int(sig)
}

// Continue resumes the process and waits for it to stop or terminate.
func (dbp *Process) Continue() (proc.StopEvent, error) {
	if dbp.exited {
		return proc.StopEvent{}, dbp.errExited()
	}
	sig := dbp.pendingSignal()
	var err error
	dbp.execPtraceFunc(func() { err = ptraceCont(dbp.pid, sig) })
	if err != nil {
		return proc.StopEvent{}, fmt.Errorf("could not continue process %d: %w", dbp.pid, err)
	}
	return dbp.wait()
}

// PrevPC returns the address of the instruction before the current program
// counter. After a breakpoint trap this is the address of the breakpoint.
func (dbp *Process) PrevPC() (uint64, error) {
	if dbp.exited {
		return 0, dbp.errExited()
	}
	regs, err := dbp.registers()
	if err != nil {
		return 0, err
	}
	return regs.Rip - uint64(dbp.arch.BreakpointSize()), nil
}

// InstallBreakpoint writes the trap instruction at addr and returns the
// byte it replaced.
func (dbp *Process) InstallBreakpoint(addr uint64) (byte, error) {
	if dbp.exited {
		return 0, dbp.errExited()
	}
	return proc.WriteByte(dbp, addr, dbp.arch.BreakpointInstruction[0])
}

// StepOverBreakpoint executes the instruction replaced by the breakpoint at
// addr, whose original byte is orig, and puts the trap back. It returns
// false without reinstalling the trap if the step did not end with a
// SIGTRAP stop.
func (dbp *Process) StepOverBreakpoint(addr uint64, orig byte) (bool, error) {
	if dbp.exited {
		return false, dbp.errExited()
	}
	if _, err := proc.WriteByte(dbp, addr, orig); err != nil {
		return false, err
	}
	if err := dbp.setPC(addr); err != nil {
		return false, err
	}

	dbp.lastSignal = 0
	var err error
	dbp.execPtraceFunc(func() { err = ptraceSingleStep(dbp.pid, 0) })
	if err != nil {
		return false, fmt.Errorf("could not single step process %d: %w", dbp.pid, err)
	}
	ev, err := dbp.wait()
	if err != nil {
		return false, err
	}
	if ev.Kind != proc.StopStopped || ev.Signal != sys.SIGTRAP {
		logflags.NativeLogger().Debugf("step over breakpoint at %#x: %s", addr, ev)
		return false, nil
	}

	if _, err := proc.WriteByte(dbp, addr, dbp.arch.BreakpointInstruction[0]); err != nil {
		return false, err
	}
	return true, nil
}

// Stacktrace returns the call stack of the stopped process, innermost frame
// first.
func (dbp *Process) Stacktrace(r proc.SymbolResolver, entry string, depth int) ([]proc.Stackframe, error) {
	if dbp.exited {
		return nil, dbp.errExited()
	}
	regs, err := dbp.registers()
	if err != nil {
		return nil, err
	}
	return proc.Stacktrace(dbp, dbp.arch, r, regs.Rip, regs.Rbp, entry, depth)
}

// Kill kills the process group of the target and reaps it.
func (dbp *Process) Kill() error {
	if dbp.exited {
		return nil
	}
	if err := sys.Kill(-dbp.pid, sys.SIGKILL); err != nil {
		return errors.New("could not deliver signal " + err.Error())
	}
	for {
		var s sys.WaitStatus
		wpid, err := sys.Wait4(dbp.pid, &s, sys.WALL, nil)
		if err == sys.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if wpid == dbp.pid && (s.Exited() || (s.Signaled() && s.Signal() == sys.SIGKILL)) {
			logflags.NativeLogger().Debugf("killed %d", dbp.pid)
			dbp.postExit()
			return nil
		}
	}
}

// ReadMemory reads len(buf) bytes of the process memory at addr.
func (dbp *Process) ReadMemory(buf []byte, addr uint64) (int, error) {
	if dbp.exited {
		return 0, dbp.errExited()
	}
	if len(buf) == 0 {
		return 0, nil
	}
	var (
		n   int
		err error
	)
	dbp.execPtraceFunc(func() { n, err = sys.PtracePeekData(dbp.pid, uintptr(addr), buf) })
	if err == nil && n != len(buf) {
		err = fmt.Errorf("short read at %#x: %d of %d bytes", addr, n, len(buf))
	}
	return n, err
}

// ReadWord reads the aligned machine word at addr.
func (dbp *Process) ReadWord(addr uint64) (uint64, error) {
	buf := make([]byte, dbp.arch.PtrSize)
	if _, err := dbp.ReadMemory(buf, addr); err != nil {
		return 0, err
	}
	return dbp.arch.ByteOrder.Uint64(buf), nil
}

// WriteWord writes the aligned machine word at addr.
func (dbp *Process) WriteWord(addr, val uint64) error {
	if dbp.exited {
		return dbp.errExited()
	}
	buf := make([]byte, dbp.arch.PtrSize)
	dbp.arch.ByteOrder.PutUint64(buf, val)
	var err error
	dbp.execPtraceFunc(func() { _, err = sys.PtracePokeData(dbp.pid, uintptr(addr), buf) })
	return err
}
