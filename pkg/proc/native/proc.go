package native

import (
	"os"
	"runtime"
	"syscall"

	"github.com/go-delve/deet/pkg/proc"
)

// LaunchConfig holds the options for starting a new process.
type LaunchConfig struct {
	// WorkingDir is the working directory of the new process, the
	// debugger's working directory if empty.
	WorkingDir string
	// TTY is the path of a terminal used as stdin, stdout and stderr of the
	// new process.
	TTY string
	// DisableASLR turns off address space randomization for the new
	// process.
	DisableASLR bool
}

// Process represents all of the information the debugger
// is holding onto regarding the process we are debugging.
type Process struct {
	pid  int // Process Pid
	arch *proc.Arch

	// lastSignal is the signal of the last stop, delivered to the process
	// on the next resume unless it is SIGTRAP.
	lastSignal syscall.Signal
	exitStatus int

	ctty           *os.File
	ptraceChan     chan func()
	ptraceDoneChan chan interface{}

	exited bool
}

// newProcess returns an initialized Process struct. Before returning,
// it will also launch a goroutine in order to handle ptrace(2)
// functions. For more information, see the documentation on
// `handlePtraceFuncs`.
func newProcess(pid int) *Process {
	dbp := &Process{
		pid:            pid,
		arch:           proc.AMD64Arch(),
		ptraceChan:     make(chan func()),
		ptraceDoneChan: make(chan interface{}),
	}
	go dbp.handlePtraceFuncs()
	return dbp
}

// Pid returns the process ID.
func (dbp *Process) Pid() int {
	return dbp.pid
}

// Exited returns true if the process exited or was killed.
func (dbp *Process) Exited() bool {
	return dbp.exited
}

func (dbp *Process) handlePtraceFuncs() {
	// We must ensure here that we are running on the same thread during
	// while invoking the ptrace(2) syscall. This is due to the fact that ptrace(2) expects
	// all commands after PTRACE_TRACEME to come from the same thread.
	runtime.LockOSThread()

	for fn := range dbp.ptraceChan {
		fn()
		dbp.ptraceDoneChan <- nil
	}
}

func (dbp *Process) execPtraceFunc(fn func()) {
	dbp.ptraceChan <- fn
	<-dbp.ptraceDoneChan
}

func (dbp *Process) postExit() {
	if dbp.exited {
		return
	}
	dbp.exited = true
	close(dbp.ptraceChan)
	close(dbp.ptraceDoneChan)
	if dbp.ctty != nil {
		dbp.ctty.Close()
	}
}

func (dbp *Process) errExited() error {
	return proc.ErrProcessExited{Pid: dbp.pid, Status: dbp.exitStatus}
}
