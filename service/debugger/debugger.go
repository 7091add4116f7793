package debugger

import (
	"errors"
	"fmt"
	"sync"
	"syscall"

	"github.com/go-delve/deet/pkg/logflags"
	"github.com/go-delve/deet/pkg/proc"
	"github.com/go-delve/deet/pkg/proc/native"
	"github.com/go-delve/deet/service/api"
)

// Target is a traced process as seen by the Debugger.
type Target interface {
	Pid() int
	Exited() bool
	Continue() (proc.StopEvent, error)
	PrevPC() (uint64, error)
	InstallBreakpoint(addr uint64) (byte, error)
	StepOverBreakpoint(addr uint64, orig byte) (bool, error)
	Stacktrace(r proc.SymbolResolver, entry string, depth int) ([]proc.Stackframe, error)
	Kill() error
	ReadMemory(buf []byte, addr uint64) (int, error)
}

// Launcher starts a new traced process stopped at its first instruction,
// with every breakpoint of bps installed.
type Launcher func(cmd []string, conf native.LaunchConfig, bps *proc.BreakpointMap) (Target, error)

// NativeLauncher launches targets with the native backend.
func NativeLauncher(cmd []string, conf native.LaunchConfig, bps *proc.BreakpointMap) (Target, error) {
	p, err := native.Launch(cmd, conf, bps)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Debugger service.
//
// Debugger provides a higher level of
// abstraction over the traced process.
// It owns the breakpoints, which survive
// the process, and converts from internal
// types to the types expected by clients.
type Debugger struct {
	config *Config
	log    logflags.Logger

	processMutex sync.Mutex
	target       Target
	breakpoints  *proc.BreakpointMap
}

// Config provides the configuration to start a Debugger.
type Config struct {
	// Path is the executable to debug.
	Path string

	// Resolver maps addresses of the executable to source locations.
	Resolver proc.SymbolResolver

	// Launch starts new processes, NativeLauncher if nil.
	Launch Launcher

	// EntryFunction is the function at which backtraces stop.
	EntryFunction string

	// MaxStackDepth bounds the number of frames returned by Backtrace,
	// zero means unbounded.
	MaxStackDepth int

	// WorkingDir is working directory of the new process.
	WorkingDir string

	// TTY is the terminal used by new processes.
	TTY string

	// DisableASLR launches processes without address space randomization.
	DisableASLR bool

	// Arch describes the architecture of the executable, AMD64 if nil.
	Arch *proc.Arch
}

// New creates a new Debugger. No process is started until Run is called.
func New(config *Config) (*Debugger, error) {
	if config.Path == "" {
		return nil, errors.New("no executable specified")
	}
	if config.Resolver == nil {
		return nil, errors.New("no symbol resolver")
	}
	if config.Launch == nil {
		config.Launch = NativeLauncher
	}
	if config.EntryFunction == "" {
		config.EntryFunction = "main"
	}
	if config.Arch == nil {
		config.Arch = proc.AMD64Arch()
	}
	return &Debugger{
		config:      config,
		log:         logflags.DebuggerLogger(),
		breakpoints: proc.NewBreakpointMap(),
	}, nil
}

// ProcessPid returns the PID of the process
// the debugger is debugging, zero if there is none.
func (d *Debugger) ProcessPid() int {
	d.processMutex.Lock()
	defer d.processMutex.Unlock()
	if d.target == nil {
		return 0
	}
	return d.target.Pid()
}

// State returns the current state of the debugger.
func (d *Debugger) State() *api.DebuggerState {
	d.processMutex.Lock()
	defer d.processMutex.Unlock()
	if d.target == nil {
		return &api.DebuggerState{}
	}
	return &api.DebuggerState{Running: true, Pid: d.target.Pid()}
}

// Run starts a new process with the given arguments and resumes it until
// it stops or exits. A process already running is killed first.
func (d *Debugger) Run(args []string) (*api.DebuggerState, error) {
	d.processMutex.Lock()
	defer d.processMutex.Unlock()

	if d.target != nil {
		d.log.Infof("killing running process %d", d.target.Pid())
		if err := d.killTarget(); err != nil {
			return nil, err
		}
	}

	cmd := append([]string{d.config.Path}, args...)
	d.log.Infof("launching process with args: %v", cmd)
	t, err := d.config.Launch(cmd, native.LaunchConfig{
		WorkingDir:  d.config.WorkingDir,
		TTY:         d.config.TTY,
		DisableASLR: d.config.DisableASLR,
	}, d.breakpoints)
	if err != nil {
		d.breakpoints.DisarmAll()
		return nil, fmt.Errorf("could not launch process: %w", launchErrorMessage(err))
	}
	d.target = t
	return d.resume()
}

// Continue resumes the process until it stops or exits. If the process is
// stopped at a breakpoint the instruction under it is executed first.
func (d *Debugger) Continue() (*api.DebuggerState, error) {
	d.processMutex.Lock()
	defer d.processMutex.Unlock()

	if d.target == nil {
		return nil, ErrNoProcess
	}

	pc, err := d.target.PrevPC()
	if err != nil {
		return nil, err
	}
	var prev *api.Breakpoint
	if bp, ok := d.breakpoints.Lookup(pc); ok && bp.Armed {
		prev = api.ConvertBreakpoint(bp, d.config.Resolver)
		d.log.Debugf("stepping over %s", bp)
		stepped, err := d.target.StepOverBreakpoint(bp.Addr, bp.OriginalByte)
		if err != nil || !stepped {
			d.breakpoints.MarkDisarmed(bp.Addr)
			if d.target.Exited() {
				d.dropTarget()
			}
			return nil, &StepError{ID: bp.ID, Addr: bp.Addr, Err: err}
		}
	}

	state, err := d.resume()
	if state != nil {
		state.PreviousBreakpoint = prev
	}
	return state, err
}

// resume performs exactly one resume and wait cycle.
func (d *Debugger) resume() (*api.DebuggerState, error) {
	ev, err := d.target.Continue()
	if err != nil {
		if d.target.Exited() {
			d.dropTarget()
		}
		return nil, err
	}
	d.log.Debugf("process %d %s", d.target.Pid(), ev)
	return d.convertStopEvent(ev), nil
}

func (d *Debugger) convertStopEvent(ev proc.StopEvent) *api.DebuggerState {
	state := &api.DebuggerState{Signal: ev.SignalName}
	switch ev.Kind {
	case proc.StopExited:
		state.Exited = true
		state.ExitStatus = ev.ExitStatus
		d.dropTarget()
	case proc.StopSignaled:
		state.Signaled = true
		d.dropTarget()
	default:
		state.Running = true
		state.Pid = d.target.Pid()
		state.Stopped = true
		state.PC = ev.PC
		fn, okfn := d.config.Resolver.FunctionForPC(ev.PC)
		line, okline := d.config.Resolver.LineForPC(ev.PC)
		if okfn && okline {
			state.Function, state.Line, state.Resolved = fn, line, true
		}
		if ev.Signal == syscall.SIGTRAP {
			if bp, ok := d.breakpoints.Lookup(ev.PC - uint64(d.config.Arch.BreakpointSize())); ok && bp.Armed {
				state.Breakpoint = api.ConvertBreakpoint(bp, d.config.Resolver)
			}
		}
	}
	return state
}

// Break registers a breakpoint at the location described by locStr and
// installs it in the running process, if any.
func (d *Debugger) Break(locStr string) (*api.Breakpoint, error) {
	d.processMutex.Lock()
	defer d.processMutex.Unlock()

	loc, err := ParseLocationSpec(locStr)
	if err != nil {
		return nil, err
	}
	addr, err := loc.Find(d.config.Resolver, locStr)
	if err != nil {
		return nil, err
	}

	bp, created := d.breakpoints.RequestBreak(addr, locStr)
	if created {
		d.log.Infof("created breakpoint %d at %#x for %s", bp.ID, addr, loc)
	}
	if d.target != nil && !bp.Armed {
		orig, err := d.target.InstallBreakpoint(addr)
		if err != nil {
			return api.ConvertBreakpoint(bp, d.config.Resolver), fmt.Errorf("could not install breakpoint %d at %#x: %w", bp.ID, addr, err)
		}
		d.breakpoints.MarkInstalled(addr, orig)
	}
	return api.ConvertBreakpoint(bp, d.config.Resolver), nil
}

// Breakpoints returns the list of breakpoints, ordered by ID.
func (d *Debugger) Breakpoints() []*api.Breakpoint {
	d.processMutex.Lock()
	defer d.processMutex.Unlock()
	return api.ConvertBreakpoints(d.breakpoints.List(), d.config.Resolver)
}

// Backtrace returns the call stack of the stopped process. It returns nil
// if there is no process. Frames collected before an error are returned
// with the error.
func (d *Debugger) Backtrace() ([]api.Stackframe, error) {
	d.processMutex.Lock()
	defer d.processMutex.Unlock()

	if d.target == nil {
		return nil, nil
	}
	frames, err := d.target.Stacktrace(d.config.Resolver, d.config.EntryFunction, d.config.MaxStackDepth)
	return api.ConvertStackframes(frames), err
}

// Disassemble decodes count instructions starting at the current
// instruction, or at the breakpoint the process is stopped at.
func (d *Debugger) Disassemble(count int) ([]api.AsmInstruction, error) {
	d.processMutex.Lock()
	defer d.processMutex.Unlock()

	if d.target == nil {
		return nil, ErrNoProcess
	}
	prev, err := d.target.PrevPC()
	if err != nil {
		return nil, err
	}
	arch := d.config.Arch
	pc := prev + uint64(arch.BreakpointSize())
	if bp, ok := d.breakpoints.Lookup(prev); ok && bp.Armed {
		pc = prev
	}

	insts, err := proc.Disassemble(d.target, d.breakpoints, d.config.Resolver, arch, pc, count)
	if err != nil {
		return nil, err
	}
	r := make([]api.AsmInstruction, len(insts))
	for i := range insts {
		r[i] = api.ConvertAsmInstruction(insts[i], pc, d.config.Resolver)
	}
	return r, nil
}

// Quit kills the process, if any.
func (d *Debugger) Quit() error {
	d.processMutex.Lock()
	defer d.processMutex.Unlock()
	if d.target == nil {
		return nil
	}
	return d.killTarget()
}

func (d *Debugger) killTarget() error {
	if err := d.target.Kill(); err != nil {
		return fmt.Errorf("could not kill process %d: %w", d.target.Pid(), err)
	}
	d.dropTarget()
	return nil
}

func (d *Debugger) dropTarget() {
	d.target = nil
	d.breakpoints.DisarmAll()
}
