package terminal

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-delve/deet/pkg/config"
	"github.com/go-delve/deet/pkg/proc"
	"github.com/go-delve/deet/pkg/proc/native"
	"github.com/go-delve/deet/service/debugger"
)

type tableResolver map[string]uint64

func (r tableResolver) LineForPC(pc uint64) (int, bool) {
	for _, addr := range r {
		if pc >= addr && pc < addr+0x10 {
			return 5, true
		}
	}
	return 0, false
}

func (r tableResolver) FunctionForPC(pc uint64) (string, bool) {
	for name, addr := range r {
		if pc >= addr && pc < addr+0x10 {
			return name, true
		}
	}
	return "", false
}

func (r tableResolver) PCForLine(line int) (uint64, bool) { return 0, false }

func (r tableResolver) PCForFunction(name string) (uint64, bool) {
	addr, ok := r[name]
	return addr, ok
}

func (r tableResolver) FunctionsWithPrefix(prefix string) []string {
	var names []string
	for name := range r {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			names = append(names, name)
		}
	}
	return names
}

// stubTarget is stopped at a breakpoint trap until it is resumed, then
// exits.
type stubTarget struct {
	pc      uint64
	resumes int
	exited  bool
	frames  []proc.Stackframe
}

func (s *stubTarget) Pid() int     { return 100 }
func (s *stubTarget) Exited() bool { return s.exited }
func (s *stubTarget) Continue() (proc.StopEvent, error) {
	s.resumes++
	if s.resumes == 1 {
		return proc.StopEvent{Kind: proc.StopStopped, Signal: syscall.SIGTRAP, SignalName: "SIGTRAP", PC: s.pc + 1}, nil
	}
	s.exited = true
	return proc.StopEvent{Kind: proc.StopExited, ExitStatus: 0}, nil
}
func (s *stubTarget) PrevPC() (uint64, error)                     { return s.pc, nil }
func (s *stubTarget) InstallBreakpoint(addr uint64) (byte, error) { return 0x55, nil }
func (s *stubTarget) StepOverBreakpoint(addr uint64, orig byte) (bool, error) {
	return true, nil
}
func (s *stubTarget) Stacktrace(r proc.SymbolResolver, entry string, depth int) ([]proc.Stackframe, error) {
	return s.frames, nil
}
func (s *stubTarget) Kill() error {
	s.exited = true
	return nil
}
func (s *stubTarget) ReadMemory(buf []byte, addr uint64) (int, error) {
	copy(buf, []byte{0x55, 0x48, 0x89, 0xe5, 0xc3})
	return len(buf), nil
}

type FakeTerminal struct {
	*Term
	t       testing.TB
	out     *bytes.Buffer
	target  *stubTarget
	cmdline [][]string
}

func newFakeTerminal(t *testing.T, conf *config.Config) *FakeTerminal {
	r := tableResolver{"leaf": 0x401100, "main": 0x401140}
	ft := &FakeTerminal{t: t, out: new(bytes.Buffer), target: &stubTarget{pc: 0x401100}}
	d, err := debugger.New(&debugger.Config{
		Path:     "/bin/prog",
		Resolver: r,
		Launch: func(cmd []string, conf native.LaunchConfig, bps *proc.BreakpointMap) (debugger.Target, error) {
			ft.cmdline = append(ft.cmdline, cmd)
			for _, bp := range bps.List() {
				bps.MarkInstalled(bp.Addr, 0x55)
			}
			return ft.target, nil
		},
	})
	require.NoError(t, err)
	ft.Term = newTerm(d, conf)
	ft.Term.dumb = true
	ft.Term.stdout = ft.out
	ft.Term.stderr = ft.out
	ft.Term.Functions = r
	return ft
}

func (ft *FakeTerminal) Exec(cmdstr string) (string, error) {
	ft.out.Reset()
	err := ft.cmds.Call(cmdstr, ft.Term)
	return ft.out.String(), err
}

func (ft *FakeTerminal) MustExec(cmdstr string) string {
	outstr, err := ft.Exec(cmdstr)
	if err != nil {
		ft.t.Errorf("output of %q: %q", cmdstr, outstr)
		ft.t.Fatalf("Error executing <%s>: %v", cmdstr, err)
	}
	return outstr
}

func (ft *FakeTerminal) AssertExec(cmdstr, tgt string) {
	out := ft.MustExec(cmdstr)
	if out != tgt {
		ft.t.Fatalf("Error executing %q, expected %q got %q", cmdstr, tgt, out)
	}
}

func TestSessionCommands(t *testing.T) {
	ft := newFakeTerminal(t, nil)

	ft.AssertExec("break leaf", "Set breakpoint 1 at leaf\n")
	ft.AssertExec("b leaf", "Set breakpoint 1 at leaf\n")
	ft.AssertExec("bp", "Breakpoint 1 at 0x401100 for leaf (5) (pending)\n")

	ft.AssertExec(`run a "b c"`, "Child stopped (signal SIGTRAP)\nStopped at leaf (5)\n")
	assert.Equal(t, []string{"/bin/prog", "a", "b c"}, ft.cmdline[0])
	ft.AssertExec("breakpoints", "Breakpoint 1 at 0x401100 for leaf (5) (installed)\n")

	ft.target.frames = []proc.Stackframe{{Function: "leaf", Line: 5}, {Function: "main", Line: 17}}
	ft.AssertExec("bt", "leaf (5)\nmain (17)\n")

	out := ft.MustExec("disass 2")
	assert.Contains(t, out, "TEXT leaf")
	assert.Contains(t, out, "0x401100*")
	assert.Contains(t, out, "=>")

	ft.AssertExec("cont", "Previously stopped at breakpoint 1 (0x401100)\nChild exited (status 0)\n")

	_, err := ft.Exec("c")
	assert.True(t, errors.Is(err, debugger.ErrNoProcess))
	ft.out.Reset()
	ft.printError(err)
	assert.Equal(t, "The process is not running\n", ft.out.String())

	ft.AssertExec("backtrace", "")
}

func TestRunKillsRunningProcess(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	ft.MustExec("run")
	ft.target.resumes = 0
	out := ft.MustExec("r")
	assert.Contains(t, out, "Killing running inferior (pid 100)\n")
}

func TestUnrecognizedCommand(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	_, err := ft.Exec("frobnicate now")
	require.Equal(t, errNoCmd, err)
	ft.out.Reset()
	ft.printError(err)
	assert.Equal(t, "Unrecognized command.\n", ft.out.String())
}

func TestBreakErrors(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	_, err := ft.Exec("break")
	assert.Error(t, err)
	_, err = ft.Exec("break nosuchfunc")
	assert.EqualError(t, err, "Failed to find the address of function nosuchfunc")
	_, err = ft.Exec("break *xyz")
	assert.Error(t, err)
	ft.AssertExec("breakpoints", "No breakpoints.\n")
}

func TestDisassembleBadCount(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	_, err := ft.Exec("disassemble -3")
	assert.Error(t, err)
}

func TestQuit(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	for _, alias := range []string{"quit", "q", "exit"} {
		_, err := ft.Exec(alias)
		assert.IsType(t, ExitRequestError{}, err, alias)
	}
	code, err := ft.handleExit()
	assert.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestHelp(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	out := ft.MustExec("help")
	assert.Contains(t, out, "continue (alias: c | cont)")
	assert.Contains(t, out, "backtrace (alias: bt | back)")
	out = ft.MustExec("help b")
	assert.Contains(t, out, "Sets a breakpoint.")
	_, err := ft.Exec("help nosuchcommand")
	assert.Error(t, err)
}

func TestMergeAliases(t *testing.T) {
	conf := config.Default()
	conf.Aliases = map[string][]string{"backtrace": {"where"}}
	ft := newFakeTerminal(t, conf)
	ft.target.frames = []proc.Stackframe{{Function: "main", Line: 17}}
	ft.MustExec("run")
	ft.AssertExec("where", "main (17)\n")
	assert.Equal(t, []string{"where"}, ft.cmds.Completions("wh"))

	// merging again replaces the previous user aliases
	ft.cmds.Merge(map[string][]string{"backtrace": {"stack"}})
	_, err := ft.Exec("where")
	assert.Equal(t, errNoCmd, err)
}

func TestCompletion(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	assert.Equal(t, []string{"c", "config", "cont", "continue"}, ft.complete("c"))
	assert.Equal(t, []string{"b leaf"}, ft.complete("b le"))
	assert.Equal(t, []string{"break main"}, ft.complete("break ma"))
}

func TestParseArgv(t *testing.T) {
	v, err := parseArgv(`one "two three" 'four'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two three", "four"}, v)

	v, err = parseArgv("")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = parseArgv("`date`")
	assert.Error(t, err)

	_, err = parseArgv("a | b")
	assert.Error(t, err)
}

func TestInitFile(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	dir, err := ioutil.TempDir("", "deet-init")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	initFile := filepath.Join(dir, "init")
	require.NoError(t, ioutil.WriteFile(initFile, []byte("# comment\nbreak leaf\n\nbogus\n"), 0600))

	ft.out.Reset()
	require.NoError(t, ft.cmds.executeFile(ft.Term, initFile))
	out := ft.out.String()
	assert.Contains(t, out, "Set breakpoint 1 at leaf\n")
	assert.Contains(t, out, initFile+":4: Unrecognized command.\n")

	require.NoError(t, ioutil.WriteFile(initFile, []byte("quit\nbreak main\n"), 0600))
	err = ft.cmds.executeFile(ft.Term, initFile)
	assert.IsType(t, ExitRequestError{}, err)
	assert.Len(t, ft.debugger.Breakpoints(), 1)
}

func TestLineColor(t *testing.T) {
	conf := config.Default()
	conf.SourceListLineColor = 200
	ft := newFakeTerminal(t, conf)
	assert.Equal(t, ansiBlue, ft.conf.SourceListLineColor)
	assert.Equal(t, "7", ft.formatLine(7))
	ft.dumb = false
	assert.Equal(t, "\033[34m7\033[0m", ft.formatLine(7))
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("DEET_CONFIG_DIR", t.TempDir())
	ft := newFakeTerminal(t, nil)

	ft.MustExec("config disassemble-count 2")
	ft.MustExec("config disable-aslr false")
	ft.MustExec("config entry-function start")
	assert.Equal(t, 2, ft.conf.DisassembleCount)
	assert.False(t, ft.conf.ASLRDisabled())
	assert.Equal(t, "start", ft.conf.EntryFunction)

	for _, cmdstr := range []string{
		"config",
		"config nosuchparam 1",
		"config aliases x",
		"config max-stack-depth -1",
		"config disable-aslr maybe",
		"config alias nosuchcommand x",
	} {
		_, err := ft.Exec(cmdstr)
		assert.Error(t, err, cmdstr)
	}

	out := ft.MustExec("config -list")
	assert.Regexp(t, `(?m)^disassemble-count +2$`, out)
	assert.Regexp(t, `(?m)^disable-aslr +false$`, out)
	assert.Regexp(t, `(?m)^entry-function +start$`, out)

	ft.MustExec("run")
	out = ft.MustExec("disassemble")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3, out)

	ft.AssertExec("config -save", "Configuration saved.\n")
	saved := config.LoadConfig()
	assert.Equal(t, 2, saved.DisassembleCount)
	assert.Equal(t, "start", saved.EntryFunction)
	assert.False(t, saved.ASLRDisabled())
}

func TestConfigAlias(t *testing.T) {
	ft := newFakeTerminal(t, nil)
	ft.target.frames = []proc.Stackframe{{Function: "main", Line: 17}}
	ft.MustExec("run")

	ft.MustExec("config alias backtrace where")
	ft.AssertExec("where", "main (17)\n")
	assert.Equal(t, []string{"where"}, ft.conf.Aliases["backtrace"])

	ft.MustExec("config alias where")
	_, err := ft.Exec("where")
	assert.Equal(t, errNoCmd, err)
	ft.AssertExec("bt", "main (17)\n")
}
