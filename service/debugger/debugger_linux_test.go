//go:build amd64

package debugger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sys "golang.org/x/sys/unix"

	"github.com/go-delve/deet/pkg/proc"
	protest "github.com/go-delve/deet/pkg/proc/test"
)

func TestMain(m *testing.M) {
	os.Exit(protest.RunTestsWithFixtures(m))
}

func newNativeDebugger(t *testing.T, fixture string) *Debugger {
	f := protest.BuildFixture(t, fixture)
	bi, err := proc.LoadBinaryInfo(f.Path, "main", 128)
	require.NoError(t, err)
	d, err := New(&Config{Path: f.Path, Resolver: bi, DisableASLR: true, MaxStackDepth: 64})
	require.NoError(t, err)
	t.Cleanup(func() { d.Quit() })
	return d
}

func TestSessionBreakpointLine(t *testing.T) {
	d := newNativeDebugger(t, "testprog")

	bp, err := d.Break("6")
	require.NoError(t, err)
	assert.Equal(t, 1, bp.ID)
	assert.Equal(t, "leaf", bp.FunctionName)

	state, err := d.Run(nil)
	require.NoError(t, err)
	require.True(t, state.Stopped)
	assert.Equal(t, []string{"Child stopped (signal SIGTRAP)", "Stopped at leaf (6)"}, state.Describe(nil))
	require.NotNil(t, state.Breakpoint)
	assert.Equal(t, 1, state.Breakpoint.ID)

	frames, err := d.Backtrace()
	require.NoError(t, err)
	var locs []string
	for i := range frames {
		locs = append(locs, frames[i].Location(nil))
	}
	assert.Equal(t, []string{"leaf (6)", "middle (12)", "main (17)"}, locs)

	insts, err := d.Disassemble(3)
	require.NoError(t, err)
	require.NotEmpty(t, insts)
	assert.Equal(t, bp.Addr, insts[0].PC)
	assert.True(t, insts[0].Breakpoint)

	state, err = d.Continue()
	require.NoError(t, err)
	require.True(t, state.Stopped)
	require.NotNil(t, state.PreviousBreakpoint)
	assert.Equal(t, 1, state.PreviousBreakpoint.ID)

	frames, err = d.Backtrace()
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, 18, frames[2].Line)

	state, err = d.Continue()
	require.NoError(t, err)
	assert.True(t, state.Exited)
	assert.Equal(t, 0, state.ExitStatus)

	_, err = d.Continue()
	assert.Equal(t, ErrNoProcess, err)
}

func TestSessionRestart(t *testing.T) {
	d := newNativeDebugger(t, "testprog")

	_, err := d.Break("leaf")
	require.NoError(t, err)

	state, err := d.Run(nil)
	require.NoError(t, err)
	require.True(t, state.Stopped)
	assert.Equal(t, "leaf", state.Function)
	assert.Equal(t, 5, state.Line)
	first := state.Pid

	state, err = d.Run(nil)
	require.NoError(t, err)
	require.True(t, state.Stopped)
	assert.NotEqual(t, first, state.Pid)
	require.NotNil(t, state.Breakpoint)
}

func TestSessionSignal(t *testing.T) {
	d := newNativeDebugger(t, "segv")

	state, err := d.Run(nil)
	require.NoError(t, err)
	require.True(t, state.Stopped)
	assert.Equal(t, "SIGSEGV", state.Signal)

	state, err = d.Continue()
	require.NoError(t, err)
	assert.True(t, state.Signaled)
	assert.Equal(t, []string{"Child exited with SIGSEGV"}, state.Describe(nil))
	assert.False(t, d.State().Running)
}

func TestSessionExitStatus(t *testing.T) {
	d := newNativeDebugger(t, "exitcode")

	state, err := d.Run([]string{"x", "y"})
	require.NoError(t, err)
	assert.True(t, state.Exited)
	assert.Equal(t, 2, state.ExitStatus)
}

func TestSessionExit0(t *testing.T) {
	d := newNativeDebugger(t, "exit0")

	state, err := d.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Child exited (status 0)"}, state.Describe(nil))
	assert.Zero(t, d.ProcessPid())

	_, err = d.Continue()
	assert.Equal(t, ErrNoProcess, err)

	frames, err := d.Backtrace()
	assert.NoError(t, err)
	assert.Empty(t, frames)
}

func TestSessionQuitAfterBreakpoint(t *testing.T) {
	d := newNativeDebugger(t, "testprog")

	_, err := d.Break("middle")
	require.NoError(t, err)
	state, err := d.Run(nil)
	require.NoError(t, err)
	require.True(t, state.Stopped)
	require.NotNil(t, state.Breakpoint)
	pid := state.Pid

	require.NoError(t, d.Quit())
	assert.Equal(t, sys.ESRCH, sys.Kill(pid, 0), "process %d still exists", pid)
	assert.False(t, d.State().Running)
	for _, bp := range d.Breakpoints() {
		assert.False(t, bp.Armed)
	}
}
