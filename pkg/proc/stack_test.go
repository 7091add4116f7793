package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stackFixture() (*fakeMemory, *fakeResolver) {
	r := &fakeResolver{funcs: []fakeFunc{
		{name: "main", entry: 0x400100, end: 0x400200, line: 20},
		{name: "middle", entry: 0x400200, end: 0x400300, line: 12},
		{name: "leaf", entry: 0x400300, end: 0x400400, line: 6},
	}}
	mem := newFakeMemory(0x7f0000, 0x100)
	// leaf frame at 0x7f0010 -> middle frame at 0x7f0040 -> main frame at 0x7f0080
	mem.putUint64(0x7f0010, 0x7f0040)
	mem.putUint64(0x7f0018, 0x400250)
	mem.putUint64(0x7f0040, 0x7f0080)
	mem.putUint64(0x7f0048, 0x400150)
	return mem, r
}

func TestStacktraceStopsAtEntry(t *testing.T) {
	mem, r := stackFixture()
	frames, err := Stacktrace(mem, AMD64Arch(), r, 0x400310, 0x7f0010, "main", 0)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, "leaf", frames[0].Function)
	assert.Equal(t, 6, frames[0].Line)
	assert.Equal(t, "middle", frames[1].Function)
	assert.Equal(t, uint64(0x400250), frames[1].PC)
	assert.Equal(t, "main", frames[2].Function)
	assert.Equal(t, uint64(0x7f0080), frames[2].FramePointer)
}

func TestStacktraceDepth(t *testing.T) {
	mem, r := stackFixture()
	frames, err := Stacktrace(mem, AMD64Arch(), r, 0x400310, 0x7f0010, "main", 2)
	require.NoError(t, err)
	assert.Len(t, frames, 2)
}

func TestStacktraceUnresolved(t *testing.T) {
	mem, r := stackFixture()
	// the return address of middle points outside of any function
	mem.putUint64(0x7f0048, 0x500000)
	frames, err := Stacktrace(mem, AMD64Arch(), r, 0x400310, 0x7f0010, "main", 0)
	require.Error(t, err)
	unresolved, ok := err.(*ErrUnresolvedPC)
	require.True(t, ok)
	assert.Equal(t, uint64(0x500000), unresolved.PC)
	assert.Len(t, frames, 2)
}

func TestStacktraceMemoryError(t *testing.T) {
	mem, r := stackFixture()
	// middle's saved frame pointer leads outside of mapped memory
	mem.putUint64(0x7f0010, 0x100)
	frames, err := Stacktrace(mem, AMD64Arch(), r, 0x400310, 0x7f0010, "main", 0)
	assert.Error(t, err)
	assert.Len(t, frames, 2)
}
