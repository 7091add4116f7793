package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBreakSameAddress(t *testing.T) {
	bpmap := NewBreakpointMap()

	bp1, created := bpmap.RequestBreak(0x401000, "main")
	require.True(t, created)
	assert.Equal(t, 1, bp1.ID)
	assert.False(t, bp1.Armed)
	assert.Zero(t, bp1.OriginalByte)

	bp2, created := bpmap.RequestBreak(0x401000, "*0x401000")
	assert.False(t, created)
	assert.Same(t, bp1, bp2)
	assert.Equal(t, "main", bp2.Spec)
	assert.Equal(t, 1, bpmap.Len())

	bp3, created := bpmap.RequestBreak(0x401010, "12")
	assert.True(t, created)
	assert.Equal(t, 2, bp3.ID)
	assert.Equal(t, 2, bpmap.Len())
}

func TestMarkInstalledAndDisarmed(t *testing.T) {
	bpmap := NewBreakpointMap()
	bpmap.RequestBreak(0x401000, "main")

	bpmap.MarkInstalled(0x401000, 0x55)
	bp, ok := bpmap.Lookup(0x401000)
	require.True(t, ok)
	assert.True(t, bp.Armed)
	assert.Equal(t, byte(0x55), bp.OriginalByte)

	bpmap.MarkDisarmed(0x401000)
	assert.False(t, bp.Armed)

	bpmap.MarkInstalled(0x401000, 0x55)
	bpmap.DisarmAll()
	assert.False(t, bp.Armed)

	// unknown addresses are ignored
	bpmap.MarkInstalled(0x999, 0x1)
	_, ok = bpmap.Lookup(0x999)
	assert.False(t, ok)
}

func TestBreakpointListOrder(t *testing.T) {
	bpmap := NewBreakpointMap()
	for _, addr := range []uint64{0x30, 0x10, 0x20} {
		bpmap.RequestBreak(addr, "")
	}
	var ids []int
	var addrs []uint64
	for _, bp := range bpmap.List() {
		ids = append(ids, bp.ID)
		addrs = append(addrs, bp.Addr)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
	assert.Equal(t, []uint64{0x30, 0x10, 0x20}, addrs)
}

func TestPatchOriginalBytes(t *testing.T) {
	bpmap := NewBreakpointMap()
	bpmap.RequestBreak(0x1001, "")
	bpmap.MarkInstalled(0x1001, 0x48)
	bpmap.RequestBreak(0x1003, "")

	buf := []byte{0x55, 0xCC, 0x89, 0xCC}
	bpmap.PatchOriginalBytes(buf, 0x1000)
	// 0x1003 is not armed, its trap byte is left alone
	assert.Equal(t, []byte{0x55, 0x48, 0x89, 0xCC}, buf)
}
