package proc

import (
	"fmt"
	"sort"
)

// Breakpoint represents a user requested software breakpoint. Stores the
// byte of code that the trap instruction replaced while it is installed in
// a live process.
type Breakpoint struct {
	ID   int    // Sequential, 1-based, stable for the whole session.
	Addr uint64 // Address breakpoint is set for.
	Spec string // User input the address was resolved from.

	// OriginalByte is the byte overwritten by the trap instruction. Only
	// meaningful while Armed is true.
	OriginalByte byte
	// Armed is true while the trap is believed to be present in the memory
	// of the current inferior.
	Armed bool
}

func (bp *Breakpoint) String() string {
	return fmt.Sprintf("ID: %d ADDR: %#x ORIG_BYTE: %#02x", bp.ID, bp.Addr, bp.OriginalByte)
}

// BreakpointMap is the durable table of user breakpoints, keyed by address.
// It outlives any single inferior: every newly launched process has all of
// its entries installed.
type BreakpointMap struct {
	M map[uint64]*Breakpoint

	breakpointIDCounter int
}

// NewBreakpointMap creates a new BreakpointMap.
func NewBreakpointMap() *BreakpointMap {
	return &BreakpointMap{
		M: make(map[uint64]*Breakpoint),
	}
}

// RequestBreak returns the breakpoint registered at addr, creating it with
// the next sequential ID if it does not exist yet. The second return value
// is true when a new breakpoint was created.
func (bpmap *BreakpointMap) RequestBreak(addr uint64, spec string) (*Breakpoint, bool) {
	if bp, ok := bpmap.M[addr]; ok {
		return bp, false
	}
	bpmap.breakpointIDCounter++
	bp := &Breakpoint{ID: bpmap.breakpointIDCounter, Addr: addr, Spec: spec}
	bpmap.M[addr] = bp
	return bp, true
}

// MarkInstalled records the byte captured while writing the trap at addr.
func (bpmap *BreakpointMap) MarkInstalled(addr uint64, orig byte) {
	if bp, ok := bpmap.M[addr]; ok {
		bp.OriginalByte = orig
		bp.Armed = true
	}
}

// MarkDisarmed records that the trap at addr can no longer be assumed to be
// present in the inferior.
func (bpmap *BreakpointMap) MarkDisarmed(addr uint64) {
	if bp, ok := bpmap.M[addr]; ok {
		bp.Armed = false
	}
}

// DisarmAll marks every breakpoint as not installed, used when the inferior
// goes away.
func (bpmap *BreakpointMap) DisarmAll() {
	for _, bp := range bpmap.M {
		bp.Armed = false
	}
}

// Lookup returns the breakpoint at addr, if any.
func (bpmap *BreakpointMap) Lookup(addr uint64) (*Breakpoint, bool) {
	bp, ok := bpmap.M[addr]
	return bp, ok
}

// Len returns the number of registered breakpoints.
func (bpmap *BreakpointMap) Len() int {
	return len(bpmap.M)
}

// List returns all breakpoints sorted by ID.
func (bpmap *BreakpointMap) List() []*Breakpoint {
	r := make([]*Breakpoint, 0, len(bpmap.M))
	for _, bp := range bpmap.M {
		r = append(r, bp)
	}
	sort.Slice(r, func(i, j int) bool { return r[i].ID < r[j].ID })
	return r
}

// PatchOriginalBytes replaces every armed trap in buf, which holds the
// memory read from addr, with the byte it replaced.
func (bpmap *BreakpointMap) PatchOriginalBytes(buf []byte, addr uint64) {
	for _, bp := range bpmap.M {
		if bp.Armed && bp.Addr >= addr && bp.Addr < addr+uint64(len(buf)) {
			buf[bp.Addr-addr] = bp.OriginalByte
		}
	}
}
