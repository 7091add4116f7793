package proc

import (
	"encoding/binary"
)

// Arch describes the properties of a CPU architecture the core depends on.
type Arch struct {
	Name string
	// PtrSize is the size of a pointer and of the machine word used by the
	// memory peek/poke primitives.
	PtrSize int
	// BreakpointInstruction is the trap instruction written over code to
	// implement software breakpoints.
	BreakpointInstruction []byte
	// MaxInstructionLength is the longest instruction the architecture can
	// encode.
	MaxInstructionLength int
	ByteOrder            binary.ByteOrder
}

var amd64BreakInstruction = []byte{0xCC}

// AMD64Arch returns the description of the AMD64 architecture.
func AMD64Arch() *Arch {
	return &Arch{
		Name:                  "amd64",
		PtrSize:               8,
		BreakpointInstruction: amd64BreakInstruction,
		MaxInstructionLength:  15,
		ByteOrder:             binary.LittleEndian,
	}
}

// BreakpointSize returns the size of the breakpoint instruction.
func (a *Arch) BreakpointSize() int {
	return len(a.BreakpointInstruction)
}
