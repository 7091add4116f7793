package proc

import (
	"fmt"
)

// Stackframe represents a frame in a system stack.
type Stackframe struct {
	// PC is the current instruction address for the innermost frame and
	// the return address for every other frame.
	PC uint64
	// FramePointer is the frame base of this frame.
	FramePointer uint64

	Function string
	Line     int
}

// Stacktrace walks the saved frame pointer chain starting at pc and fp.
// The walk stops after the frame of the entry function, or after depth
// frames when depth is positive. The frames collected before an error are
// always returned.
//
// The walk assumes the conventional frame layout: the caller's frame
// pointer is stored at [fp] and the return address right above it, at
// [fp+PtrSize].
func Stacktrace(mem MemoryReader, arch *Arch, r SymbolResolver, pc, fp uint64, entry string, depth int) ([]Stackframe, error) {
	var frames []Stackframe
	for {
		fn, okfn := r.FunctionForPC(pc)
		line, okline := r.LineForPC(pc)
		if !okfn || !okline {
			return frames, &ErrUnresolvedPC{PC: pc}
		}
		frames = append(frames, Stackframe{PC: pc, FramePointer: fp, Function: fn, Line: line})
		if fn == entry {
			return frames, nil
		}
		if depth > 0 && len(frames) >= depth {
			return frames, nil
		}
		if fp == 0 {
			return frames, fmt.Errorf("frame pointer chain ends in %s before reaching %s", fn, entry)
		}
		ret, err := ReadUintRaw(mem, fp+uint64(arch.PtrSize), arch)
		if err != nil {
			return frames, fmt.Errorf("could not read return address at %#x: %w", fp+uint64(arch.PtrSize), err)
		}
		next, err := ReadUintRaw(mem, fp, arch)
		if err != nil {
			return frames, fmt.Errorf("could not read frame pointer at %#x: %w", fp, err)
		}
		pc, fp = ret, next
	}
}
