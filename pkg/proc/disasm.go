package proc

import (
	"golang.org/x/arch/x86/x86asm"
)

// AsmInstruction represents one assembly instruction at some address.
type AsmInstruction struct {
	PC    uint64
	Bytes []byte
	// Text is the instruction in GNU syntax, "?" if it could not be
	// decoded.
	Text string
	// Breakpoint is true if a user breakpoint is armed at PC.
	Breakpoint bool
}

// Disassemble decodes count instructions starting at pc. Bytes replaced by
// armed breakpoints are read back from bpmap so that the real code is
// shown. bpmap and r can be nil.
func Disassemble(mem MemoryReader, bpmap *BreakpointMap, r SymbolResolver, arch *Arch, pc uint64, count int) ([]AsmInstruction, error) {
	buf := make([]byte, count*arch.MaxInstructionLength)
	n, err := mem.ReadMemory(buf, pc)
	if n == 0 && err != nil {
		return nil, err
	}
	buf = buf[:n]
	if bpmap != nil {
		bpmap.PatchOriginalBytes(buf, pc)
	}

	var symLookup x86asm.SymLookup
	if r != nil {
		symLookup = func(addr uint64) (string, uint64) {
			name, ok := r.FunctionForPC(addr)
			if !ok {
				return "", 0
			}
			base, _ := r.PCForFunction(name)
			return name, base
		}
	}

	r2 := make([]AsmInstruction, 0, count)
	for off := 0; off < len(buf) && len(r2) < count; {
		addr := pc + uint64(off)
		inst, err := x86asm.Decode(buf[off:], 64)
		asmInst := AsmInstruction{PC: addr}
		if bpmap != nil {
			if bp, ok := bpmap.Lookup(addr); ok && bp.Armed {
				asmInst.Breakpoint = true
			}
		}
		if err != nil {
			asmInst.Bytes = buf[off : off+1]
			asmInst.Text = "?"
			off++
		} else {
			asmInst.Bytes = buf[off : off+inst.Len]
			asmInst.Text = x86asm.GNUSyntax(inst, addr, symLookup)
			off += inst.Len
		}
		r2 = append(r2, asmInst)
	}
	return r2, nil
}
