package api

import (
	"github.com/go-delve/deet/pkg/proc"
)

// ConvertBreakpoint converts from a proc.Breakpoint to
// an api.Breakpoint. r can be nil.
func ConvertBreakpoint(bp *proc.Breakpoint, r proc.SymbolResolver) *Breakpoint {
	if bp == nil {
		return nil
	}
	b := &Breakpoint{
		ID:           bp.ID,
		Addr:         bp.Addr,
		Spec:         bp.Spec,
		Armed:        bp.Armed,
		OriginalByte: bp.OriginalByte,
	}
	if r != nil {
		b.FunctionName, _ = r.FunctionForPC(bp.Addr)
		b.Line, _ = r.LineForPC(bp.Addr)
	}
	return b
}

// ConvertBreakpoints converts a slice of proc.Breakpoint to a slice of
// api.Breakpoint.
func ConvertBreakpoints(bps []*proc.Breakpoint, r proc.SymbolResolver) []*Breakpoint {
	if len(bps) == 0 {
		return nil
	}
	r2 := make([]*Breakpoint, len(bps))
	for i := range bps {
		r2[i] = ConvertBreakpoint(bps[i], r)
	}
	return r2
}

// ConvertStackframes converts frames returned by the backend.
func ConvertStackframes(frames []proc.Stackframe) []Stackframe {
	if frames == nil {
		return nil
	}
	r := make([]Stackframe, len(frames))
	for i, frame := range frames {
		r[i] = Stackframe{
			PC:           frame.PC,
			FramePointer: frame.FramePointer,
			Function:     frame.Function,
			Line:         frame.Line,
		}
	}
	return r
}

// ConvertAsmInstruction converts from proc.AsmInstruction to api.AsmInstruction.
func ConvertAsmInstruction(inst proc.AsmInstruction, pc uint64, r proc.SymbolResolver) AsmInstruction {
	r2 := AsmInstruction{
		PC:         inst.PC,
		Bytes:      inst.Bytes,
		Text:       inst.Text,
		Breakpoint: inst.Breakpoint,
		AtPC:       inst.PC == pc,
	}
	if r != nil {
		r2.Function, _ = r.FunctionForPC(inst.PC)
		r2.Line, _ = r.LineForPC(inst.PC)
	}
	return r2
}
