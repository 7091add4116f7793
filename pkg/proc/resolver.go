package proc

// SymbolResolver maps instruction addresses to functions and source lines
// and back. Every query reports lookup failure through its boolean result.
type SymbolResolver interface {
	// LineForPC returns the source line of the instruction at pc.
	LineForPC(pc uint64) (int, bool)
	// FunctionForPC returns the name of the function containing pc.
	FunctionForPC(pc uint64) (string, bool)
	// PCForLine returns the address of the first statement of line in the
	// main source file.
	PCForLine(line int) (uint64, bool)
	// PCForFunction returns the entry address of the named function.
	PCForFunction(name string) (uint64, bool)
}
