// Package proc contains the target independent part of the debugger core:
// the breakpoint registry, stop events, the symbol resolver contract and
// its ELF/DWARF implementation, and the helpers used to patch and walk
// target memory.
//
// The code that actually traces a process lives in proc/native.
package proc
