package proc

import "fmt"

// MemoryReader is like io.ReaderAt, but the offset is a uint64 so that it
// can address all of 64-bit memory.
type MemoryReader interface {
	ReadMemory(buf []byte, addr uint64) (n int, err error)
}

// WordReadWriter reads and writes aligned machine words of the target.
// Trace primitives like PTRACE_PEEKDATA/POKEDATA work on whole words, so
// writing a single byte is a read-modify-write of the enclosing word.
type WordReadWriter interface {
	ReadWord(addr uint64) (uint64, error)
	WriteWord(addr, val uint64) error
}

const wordSize = 8

func alignWord(addr uint64) uint64 {
	return addr &^ (wordSize - 1)
}

// WriteByte replaces the byte at addr with val and returns the byte that
// was there before.
func WriteByte(mem WordReadWriter, addr uint64, val byte) (byte, error) {
	aligned := alignWord(addr)
	shift := 8 * (addr - aligned)
	word, err := mem.ReadWord(aligned)
	if err != nil {
		return 0, fmt.Errorf("could not read word at %#x: %w", aligned, err)
	}
	orig := byte(word >> shift)
	word = (word &^ (0xff << shift)) | uint64(val)<<shift
	if err := mem.WriteWord(aligned, word); err != nil {
		return 0, fmt.Errorf("could not write word at %#x: %w", aligned, err)
	}
	return orig, nil
}

// ReadByte returns the byte at addr.
func ReadByte(mem WordReadWriter, addr uint64) (byte, error) {
	aligned := alignWord(addr)
	word, err := mem.ReadWord(aligned)
	if err != nil {
		return 0, err
	}
	return byte(word >> (8 * (addr - aligned))), nil
}

// ReadUintRaw reads a little endian machine word from an arbitrary,
// possibly unaligned, address.
func ReadUintRaw(mem MemoryReader, addr uint64, arch *Arch) (uint64, error) {
	buf := make([]byte, arch.PtrSize)
	if _, err := mem.ReadMemory(buf, addr); err != nil {
		return 0, err
	}
	return arch.ByteOrder.Uint64(buf), nil
}
