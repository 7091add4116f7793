package proc

import (
	"debug/dwarf"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/derekparker/trie"
	lru "github.com/hashicorp/golang-lru"

	"github.com/go-delve/deet/pkg/logflags"
)

// ErrNoDebugInfo is returned when the executable has no DWARF sections.
var ErrNoDebugInfo = errors.New("could not find debug symbols in the executable")

// Function describes a function of the target executable.
type Function struct {
	Name       string
	Entry, End uint64 // same as DW_AT_lowpc and DW_AT_highpc
	// HasDebugInfo is false for functions only known from the ELF symbol
	// table.
	HasDebugInfo bool
}

type lineRow struct {
	addr        uint64
	file        string
	line        int
	isStmt      bool
	endSequence bool
}

type pcInfo struct {
	fn   *Function
	line int
}

// BinaryInfo holds the debug information of an executable and implements
// SymbolResolver on top of it. Addresses are link time addresses, position
// independent executables are not relocated.
type BinaryInfo struct {
	Path string
	Arch *Arch
	// EntryFunction is the name of the function the main source file is
	// derived from.
	EntryFunction string
	// MainFile is the source file bare line numbers refer to.
	MainFile string
	// PIE is true if the executable is position independent.
	PIE bool

	functions []*Function // sorted by Entry
	lines     []lineRow   // sorted by address
	names     *trie.Trie  // function name -> *Function
	pcCache   *lru.Cache  // pc -> pcInfo
}

// LoadBinaryInfo reads the ELF symbol table and the DWARF debug information
// of the executable at path. cacheSize is the number of address lookups
// memoized by the returned BinaryInfo.
func LoadBinaryInfo(path, entry string, cacheSize int) (*BinaryInfo, error) {
	log := logflags.SymbolsLogger()

	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	if f.Machine != elf.EM_X86_64 {
		return nil, fmt.Errorf("unsupported architecture %s", f.Machine)
	}

	d, err := f.DWARF()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDebugInfo, err)
	}

	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}

	bi := &BinaryInfo{
		Path:          path,
		Arch:          AMD64Arch(),
		EntryFunction: entry,
		PIE:           f.Type == elf.ET_DYN,
		names:         trie.New(),
		pcCache:       cache,
	}
	if bi.PIE {
		log.Warnf("%s is position independent, addresses will not be relocated", path)
	}

	firstCU, err := bi.loadDebugInfo(d)
	if err != nil {
		return nil, err
	}
	bi.loadSymbolTable(f)

	sort.Slice(bi.functions, func(i, j int) bool { return bi.functions[i].Entry < bi.functions[j].Entry })
	sort.SliceStable(bi.lines, func(i, j int) bool {
		if bi.lines[i].addr != bi.lines[j].addr {
			return bi.lines[i].addr < bi.lines[j].addr
		}
		// a sequence ending at addr must not shadow the sequence starting there
		return bi.lines[i].endSequence && !bi.lines[j].endSequence
	})

	bi.MainFile = firstCU
	if fn := bi.lookupFunction(entry); fn != nil {
		if row, ok := bi.rowForPC(fn.Entry); ok {
			bi.MainFile = row.file
		}
	}

	log.Debugf("loaded %d functions, %d line rows, main file %s", len(bi.functions), len(bi.lines), bi.MainFile)
	return bi, nil
}

// loadDebugInfo reads functions and line tables from every compile unit and
// returns the name of the first compile unit with line information.
func (bi *BinaryInfo) loadDebugInfo(d *dwarf.Data) (string, error) {
	var firstCU string
	r := d.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return "", fmt.Errorf("could not read debug info: %w", err)
		}
		if e == nil {
			break
		}
		switch e.Tag {
		case dwarf.TagCompileUnit:
			hasLines, err := bi.loadLines(d, e)
			if err != nil {
				return "", err
			}
			if hasLines && firstCU == "" {
				firstCU, _ = e.Val(dwarf.AttrName).(string)
			}
		case dwarf.TagSubprogram:
			if fn := subprogram(d, e); fn != nil {
				bi.addFunction(fn)
			}
		}
	}
	return firstCU, nil
}

type rangesReader interface {
	Ranges(e *dwarf.Entry) ([][2]uint64, error)
}

// subprogram returns the function described by a DW_TAG_subprogram entry,
// nil for declarations and entries without code.
func subprogram(d rangesReader, e *dwarf.Entry) *Function {
	name, ok := e.Val(dwarf.AttrName).(string)
	if !ok {
		return nil
	}
	ranges, err := d.Ranges(e)
	if err != nil {
		logflags.SymbolsLogger().WithError(err).Warnf("could not read address ranges of %s", name)
		return nil
	}
	if len(ranges) == 0 {
		return nil
	}
	return &Function{Name: name, Entry: ranges[0][0], End: ranges[0][1], HasDebugInfo: true}
}

func (bi *BinaryInfo) loadLines(d *dwarf.Data, cu *dwarf.Entry) (bool, error) {
	lr, err := d.LineReader(cu)
	if err != nil {
		return false, fmt.Errorf("could not read line table: %w", err)
	}
	if lr == nil {
		return false, nil
	}
	var n int
	for {
		var le dwarf.LineEntry
		err := lr.Next(&le)
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, fmt.Errorf("could not read line table: %w", err)
		}
		row := lineRow{addr: le.Address, line: le.Line, isStmt: le.IsStmt, endSequence: le.EndSequence}
		if le.File != nil {
			row.file = le.File.Name
		}
		bi.lines = append(bi.lines, row)
		n++
	}
	return n > 0, nil
}

// loadSymbolTable adds the functions that only appear in the ELF symbol
// table, like the C runtime startup code.
func (bi *BinaryInfo) loadSymbolTable(f *elf.File) {
	syms, err := f.Symbols()
	if err != nil {
		logflags.SymbolsLogger().Debugf("no symbol table: %v", err)
		return
	}
	for _, sym := range syms {
		if elf.ST_TYPE(sym.Info) != elf.STT_FUNC || sym.Value == 0 || sym.Name == "" {
			continue
		}
		if _, ok := bi.names.Find(sym.Name); ok {
			continue
		}
		bi.addFunction(&Function{Name: sym.Name, Entry: sym.Value, End: sym.Value + sym.Size})
	}
}

func (bi *BinaryInfo) addFunction(fn *Function) {
	bi.functions = append(bi.functions, fn)
	// the first definition of a name wins
	if _, ok := bi.names.Find(fn.Name); !ok {
		bi.names.Add(fn.Name, fn)
	}
}

func (bi *BinaryInfo) lookupFunction(name string) *Function {
	node, ok := bi.names.Find(name)
	if !ok {
		return nil
	}
	return node.Meta().(*Function)
}

// PCToFunc returns the function containing the given PC address
func (bi *BinaryInfo) PCToFunc(pc uint64) *Function {
	i := sort.Search(len(bi.functions), func(i int) bool {
		return bi.functions[i].Entry > pc
	})
	// zero sized symbols can sit right after the function containing pc
	for i--; i >= 0; i-- {
		fn := bi.functions[i]
		if pc >= fn.Entry && (pc < fn.End || (fn.End == fn.Entry && pc == fn.Entry)) {
			return fn
		}
		if !fn.HasDebugInfo && fn.End == fn.Entry {
			continue
		}
		if pc >= fn.End {
			return nil
		}
	}
	return nil
}

func (bi *BinaryInfo) rowForPC(pc uint64) (lineRow, bool) {
	i := sort.Search(len(bi.lines), func(i int) bool {
		return bi.lines[i].addr > pc
	})
	if i == 0 {
		return lineRow{}, false
	}
	row := bi.lines[i-1]
	if row.endSequence {
		return lineRow{}, false
	}
	return row, true
}

func (bi *BinaryInfo) lookupPC(pc uint64) pcInfo {
	if v, ok := bi.pcCache.Get(pc); ok {
		return v.(pcInfo)
	}
	var info pcInfo
	info.fn = bi.PCToFunc(pc)
	if row, ok := bi.rowForPC(pc); ok {
		info.line = row.line
	}
	bi.pcCache.Add(pc, info)
	return info
}

// LineForPC returns the source line of the instruction at pc.
func (bi *BinaryInfo) LineForPC(pc uint64) (int, bool) {
	info := bi.lookupPC(pc)
	return info.line, info.line > 0
}

// FunctionForPC returns the name of the function containing pc.
func (bi *BinaryInfo) FunctionForPC(pc uint64) (string, bool) {
	info := bi.lookupPC(pc)
	if info.fn == nil {
		return "", false
	}
	return info.fn.Name, true
}

// PCForLine returns the lowest statement address of line in the main
// source file.
func (bi *BinaryInfo) PCForLine(line int) (uint64, bool) {
	var (
		pc    uint64
		found bool
	)
	for _, row := range bi.lines {
		if row.endSequence || !row.isStmt || row.line != line || row.file != bi.MainFile {
			continue
		}
		if !found || row.addr < pc {
			pc, found = row.addr, true
		}
	}
	return pc, found
}

// PCForFunction returns the entry address of the named function.
func (bi *BinaryInfo) PCForFunction(name string) (uint64, bool) {
	fn := bi.lookupFunction(name)
	if fn == nil {
		return 0, false
	}
	return fn.Entry, true
}

// FunctionsWithPrefix returns the names of all functions starting with
// prefix.
func (bi *BinaryInfo) FunctionsWithPrefix(prefix string) []string {
	r := bi.names.PrefixSearch(prefix)
	sort.Strings(r)
	return r
}
