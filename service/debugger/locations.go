package debugger

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-delve/deet/pkg/proc"
)

// LocationKind is the kind of location a breakpoint spec names.
type LocationKind uint8

const (
	// AddrLocation is a raw address written as *<hex>.
	AddrLocation LocationKind = iota
	// LineLocation is a line number of the main source file.
	LineLocation
	// FuncLocation is the entry of a named function.
	FuncLocation
)

func (k LocationKind) String() string {
	switch k {
	case AddrLocation:
		return "address"
	case LineLocation:
		return "line"
	default:
		return "function"
	}
}

// LocationSpec is a parsed breakpoint location.
type LocationSpec struct {
	Kind LocationKind
	Addr uint64
	Line int
	Func string
}

// ParseLocationSpec classifies a breakpoint location. A leading '*'
// introduces a hexadecimal address, with or without 0x prefix, a decimal
// number is a line and anything else a function name.
func ParseLocationSpec(locStr string) (LocationSpec, error) {
	locStr = strings.TrimSpace(locStr)
	if locStr == "" {
		return LocationSpec{}, &ResolveError{Spec: locStr, Kind: FuncLocation}
	}

	if strings.HasPrefix(locStr, "*") {
		rest := locStr[1:]
		if strings.HasPrefix(rest, "0x") || strings.HasPrefix(rest, "0X") {
			rest = rest[2:]
		}
		addr, err := strconv.ParseUint(rest, 16, 64)
		if err != nil {
			return LocationSpec{}, &ResolveError{Spec: locStr, Kind: AddrLocation, Err: err}
		}
		return LocationSpec{Kind: AddrLocation, Addr: addr}, nil
	}

	if line, err := strconv.ParseUint(locStr, 10, 64); err == nil {
		// no source file is that long, the lookup fails as a line
		if line > math.MaxInt {
			line = math.MaxInt
		}
		return LocationSpec{Kind: LineLocation, Line: int(line)}, nil
	}

	return LocationSpec{Kind: FuncLocation, Func: locStr}, nil
}

// Find returns the address of the location. Raw addresses are not checked
// against the resolver.
func (loc LocationSpec) Find(r proc.SymbolResolver, locStr string) (uint64, error) {
	switch loc.Kind {
	case AddrLocation:
		return loc.Addr, nil
	case LineLocation:
		if addr, ok := r.PCForLine(loc.Line); ok {
			return addr, nil
		}
	case FuncLocation:
		if addr, ok := r.PCForFunction(loc.Func); ok {
			return addr, nil
		}
	}
	return 0, &ResolveError{Spec: locStr, Kind: loc.Kind}
}

func (loc LocationSpec) String() string {
	switch loc.Kind {
	case AddrLocation:
		return fmt.Sprintf("*%#x", loc.Addr)
	case LineLocation:
		return strconv.Itoa(loc.Line)
	}
	return loc.Func
}
