// Package logflags configures the per-layer loggers used by deet.
package logflags

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var debugger = false
var native = false
var symbols = false

var logOut io.WriteCloser

func makeLogger(enabled bool, fields Fields) Logger {
	var out io.Writer
	if logOut != nil {
		out = logOut
	}
	if lf := loggerFactory; lf != nil {
		return lf(enabled, fields, out)
	}
	return newLogrusLogger(enabled, fields, out)
}

// Debugger returns true if the session controller should log.
func Debugger() bool {
	return debugger
}

// DebuggerLogger returns a logger for the debugger package.
func DebuggerLogger() Logger {
	return makeLogger(debugger, Fields{"layer": "debugger"})
}

// Native returns true if the native backend should log every trace
// primitive it issues.
func Native() bool {
	return native
}

// NativeLogger returns a logger for the native backend.
func NativeLogger() Logger {
	return makeLogger(native, Fields{"layer": "native"})
}

// Symbols returns true if loading and querying debug symbols should be
// logged.
func Symbols() bool {
	return symbols
}

// SymbolsLogger returns a logger for the symbol resolver.
func SymbolsLogger() Logger {
	return makeLogger(symbols, Fields{"layer": "symbols"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets debugger flags based on the contents of logstr.
// If logDest is not empty logs will be redirected to the file descriptor or
// file path specified by logDest.
func Setup(logFlag bool, logstr, logDest string) error {
	if logDest != "" {
		n, err := strconv.Atoi(logDest)
		if err == nil {
			logOut = os.NewFile(uintptr(n), "deet-logs")
		} else {
			fh, err := os.Create(logDest)
			if err != nil {
				return fmt.Errorf("could not create log file: %v", err)
			}
			logOut = fh
		}
	}
	if !logFlag {
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "debugger"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch strings.TrimSpace(logcmd) {
		case "debugger":
			debugger = true
		case "native":
			native = true
		case "symbols":
			symbols = true
		default:
			fmt.Fprintf(os.Stderr, "Warning: unknown log layer %q\n", logcmd)
		}
	}
	return nil
}

// Close closes the logger output.
func Close() {
	if logOut != nil {
		logOut.Close()
		logOut = nil
	}
}
