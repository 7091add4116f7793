package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-delve/liner"
	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"

	"github.com/go-delve/deet/pkg/config"
	"github.com/go-delve/deet/service/api"
	"github.com/go-delve/deet/service/debugger"
)

const (
	historyFile                 string = "history"
	terminalHighlightEscapeCode string = "\033[%2dm"
	terminalResetEscapeCode     string = "\033[0m"
)

const (
	ansiBlack   = 30
	ansiWhite   = 37
	ansiBlue    = 34
	ansiBrBlack = 90
	ansiBrWhite = 97
)

// FunctionLister lists the functions of the target whose name starts
// with a prefix, for completion.
type FunctionLister interface {
	FunctionsWithPrefix(prefix string) []string
}

// Term represents the terminal running deet.
type Term struct {
	debugger *debugger.Debugger
	conf     *config.Config
	prompt   string
	line     *liner.State
	cmds     *Commands
	dumb     bool
	stdout   io.Writer
	stderr   io.Writer

	// InitFile is a file of commands executed before the first prompt.
	InitFile string
	// Functions completes function names after break.
	Functions FunctionLister
}

// New returns a new Term.
func New(d *debugger.Debugger, conf *config.Config) *Term {
	t := newTerm(d, conf)
	if !t.dumb {
		t.stdout = colorable.NewColorableStdout()
		t.dumb = !isatty.IsTerminal(os.Stdout.Fd())
	}
	t.line = liner.NewLiner()
	return t
}

func newTerm(d *debugger.Debugger, conf *config.Config) *Term {
	cmds := DebugCommands()
	if conf != nil && conf.Aliases != nil {
		cmds.Merge(conf.Aliases)
	}

	if conf == nil {
		conf = config.Default()
	}

	if (conf.SourceListLineColor > ansiWhite &&
		conf.SourceListLineColor < ansiBrBlack) ||
		conf.SourceListLineColor < ansiBlack ||
		conf.SourceListLineColor > ansiBrWhite {
		conf.SourceListLineColor = ansiBlue
	}

	return &Term{
		debugger: d,
		conf:     conf,
		prompt:   "(deet) ",
		cmds:     cmds,
		dumb:     strings.ToLower(os.Getenv("TERM")) == "dumb",
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
}

// Close returns the terminal to its previous mode.
func (t *Term) Close() {
	if t.line != nil {
		t.line.Close()
	}
}

func (t *Term) complete(line string) (c []string) {
	for _, prefix := range []string{"break ", "b "} {
		if t.Functions != nil && strings.HasPrefix(line, prefix) {
			for _, fn := range t.Functions.FunctionsWithPrefix(strings.TrimLeft(line[len(prefix):], " ")) {
				c = append(c, prefix+fn)
			}
			return c
		}
	}
	return t.cmds.Completions(line)
}

// Run begins running deet in the terminal.
func (t *Term) Run() (int, error) {
	defer t.Close()

	t.line.SetCtrlCAborts(true)
	t.line.SetCompleter(t.complete)
	t.loadHistory()

	if t.InitFile != "" {
		err := t.cmds.executeFile(t, t.InitFile)
		if err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}
			fmt.Fprintf(t.stderr, "Error executing init file: %s\n", err)
		}
	}

	for {
		cmdstr, err := t.promptForInput()
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Fprintln(t.stdout, `Type "quit" to exit`)
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(t.stdout, "quit")
				return t.handleExit()
			}
			return 1, fmt.Errorf("Prompt for input failed.\n")
		}
		if cmdstr == "" {
			continue
		}

		if err := t.cmds.Call(cmdstr, t); err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}
			t.printError(err)
		}
	}
}

func (t *Term) printError(err error) {
	switch {
	case err == errNoCmd:
		fmt.Fprintln(t.stdout, err)
	case errors.Is(err, debugger.ErrNoProcess):
		fmt.Fprintln(t.stdout, "The process is not running")
	default:
		fmt.Fprintf(t.stderr, "Command failed: %s\n", err)
	}
}

// formatLine colors line numbers when writing to a terminal.
func (t *Term) formatLine(line int) string {
	if t.dumb {
		return api.PlainLine(line)
	}
	return fmt.Sprintf(terminalHighlightEscapeCode+"%d"+terminalResetEscapeCode, t.conf.SourceListLineColor, line)
}

func (t *Term) promptForInput() (string, error) {
	l, err := t.line.Prompt(t.prompt)
	if err != nil {
		return "", err
	}

	l = strings.TrimSpace(l)
	if l != "" {
		t.line.AppendHistory(l)
		t.saveHistory()
	}

	return l, nil
}

func (t *Term) loadHistory() {
	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Fprintf(t.stderr, "Unable to load history file: %v.\n", err)
		return
	}
	f, err := os.Open(fullHistoryFile)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := t.line.ReadHistory(f); err != nil {
		fmt.Fprintf(t.stderr, "Unable to read history file: %v.\n", err)
	}
}

// saveHistory rewrites the history file.
func (t *Term) saveHistory() {
	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		return
	}
	f, err := os.Create(fullHistoryFile)
	if err != nil {
		fmt.Fprintf(t.stderr, "Warning: failed to save history file at %s: %v\n", fullHistoryFile, err)
		return
	}
	defer f.Close()
	if _, err := t.line.WriteHistory(f); err != nil {
		fmt.Fprintf(t.stderr, "Warning: failed to save history file at %s: %v\n", fullHistoryFile, err)
	}
}

func (t *Term) handleExit() (int, error) {
	if err := t.debugger.Quit(); err != nil {
		return 1, err
	}
	return 0, nil
}
