// Package terminal implements functions for responding to user
// input and dispatching to appropriate backend commands.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cosiner/argv"
	"github.com/derekparker/trie"

	"github.com/go-delve/deet/service/api"
)

type cmdfunc func(t *Term, args string) error

type command struct {
	aliases        []string
	builtinAliases []string
	group          commandGroup
	helpMsg        string
	cmdFn          cmdfunc
}

// Returns true if the command string matches one of the aliases for this command
func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

// Commands represents the commands for the deet terminal.
type Commands struct {
	cmds    []command
	aliases *trie.Trie // every alias, for completion
}

// DebugCommands returns a Commands struct with default commands defined.
func DebugCommands() *Commands {
	c := &Commands{}

	c.cmds = []command{
		{aliases: []string{"help", "h"}, cmdFn: c.help, helpMsg: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{aliases: []string{"run", "r"}, group: runCmds, cmdFn: run, helpMsg: `Starts the program.

	run [args...]

Arguments are split following the quoting rules of the shell. A program that is already running is killed and started again. Breakpoints are installed before the program executes its first instruction.`},
		{aliases: []string{"continue", "c", "cont"}, group: runCmds, cmdFn: cont, helpMsg: `Run until breakpoint or program termination.

	continue

If the program is stopped at a breakpoint the breakpoint is stepped over first.`},
		{aliases: []string{"break", "b"}, group: breakCmds, cmdFn: breakpoint, helpMsg: `Sets a breakpoint.

	break <location>

The location is one of:

	*<address>	a hexadecimal address, with or without 0x
	<line>		a line of the main source file
	<function>	the entry of a function

Breakpoints can be set before the program is started.`},
		{aliases: []string{"breakpoints", "bp"}, group: breakCmds, cmdFn: breakpoints, helpMsg: "Print out info for active breakpoints."},
		{aliases: []string{"backtrace", "bt", "back"}, group: stackCmds, cmdFn: backtrace, helpMsg: `Print the call stack.

	backtrace

Frames are printed innermost first, up to the entry function of the program.`},
		{aliases: []string{"disassemble", "disass"}, group: stackCmds, cmdFn: disassemble, helpMsg: `Disassembler.

	disassemble [count]

Disassembles count instructions starting at the current instruction. Breakpoints are shown as a '*' after the address.`},
		{aliases: []string{"config"}, cmdFn: configureCmd, helpMsg: `Changes configuration parameters.

	config -list

Show all configuration parameters.

	config -save

Saves the configuration file to disk, overwriting the current configuration file.

	config <parameter> <value>

Changes the value of a configuration parameter. disassemble-count and source-list-line-color apply immediately, the other parameters the next time deet starts.

	config alias <command> <alias>
	config alias <alias>

Defines <alias> as an alias to <command> or removes an alias.`},
		{aliases: []string{"quit", "q", "exit"}, cmdFn: exitCommand, helpMsg: "Exit the debugger, killing the program if it is running."},
	}

	sort.Sort(byFirstAlias(c.cmds))
	c.buildAliasIndex()
	return c
}

// byFirstAlias will sort by the first
// alias of a command.
type byFirstAlias []command

func (a byFirstAlias) Len() int           { return len(a) }
func (a byFirstAlias) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byFirstAlias) Less(i, j int) bool { return a[i].aliases[0] < a[j].aliases[0] }

func (c *Commands) buildAliasIndex() {
	c.aliases = trie.New()
	for _, cmd := range c.cmds {
		for _, alias := range cmd.aliases {
			c.aliases.Add(alias, nil)
		}
	}
}

func (c *Commands) isCommand(name string) bool {
	for _, cmd := range c.cmds {
		if cmd.aliases[0] == name {
			return true
		}
	}
	return false
}

// Find will look up the command function for the given command input.
// If it cannot find the command it will default to noCmdAvailable().
func (c *Commands) Find(cmdstr string) cmdfunc {
	if cmdstr == "" {
		return nullCommand
	}

	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v.cmdFn
		}
	}

	return noCmdAvailable
}

// Call takes a command to execute.
func (c *Commands) Call(cmdstr string, t *Term) error {
	vals := strings.SplitN(strings.TrimSpace(cmdstr), " ", 2)
	cmdname := vals[0]
	var args string
	if len(vals) > 1 {
		args = strings.TrimSpace(vals[1])
	}
	return c.Find(cmdname)(t, args)
}

// Merge takes aliases defined in the config struct and merges them with the default aliases.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if c.cmds[i].builtinAliases != nil {
			c.cmds[i].aliases = append(c.cmds[i].aliases[:0], c.cmds[i].builtinAliases...)
		}
	}
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			if c.cmds[i].builtinAliases == nil {
				c.cmds[i].builtinAliases = make([]string, len(c.cmds[i].aliases))
				copy(c.cmds[i].builtinAliases, c.cmds[i].aliases)
			}
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
	c.buildAliasIndex()
}

// Completions returns the command aliases starting with prefix.
func (c *Commands) Completions(prefix string) []string {
	r := c.aliases.PrefixSearch(strings.ToLower(prefix))
	sort.Strings(r)
	return r
}

var errNoCmd = errors.New("Unrecognized command.")

func noCmdAvailable(t *Term, args string) error {
	return errNoCmd
}

func nullCommand(t *Term, args string) error {
	return nil
}

func (c *Commands) help(t *Term, args string) error {
	if args != "" {
		for _, cmd := range c.cmds {
			for _, alias := range cmd.aliases {
				if alias == args {
					fmt.Fprintln(t.stdout, cmd.helpMsg)
					return nil
				}
			}
		}
		return errNoCmd
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")

	for _, cgd := range commandGroupDescriptions {
		fmt.Fprintf(t.stdout, "\n%s:\n", cgd.description)
		w := new(tabwriter.Writer)
		w.Init(t.stdout, 0, 8, 0, '-', 0)
		for _, cmd := range c.cmds {
			if cmd.group != cgd.group {
				continue
			}
			h := cmd.helpMsg
			if idx := strings.Index(h, "\n"); idx >= 0 {
				h = h[:idx]
			}
			if len(cmd.aliases) > 1 {
				fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
			} else {
				fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(t.stdout)
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

func parseArgv(args string) ([]string, error) {
	if args == "" {
		return nil, nil
	}
	v, err := argv.Argv(args,
		func(s string) (string, error) {
			return "", fmt.Errorf("Backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return nil, err
	}
	if len(v) != 1 {
		return nil, fmt.Errorf("illegal commandline '%s'", args)
	}
	return v[0], nil
}

func run(t *Term, args string) error {
	cmdArgs, err := parseArgv(args)
	if err != nil {
		return err
	}
	if s := t.debugger.State(); s.Running {
		fmt.Fprintf(t.stdout, "Killing running inferior (pid %d)\n", s.Pid)
	}
	state, err := t.debugger.Run(cmdArgs)
	if err != nil {
		return err
	}
	t.printState(state)
	return nil
}

func cont(t *Term, args string) error {
	state, err := t.debugger.Continue()
	if err != nil {
		return err
	}
	if bp := state.PreviousBreakpoint; bp != nil {
		fmt.Fprintf(t.stdout, "Previously stopped at breakpoint %d (%#x)\n", bp.ID, bp.Addr)
	}
	t.printState(state)
	return nil
}

func breakpoint(t *Term, args string) error {
	if args == "" {
		return errors.New("not enough arguments")
	}
	bp, err := t.debugger.Break(args)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "Set breakpoint %d at %s\n", bp.ID, args)
	return nil
}

func breakpoints(t *Term, args string) error {
	bps := t.debugger.Breakpoints()
	if len(bps) == 0 {
		fmt.Fprintln(t.stdout, "No breakpoints.")
		return nil
	}
	for _, bp := range bps {
		state := "pending"
		if bp.Armed {
			state = "installed"
		}
		fmt.Fprintf(t.stdout, "Breakpoint %d at %#x for %s (%s)\n", bp.ID, bp.Addr, bp.Location(t.formatLine), state)
	}
	return nil
}

func backtrace(t *Term, args string) error {
	frames, err := t.debugger.Backtrace()
	for i := range frames {
		fmt.Fprintln(t.stdout, frames[i].Location(t.formatLine))
	}
	return err
}

func disassemble(t *Term, args string) error {
	count := t.conf.DisassembleCount
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			return fmt.Errorf("wrong argument: %q is not a positive number", args)
		}
		count = n
	}
	insts, err := t.debugger.Disassemble(count)
	if err != nil {
		return err
	}
	disasmPrint(insts, t.stdout, t.formatLine)
	return nil
}

// ExitRequestError is returned when the user
// exits deet.
type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

func exitCommand(t *Term, args string) error {
	return ExitRequestError{}
}

func (c *Commands) executeFile(t *Term, name string) error {
	fh, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	lineno := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineno++

		if line == "" || line[0] == '#' {
			continue
		}

		if err := c.Call(line, t); err != nil {
			if _, isExitRequest := err.(ExitRequestError); isExitRequest {
				return err
			}
			fmt.Fprintf(t.stdout, "%s:%d: %v\n", name, lineno, err)
		}
	}

	return scanner.Err()
}

func (t *Term) printState(state *api.DebuggerState) {
	for _, msg := range state.Describe(t.formatLine) {
		fmt.Fprintln(t.stdout, msg)
	}
}
