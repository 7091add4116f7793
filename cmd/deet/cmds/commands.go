package cmds

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/go-delve/deet/pkg/config"
	"github.com/go-delve/deet/pkg/logflags"
	"github.com/go-delve/deet/pkg/proc"
	"github.com/go-delve/deet/pkg/terminal"
	"github.com/go-delve/deet/pkg/version"
	"github.com/go-delve/deet/service/debugger"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// initFile is the path to initialization file.
	initFile string
	// workingDir is the working directory for running the program.
	workingDir string
	// tty is used to provide an alternate TTY for the program you wish to debug.
	tty string
	// entryFunction overrides the configured entry function.
	entryFunction string

	rootCommand *cobra.Command

	conf *config.Config
)

const deetCommandLongDesc = `deet is a minimal source level debugger for x86-64 Linux executables.

deet starts the executable under ptrace and lets you set breakpoints on
addresses, source lines of the main file and function names, continue
through them and print backtraces.

The executable must be compiled with debug information and frame pointers,
for example:

` + "`cc -g -O0 -no-pie -fno-omit-frame-pointer -o prog prog.c && deet ./prog`" + `

Arguments for the program are given to the 'run' command of the session.
`

// New returns an initialized command tree.
func New() *cobra.Command {
	// Config setup and load.
	conf = config.LoadConfig()

	// Main deet root command.
	rootCommand = &cobra.Command{
		Use:   "deet [flags] <executable>",
		Short: "deet is a minimal debugger for x86-64 Linux executables.",
		Long:  deetCommandLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd != rootCommand {
				return nil
			}
			if len(args) != 1 {
				return errors.New("you must provide a path to a binary")
			}
			return nil
		},
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Changed("entry") {
				conf.EntryFunction = entryFunction
			}
			os.Exit(execute(args[0], conf))
		},
	}

	addSessionFlags(rootCommand.PersistentFlags())

	// 'version' subcommand.
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "deet Debugger\n%s\n", version.DeetVersion)
			if log {
				fmt.Fprintln(cmd.OutOrStdout(), version.BuildInfo())
			}
		},
	}
	rootCommand.AddCommand(versionCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	debugger	Log session commands and stop events
	native		Log ptrace requests and wait statuses
	symbols		Log loading of the symbol table and line tables

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.

`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

func addSessionFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&log, "log", "", false, "Enable debugging logs.")
	fs.StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'deet help log')`)
	fs.StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'deet help log').")
	fs.StringVar(&initFile, "init", "", "Init file, executed by the terminal client.")
	fs.StringVar(&workingDir, "wd", "", "Working directory for running the program.")
	fs.StringVarP(&tty, "tty", "t", "", "TTY to use for the target program")
	fs.StringVar(&entryFunction, "entry", config.DefaultEntryFunction, "Function at which backtraces stop and whose source file bare line numbers refer to.")
}

func execute(path string, conf *config.Config) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	bi, err := proc.LoadBinaryInfo(path, conf.EntryFunction, conf.SymbolCacheSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load %s: %v\n", path, err)
		return 1
	}

	d, err := debugger.New(&debugger.Config{
		Path:          path,
		Resolver:      bi,
		EntryFunction: conf.EntryFunction,
		MaxStackDepth: conf.MaxStackDepth,
		WorkingDir:    workingDir,
		TTY:           tty,
		DisableASLR:   conf.ASLRDisabled(),
		Arch:          bi.Arch,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	term := terminal.New(d, conf)
	term.InitFile = initFile
	term.Functions = bi
	status, err := term.Run()
	if err != nil {
		fmt.Println(err)
	}
	return status
}
