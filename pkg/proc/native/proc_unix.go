//go:build linux && amd64

package native

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	isatty "github.com/mattn/go-isatty"
)

// redirectToTTY makes the terminal at path the controlling terminal and
// the stdio of process. The process is started in a new session, so the
// process group to kill is still its pid. The returned file must be kept
// open until the process exits.
func redirectToTTY(process *exec.Cmd, path string) (*os.File, error) {
	tty, err := os.OpenFile(path, os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open terminal: %w", err)
	}
	if !isatty.IsTerminal(tty.Fd()) {
		tty.Close()
		return nil, fmt.Errorf("%s is not a terminal", path)
	}

	process.Stdin, process.Stdout, process.Stderr = tty, tty, tty
	attr := process.SysProcAttr
	attr.Setpgid = false
	attr.Setsid, attr.Setctty = true, true
	// Ctty is a descriptor of the child, stdin
	attr.Ctty = 0
	return tty, nil
}
