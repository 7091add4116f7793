package debugger

import (
	"errors"
	"fmt"
	"io/ioutil"

	sys "golang.org/x/sys/unix"
)

//lint:file-ignore ST1005 errors here can be capitalized

func launchErrorMessage(err error) error {
	if !errors.Is(err, sys.EPERM) {
		return err
	}
	bs, rerr := ioutil.ReadFile("/proc/sys/kernel/yama/ptrace_scope")
	if rerr == nil && len(bs) >= 1 && bs[0] == '3' {
		// Yama documentation: https://www.kernel.org/doc/Documentation/security/Yama.txt
		return fmt.Errorf("%w: tracing is disabled by /proc/sys/kernel/yama/ptrace_scope", err)
	}
	return fmt.Errorf("%w: this could be caused by a seccomp profile that forbids ptrace", err)
}
