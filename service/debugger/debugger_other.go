//go:build !linux

package debugger

func launchErrorMessage(err error) error {
	return err
}
