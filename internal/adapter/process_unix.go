//go:build unix

package adapter

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessTree sends SIGKILL to the whole process group led by cmd.
func killProcessTree(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}

	return err
}

// waitProcessTreeExit polls until no member of the group is left or the
// deadline passes.
func waitProcessTreeExit(pgid int, limit time.Duration) {
	deadline := time.Now().Add(limit)

	for time.Now().Before(deadline) {
		if err := unix.Kill(-pgid, 0); errors.Is(err, unix.ESRCH) {
			return
		}

		// Stragglers that survived the first signal, e.g. forked after it.
		_ = unix.Kill(-pgid, unix.SIGKILL)

		time.Sleep(10 * time.Millisecond)
	}
}
