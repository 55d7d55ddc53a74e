//go:build !unix

package adapter

import (
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

func configureProcessGroup(_ *exec.Cmd) {}

func killProcessTree(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	if runtime.GOOS == "windows" {
		// #nosec G204 - pid is ours
		kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
		if err := kill.Run(); err == nil {
			return nil
		}
	}

	return cmd.Process.Kill()
}

func waitProcessTreeExit(_ int, _ time.Duration) {}
