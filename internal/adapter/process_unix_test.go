//go:build unix

package adapter

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// processAlive treats zombies as dead: they hold no resources beyond a pid.
func processAlive(pid int) bool {
	if err := unix.Kill(pid, 0); errors.Is(err, unix.ESRCH) {
		return false
	}

	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return !os.IsNotExist(err) || !procAvailable()
	}

	// The state follows the parenthesised command name.
	stat := string(data)
	if i := strings.LastIndexByte(stat, ')'); i >= 0 && i+2 < len(stat) {
		return stat[i+2] != 'Z'
	}

	return true
}

func procAvailable() bool {
	_, err := os.Stat("/proc/self")
	return err == nil
}
