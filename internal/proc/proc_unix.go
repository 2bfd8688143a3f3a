//go:build !windows

package proc

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// pidAlive probes pid with the null signal. EPERM means the process exists
// but belongs to another user, which still counts as alive.
func pidAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

func killProcess(pid int, sig syscall.Signal) error {
	return syscall.Kill(pid, sig)
}

// groupLeader resolves pid to its thread-group leader via
// /proc/<pid>/status. On systems without procfs (or when the entry is
// unreadable) the pid itself is the canonical killable unit.
func groupLeader(pid int) int {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return pid
	}
	for _, line := range strings.Split(string(data), "\n") {
		rest, ok := strings.CutPrefix(line, "Tgid:")
		if !ok {
			continue
		}
		if tgid, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && tgid > 0 {
			return tgid
		}
		break
	}
	return pid
}
