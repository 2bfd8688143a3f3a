// Package proc wraps the OS-level process operations the supervision layer
// relies on: liveness probes, best-effort signal delivery, and bulk
// signaling of process sets with thread-group deduplication.
package proc

import "syscall"

// Alive reports whether a process with the given pid exists. A pid we are
// not permitted to signal still counts as alive.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return pidAlive(pid)
}

// Kill sends sig to pid. It is best-effort and never surfaces a raw OS
// error: false means the signal could not be delivered, which callers
// treat as "process already gone".
func Kill(pid int, sig syscall.Signal) bool {
	if pid <= 0 {
		return false
	}
	return killProcess(pid, sig) == nil
}

// KillMany signals a set of pids, reducing each pid to its canonical
// killable unit first so threads of the same process receive the signal
// once. Per-pid failures are ignored.
func KillMany(pids []int, sig syscall.Signal) {
	leaders := make(map[int]struct{}, len(pids))
	for _, pid := range pids {
		if pid <= 0 {
			continue
		}
		leaders[groupLeader(pid)] = struct{}{}
	}
	for pid := range leaders {
		_ = killProcess(pid, sig)
	}
}
