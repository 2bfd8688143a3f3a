// Package bookkeeping persists enough information about a daemonized
// process to find, verify, and kill it (and its descendants) later.
// Two interchangeable backends implement the same contract: one PID file
// per daemon, or one process group (cgroup) per daemon.
package bookkeeping

import (
	"errors"
	"strings"
	"syscall"
)

var (
	// ErrNotActive marks a daemon whose bookkeeping record is missing,
	// empty, or unparsable. Callers treat it as "daemon not running".
	ErrNotActive = errors.New("daemon is not active")
	// ErrInvalidArgument marks malformed locator inputs.
	ErrInvalidArgument = errors.New("invalid bookkeeping argument")
)

// ConfirmSignal is the signal whose delivery also deletes the bookkeeping
// record: the process is really gone, so the record must not outlive it.
const ConfirmSignal = syscall.SIGKILL

// Backend is the four-operation contract shared by both backends. The
// supervisor and every caller are backend-agnostic; the choice is made
// once at daemonization time.
type Backend interface {
	// Daemonize registers the current process under name/subPath.
	Daemonize(name, subPath string) error
	// PIDs returns the process identifiers recorded for the daemon:
	// exactly one for the file backend, every group member for the group
	// backend. Returns ErrNotActive when the record is gone or empty.
	PIDs(name, subPath string) ([]int, error)
	// IsRunning reports liveness and self-heals stale records.
	IsRunning(name, subPath string) bool
	// Kill signals the daemon's processes. On ConfirmSignal the record is
	// deleted as well. Returns false when nothing could be signaled.
	Kill(name, subPath string, sig syscall.Signal) bool
	// KillAll signals every daemon recorded under subPath, best-effort.
	KillAll(subPath string, sig syscall.Signal)
	// ClearEmpty removes an empty subPath record directory. Errors are
	// swallowed; this is housekeeping only.
	ClearEmpty(subPath string)
	// Release deletes the daemon's record without signaling anything.
	// Used by exit hooks on clean shutdown.
	Release(name, subPath string)
}

// validName rejects identifiers that would escape the bookkeeping root.
func validName(name string) error {
	if name == "" {
		return ErrInvalidArgument
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return ErrInvalidArgument
	}
	return nil
}

// validSubPath allows nested groups but rejects traversal.
func validSubPath(subPath string) error {
	if subPath == "" {
		return nil
	}
	for _, part := range strings.Split(strings.ReplaceAll(subPath, "\\", "/"), "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidArgument
		}
	}
	return nil
}
