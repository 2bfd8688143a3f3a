package supervisor

import (
	"fmt"
	"os"
	"os/exec"
)

// detachEnv marks the re-executed child so it does not detach again.
const detachEnv = "RDAEMON_DETACHED"

// daemonWorkDir is where detached children run. Staying in the
// launcher's directory would pin that directory and its mount for the
// daemon's whole lifetime.
const daemonWorkDir = "/"

func init() {
	if Detached() {
		resetUmask()
	}
}

// Detached reports whether this process is the background child of a
// Detach call.
func Detached() bool {
	return os.Getenv(detachEnv) == "1"
}

// Detach re-executes the current binary in a new session with stdin
// closed and stdout/stderr appended to logPath (or discarded when empty).
// It returns the child PID; the caller is the foreground parent and
// should exit. The child observes Detached() == true and skips this path.
func Detach(logPath string) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	// #nosec 204
	cmd := exec.Command(executable, os.Args[1:]...)
	cmd.Dir = daemonWorkDir
	cmd.Env = append(os.Environ(), detachEnv+"=1")
	configureDetachAttrs(cmd)

	cmd.Stdin = nil
	if logPath != "" {
		// #nosec 304
		logF, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return 0, fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = logF.Close() }()
		cmd.Stdout = logF
		cmd.Stderr = logF
	} else {
		cmd.Stdout = nil
		cmd.Stderr = nil
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon process: %w", err)
	}
	// Do not wait: the child outlives us.
	_ = cmd.Process.Release()
	return cmd.Process.Pid, nil
}
