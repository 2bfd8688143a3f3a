package supervisor

import (
	"log/slog"
	"os"

	"github.com/loykin/rdaemon/internal/bookkeeping"
	"github.com/loykin/rdaemon/internal/daemon"
	"github.com/loykin/rdaemon/internal/history"
	"github.com/loykin/rdaemon/internal/logger"
)

// LaunchSpec describes a daemon to run in a detached background process.
type LaunchSpec struct {
	Name     string
	SubPath  string
	Backend  bookkeeping.Backend
	Recorder history.Recorder
	// Log configures the child's logger, built after detachment so the
	// rotated file sink belongs to the daemon, not the launcher.
	Log logger.Config
	// LaunchLog captures the child's raw stdout/stderr; empty discards.
	LaunchLog string
}

// Launch runs a daemon in the background. In the foreground caller it
// re-executes the binary and returns the child PID with detached=false;
// the caller should exit. In the re-executed child it builds the logger,
// registers in bookkeeping, and supervises the daemon built by run until
// termination, returning detached=true when the run loop has ended.
//
// The caller's main must reach this Launch call on the same code path in
// both processes; that is what re-execution replays.
func Launch(spec LaunchSpec, run func(log *slog.Logger) daemon.Daemon) (pid int, detached bool, err error) {
	if !Detached() {
		pid, err = Detach(spec.LaunchLog)
		return pid, false, err
	}

	log, closer, err := spec.Log.New(spec.Name)
	if err != nil {
		return 0, true, err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	d := run(log)
	sup := New(spec.Name, spec.SubPath, spec.Backend, spec.Recorder, log)
	if err := sup.Daemonize(); err != nil {
		return 0, true, err
	}
	stop := sup.HandleSignals(d)
	defer stop()

	sup.Supervise(d)
	return os.Getpid(), true, nil
}
