package supervisor

import (
	"log/slog"
	"os"
	"testing"

	"github.com/loykin/rdaemon/internal/bookkeeping"
	"github.com/loykin/rdaemon/internal/daemon"
)

func TestLaunchChildPathSupervises(t *testing.T) {
	// Pretend to be the re-executed child so Launch runs the daemon
	// in-process instead of spawning one.
	t.Setenv(detachEnv, "1")

	be := &bookkeeping.FileBackend{Root: t.TempDir()}
	spec := LaunchSpec{Name: "launched", Backend: be}

	var ran bool
	pid, detached, err := Launch(spec, func(log *slog.Logger) daemon.Daemon {
		ran = true
		d := daemon.NewBase("launched", nil, log)
		d.Terminate() // end the run immediately
		return d
	})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if !detached || !ran {
		t.Fatalf("child path not taken (detached=%v ran=%v)", detached, ran)
	}
	if pid != os.Getpid() {
		t.Fatalf("pid = %d, want %d", pid, os.Getpid())
	}
	if be.IsRunning("launched", "") {
		t.Fatalf("record not released after supervised run")
	}
}

func TestLaunchChildPathRejectsBadLogConfig(t *testing.T) {
	t.Setenv(detachEnv, "1")
	be := &bookkeeping.FileBackend{Root: t.TempDir()}
	spec := LaunchSpec{Name: "badlog", Backend: be}
	spec.Log.Level = "loud"
	_, _, err := Launch(spec, func(log *slog.Logger) daemon.Daemon {
		return daemon.NewBase("badlog", nil, log)
	})
	if err == nil {
		t.Fatalf("bad log config accepted")
	}
}
