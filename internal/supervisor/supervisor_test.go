package supervisor

import (
	"os"
	"testing"
	"time"

	"github.com/loykin/rdaemon/internal/bookkeeping"
	"github.com/loykin/rdaemon/internal/daemon"
	"github.com/loykin/rdaemon/internal/history"
)

func TestDaemonizeAndSuperviseReleasesRecord(t *testing.T) {
	be := &bookkeeping.FileBackend{Root: t.TempDir()}
	rec, err := history.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	defer func() { _ = rec.Close() }()

	s := New("svc", "", be, rec, nil)
	if err := s.Daemonize(); err != nil {
		t.Fatalf("daemonize: %v", err)
	}
	if !be.IsRunning("svc", "") {
		t.Fatalf("record missing after daemonize")
	}

	d := daemon.NewBase("svc", nil, nil)
	done := make(chan struct{})
	go func() {
		s.Supervise(d)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	d.Terminate()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("supervise did not return after terminate")
	}

	if be.IsRunning("svc", "") {
		t.Fatalf("record not released after run loop ended")
	}
	events, err := rec.Recent(t.Context(), "svc", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want daemonized+terminated events, got %d", len(events))
	}
	if events[0].Type != history.EventTerminated || events[1].Type != history.EventDaemonized {
		t.Fatalf("unexpected event order: %v %v", events[0].Type, events[1].Type)
	}
	for _, e := range events {
		if e.PID != os.Getpid() {
			t.Fatalf("event pid %d, want %d", e.PID, os.Getpid())
		}
	}
}

func TestExitHooksRunOnceReversed(t *testing.T) {
	be := &bookkeeping.FileBackend{Root: t.TempDir()}
	s := New("h", "", be, nil, nil)

	var order []string
	s.AddExitHook(func() { order = append(order, "first") })
	s.AddExitHook(func() { order = append(order, "second") })
	s.RunExitHooks()
	s.RunExitHooks()
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("hook order = %v", order)
	}
}

func TestSuperviseWithSubPathClearsGroupDir(t *testing.T) {
	be := &bookkeeping.FileBackend{Root: t.TempDir()}
	s := New("member", "grp", be, nil, nil)
	if err := s.Daemonize(); err != nil {
		t.Fatalf("daemonize: %v", err)
	}

	d := daemon.NewBase("member", nil, nil)
	d.Terminate()
	s.Supervise(d)

	if be.IsRunning("member", "grp") {
		t.Fatalf("record not released")
	}
	if _, err := os.Stat(be.Root + "/grp"); !os.IsNotExist(err) {
		t.Fatalf("empty group dir not cleared: %v", err)
	}
}

func TestDetachedEnvMarker(t *testing.T) {
	if Detached() {
		t.Fatalf("unexpected detached state in test process")
	}
	t.Setenv(detachEnv, "1")
	if !Detached() {
		t.Fatalf("env marker not honored")
	}
}
