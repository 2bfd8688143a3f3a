package daemon

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/loykin/rdaemon/internal/bookkeeping"
)

func TestTaskFuncsNilDefaults(t *testing.T) {
	var task TaskFuncs
	if err := task.Setup(); err != nil {
		t.Fatalf("nil setup: %v", err)
	}
	if err := task.PeriodicTask(true); err != nil {
		t.Fatalf("nil periodic: %v", err)
	}
	if err := task.Teardown(); err != nil {
		t.Fatalf("nil teardown: %v", err)
	}
	if task.IsFinished() {
		t.Fatalf("nil finished must report false")
	}
}

func TestTaskFuncsDelegates(t *testing.T) {
	var gotScheduled bool
	task := TaskFuncs{
		SetupFunc:    func() error { return errors.New("setup") },
		PeriodicFunc: func(s bool) error { gotScheduled = s; return nil },
		FinishedFunc: func() bool { return true },
	}
	if err := task.Setup(); err == nil || err.Error() != "setup" {
		t.Fatalf("setup delegate not called: %v", err)
	}
	if err := task.PeriodicTask(true); err != nil || !gotScheduled {
		t.Fatalf("periodic delegate not called")
	}
	if !task.IsFinished() {
		t.Fatalf("finished delegate not called")
	}
}

func TestAliveCheckerWatchesOwnProcess(t *testing.T) {
	var c AliveChecker
	c.PID = os.Getpid()
	if err := c.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := c.PeriodicTask(true); err != nil {
		t.Fatalf("periodic: %v", err)
	}
	if c.IsFinished() {
		t.Fatalf("own process must be seen alive")
	}
}

func TestAliveCheckerFinishesOnDeadPID(t *testing.T) {
	deadCalled := false
	c := AliveChecker{PID: 1 << 30, OnDead: func() { deadCalled = true }}
	if err := c.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := c.PeriodicTask(true); err != nil {
		t.Fatalf("periodic: %v", err)
	}
	if !c.IsFinished() {
		t.Fatalf("nonexistent pid must finish the checker")
	}
	if err := c.Teardown(); err != nil {
		t.Fatalf("teardown: %v", err)
	}
	if !deadCalled {
		t.Fatalf("OnDead hook not invoked")
	}
}

func TestAliveCheckerResolvesPIDFromBackend(t *testing.T) {
	root := t.TempDir()
	be := &bookkeeping.FileBackend{Root: root}
	if err := be.Daemonize("watched", ""); err != nil {
		t.Fatalf("daemonize: %v", err)
	}
	c := AliveChecker{Name: "watched", Backend: be}
	if err := c.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if c.PID != os.Getpid() {
		t.Fatalf("resolved pid %d, want %d", c.PID, os.Getpid())
	}
}

func TestAliveCheckerRequiresBackendOrPID(t *testing.T) {
	var c AliveChecker
	if err := c.Setup(); !errors.Is(err, bookkeeping.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBaseRunBlocksUntilTerminate(t *testing.T) {
	b := NewBase("base", nil, nil)
	done := make(chan struct{})
	go func() {
		b.Run()
		close(done)
	}()
	select {
	case <-done:
		t.Fatalf("run returned before terminate")
	case <-time.After(50 * time.Millisecond):
	}
	b.Terminate()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return after terminate")
	}
	if !b.IsTerminated() {
		t.Fatalf("expected terminated state")
	}
}
