package daemon

import (
	"github.com/loykin/rdaemon/internal/bookkeeping"
	"github.com/loykin/rdaemon/internal/proc"
)

// TaskFuncs adapts plain functions into a PeriodicTask. Nil fields fall
// back to safe defaults, so an object that only cares about the periodic
// callback does not have to implement the full lifecycle.
type TaskFuncs struct {
	SetupFunc    func() error
	TeardownFunc func() error
	PeriodicFunc func(isScheduledWakeup bool) error
	FinishedFunc func() bool
}

func (t TaskFuncs) Setup() error {
	if t.SetupFunc == nil {
		return nil
	}
	return t.SetupFunc()
}

func (t TaskFuncs) Teardown() error {
	if t.TeardownFunc == nil {
		return nil
	}
	return t.TeardownFunc()
}

func (t TaskFuncs) PeriodicTask(isScheduledWakeup bool) error {
	if t.PeriodicFunc == nil {
		return nil
	}
	return t.PeriodicFunc(isScheduledWakeup)
}

func (t TaskFuncs) IsFinished() bool {
	if t.FinishedFunc == nil {
		return false
	}
	return t.FinishedFunc()
}

// AliveChecker is a periodic task that watches another daemon's process
// and finishes once it is gone. OnDead, when set, runs during teardown
// after the watched process died.
type AliveChecker struct {
	// PID to watch. When zero, Setup resolves it from the backend.
	PID int
	// Name/SubPath locate the daemon in Backend when PID is unset.
	Name    string
	SubPath string
	Backend bookkeeping.Backend
	// OnDead is invoked from Teardown if the process was seen dead.
	OnDead func()

	finished bool
}

func (c *AliveChecker) Setup() error {
	c.finished = false
	if c.PID != 0 {
		return nil
	}
	if c.Backend == nil {
		return bookkeeping.ErrInvalidArgument
	}
	pids, err := c.Backend.PIDs(c.Name, c.SubPath)
	if err != nil {
		return err
	}
	c.PID = pids[0]
	return nil
}

func (c *AliveChecker) Teardown() error {
	if c.finished && c.OnDead != nil {
		c.OnDead()
	}
	return nil
}

func (c *AliveChecker) PeriodicTask(bool) error {
	c.finished = !proc.Alive(c.PID)
	return nil
}

func (c *AliveChecker) IsFinished() bool { return c.finished }
