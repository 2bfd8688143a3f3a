package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/loykin/rdaemon/internal/event"
	"github.com/loykin/rdaemon/internal/metrics"
)

// MinWakeupPeriod is the smallest accepted scheduling period. Shorter
// periods are clamped with a warning.
const MinWakeupPeriod = time.Second

// Periodic runs a PeriodicTask through a setup -> periodic loop ->
// teardown lifecycle. The loop wakes either when the wakeup period
// elapses (a scheduled wakeup) or when Notify is called. Task callback
// failures never propagate out of Run.
type Periodic struct {
	name   string
	task   PeriodicTask
	period time.Duration
	ev     event.Event
	logger *slog.Logger
}

// NewPeriodic wraps task in a scheduler waking every period. A nil ev
// gets an in-process event; a nil logger falls back to slog.Default.
func NewPeriodic(name string, task PeriodicTask, period time.Duration, ev event.Event, logger *slog.Logger) *Periodic {
	if ev == nil {
		ev = event.NewCond()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if period < MinWakeupPeriod {
		logger.Warn("wakeup period below minimum, clamped",
			"daemon", name, "period", period, "min", MinWakeupPeriod)
		period = MinWakeupPeriod
	}
	return &Periodic{name: name, task: task, period: period, ev: ev, logger: logger}
}

// Period returns the effective wakeup period after clamping.
func (d *Periodic) Period() time.Duration { return d.period }

// Event exposes the wake event, e.g. for sharing with a supervisor.
func (d *Periodic) Event() event.Event { return d.ev }

func (d *Periodic) Run() {
	metrics.RunLoopStarted()
	defer metrics.RunLoopFinished()

	// A terminate that arrived before the run skips every task
	// invocation except teardown.
	if d.ev.IsTerminated() {
		d.logger.Info("daemon terminated before start", "daemon", d.name)
		d.teardown()
		metrics.IncTermination(d.name)
		return
	}

	d.logger.Info("setting up periodic daemon", "daemon", d.name)
	if !d.setup() {
		d.logger.Error("setup failed, terminating daemon", "daemon", d.name)
		d.teardown()
		return
	}

	d.logger.Info("starting periodic loop", "daemon", d.name, "period", d.period)
	// Drop any signal raised before the run without touching the
	// terminated flag; a full Reset would erase a concurrent Terminate.
	d.ev.Clear()
	lastWakeup := time.Now()

	for !d.ev.IsTerminated() && !d.isFinished() {
		wait := d.period - time.Since(lastWakeup)
		if wait < 0 {
			wait = 0
		}
		notified := d.ev.WaitAndClear(wait)
		if d.ev.IsTerminated() {
			break
		}
		lastWakeup = time.Now()
		// A wakeup caused by Notify is not a scheduled one.
		d.invoke(!notified)
	}

	d.logger.Info("tearing down periodic daemon", "daemon", d.name)
	d.teardown()
	metrics.IncTermination(d.name)
	d.logger.Info("periodic daemon terminated", "daemon", d.name)
}

// Notify wakes the loop before the period elapses. The next wakeup is
// classified as unscheduled.
func (d *Periodic) Notify() { d.ev.Set() }

// Terminate stops the loop. Safe before Run starts and safe to call more
// than once; an in-progress task call is allowed to finish.
func (d *Periodic) Terminate() { d.ev.Terminate() }

func (d *Periodic) IsTerminated() bool { return d.ev.IsTerminated() }

// Guarded task callback wrappers. Failures are logged, counted, and
// reduced to a safe default so the scheduler itself can never be broken
// by its task.

func (d *Periodic) setup() bool {
	err := guard(func() error { return d.task.Setup() })
	if err != nil {
		d.logger.Error("task setup failed", "daemon", d.name, "error", err)
		metrics.IncTaskFailure(d.name, "setup")
		return false
	}
	return true
}

func (d *Periodic) teardown() {
	if err := guard(func() error { return d.task.Teardown() }); err != nil {
		d.logger.Error("task teardown failed", "daemon", d.name, "error", err)
		metrics.IncTaskFailure(d.name, "teardown")
	}
}

func (d *Periodic) invoke(isScheduledWakeup bool) {
	metrics.IncWakeup(d.name, isScheduledWakeup)
	err := guard(func() error { return d.task.PeriodicTask(isScheduledWakeup) })
	if err != nil {
		d.logger.Error("periodic task failed", "daemon", d.name,
			"scheduled", isScheduledWakeup, "error", err)
		metrics.IncTaskFailure(d.name, "periodic_task")
	}
}

func (d *Periodic) isFinished() bool {
	var finished bool
	err := guard(func() error {
		finished = d.task.IsFinished()
		return nil
	})
	if err != nil {
		d.logger.Error("task finished check failed", "daemon", d.name, "error", err)
		metrics.IncTaskFailure(d.name, "is_finished")
		// Safe default: a broken check must not end the run.
		return false
	}
	return finished
}

// guard converts a panicking callback into an error so no task failure
// can escape the scheduler.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn()
}
