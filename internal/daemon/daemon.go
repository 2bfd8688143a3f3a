// Package daemon defines the run-loop contracts for supervised daemons
// and provides the periodic-task scheduler that drives them.
package daemon

import (
	"log/slog"

	"github.com/loykin/rdaemon/internal/event"
)

// Daemon is the capability a supervised run loop exposes. Run blocks until
// the daemon is told to stop; Notify and Terminate may be called
// concurrently with the loop, from other goroutines or, through a
// transport shim, from other processes.
type Daemon interface {
	// Run executes the daemon loop. It must not spawn the loop in the
	// background and only returns once the daemon should terminate.
	Run()
	// Notify wakes the daemon before its next scheduled wakeup.
	Notify()
	// Terminate makes Run return. Idempotent, safe before Run starts.
	Terminate()
	// IsTerminated reports whether Terminate has been called.
	IsTerminated() bool
}

// PeriodicTask is the lifecycle a caller-supplied task implements.
// Every callback failure is absorbed by the scheduler; no error escapes.
type PeriodicTask interface {
	// Setup builds the task's internal state. A failure aborts the run
	// before the loop starts.
	Setup() error
	// Teardown releases the task's resources. Always attempted.
	Teardown() error
	// PeriodicTask performs one unit of work. isScheduledWakeup is false
	// when the wakeup was caused by Notify rather than timeout expiry.
	PeriodicTask(isScheduledWakeup bool) error
	// IsFinished lets the task end the run on its own.
	IsFinished() bool
}

// Base is the minimal Daemon: it blocks on its event until terminated.
// Embed or wrap it to give any object daemon behavior by composition.
type Base struct {
	name   string
	ev     event.Event
	logger *slog.Logger
}

// NewBase creates a daemon around ev. A nil ev gets an in-process event;
// a nil logger falls back to slog.Default.
func NewBase(name string, ev event.Event, logger *slog.Logger) *Base {
	if ev == nil {
		ev = event.NewCond()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{name: name, ev: ev, logger: logger}
}

func (b *Base) Name() string { return b.name }

// Event exposes the underlying wake event for composed daemons.
func (b *Base) Event() event.Event { return b.ev }

func (b *Base) Run() {
	for !b.ev.IsTerminated() {
		b.ev.WaitAndClear(event.Forever)
	}
}

func (b *Base) Notify() { b.ev.Set() }

func (b *Base) Terminate() { b.ev.Terminate() }

func (b *Base) IsTerminated() bool { return b.ev.IsTerminated() }
