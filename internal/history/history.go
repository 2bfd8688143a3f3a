// Package history appends daemon lifecycle events to a persistent audit
// log so operators can reconstruct what happened to a daemon after the
// fact. The log is independent from the live bookkeeping records.
package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	// EventDaemonized records a process registering itself as a daemon.
	EventDaemonized EventType = "daemonized"
	// EventTerminated records a clean termination via the daemon's event.
	EventTerminated EventType = "terminated"
	// EventKilled records a signal delivered through bookkeeping.
	EventKilled EventType = "killed"
)

// Event is one lifecycle occurrence for a named daemon.
type Event struct {
	Type       EventType `json:"type"`
	Name       string    `json:"name"`
	SubPath    string    `json:"sub_path,omitempty"`
	PID        int       `json:"pid"`
	OccurredAt time.Time `json:"occurred_at"`
	Detail     string    `json:"detail,omitempty"`
}

// Recorder is a destination for lifecycle events. Implementations must be
// safe for concurrent use. Recording is best-effort for callers: a daemon
// must keep running even when its audit log is unavailable.
type Recorder interface {
	Record(ctx context.Context, e Event) error
	Recent(ctx context.Context, name string, limit int) ([]Event, error)
	Close() error
}
