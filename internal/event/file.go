package event

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// DefaultPollInterval bounds how stale a FileEvent waiter may observe a
// signal raised by another process.
const DefaultPollInterval = 25 * time.Millisecond

// FileEvent is the cross-process Event implementation. The signaled and
// terminated flags are marker files under a shared directory; an OS file
// lock serializes flag transitions between processes the same way the
// in-process mutex does for CondEvent. Waiters poll, so wakeups are
// delayed by at most the poll interval.
type FileEvent struct {
	dir  string
	lock *flock.Flock
	poll time.Duration
}

// NewFile creates (or attaches to) a file-backed event rooted at dir.
// Multiple processes may attach to the same dir and observe one shared
// event state.
func NewFile(dir string) (*FileEvent, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	return &FileEvent{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, "event.lock")),
		poll: DefaultPollInterval,
	}, nil
}

// SetPollInterval tunes how often waiters re-check the marker files.
// Non-positive values keep the default.
func (e *FileEvent) SetPollInterval(d time.Duration) {
	if d > 0 {
		e.poll = d
	}
}

func (e *FileEvent) signaledPath() string   { return filepath.Join(e.dir, "signaled") }
func (e *FileEvent) terminatedPath() string { return filepath.Join(e.dir, "terminated") }

func flagExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func setFlag(path string) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o640)
	if err == nil {
		_ = f.Close()
	}
}

func clearFlag(path string) { _ = os.Remove(path) }

// withLock runs fn while holding the shared file lock. Lock failures are
// treated as best-effort: fn still runs so a broken lock file cannot wedge
// the daemon.
func (e *FileEvent) withLock(fn func()) {
	if err := e.lock.Lock(); err == nil {
		defer func() { _ = e.lock.Unlock() }()
	}
	fn()
}

func (e *FileEvent) Set() {
	e.withLock(func() { setFlag(e.signaledPath()) })
}

func (e *FileEvent) Clear() bool {
	var prev bool
	e.withLock(func() {
		prev = flagExists(e.signaledPath())
		if !flagExists(e.terminatedPath()) {
			clearFlag(e.signaledPath())
		}
	})
	return prev
}

func (e *FileEvent) Reset() {
	e.withLock(func() {
		clearFlag(e.signaledPath())
		clearFlag(e.terminatedPath())
	})
}

func (e *FileEvent) WaitAndClear(timeout time.Duration) bool {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		if e.IsTerminated() {
			return false
		}
		var got bool
		e.withLock(func() {
			if flagExists(e.terminatedPath()) {
				return
			}
			if flagExists(e.signaledPath()) {
				clearFlag(e.signaledPath())
				got = true
			}
		})
		if got {
			return true
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return false
		}
		sleep := e.poll
		if !deadline.IsZero() {
			if remain := time.Until(deadline); remain < sleep {
				sleep = remain
			}
		}
		time.Sleep(sleep)
	}
}

func (e *FileEvent) Terminate() bool {
	var prev bool
	e.withLock(func() {
		prev = flagExists(e.signaledPath())
		setFlag(e.terminatedPath())
		setFlag(e.signaledPath())
	})
	return prev
}

func (e *FileEvent) IsTerminated() bool { return flagExists(e.terminatedPath()) }

func (e *FileEvent) IsSet() bool { return flagExists(e.signaledPath()) }
