package event

import (
	"sync"
	"time"
)

// CondEvent is the in-process Event implementation. A single mutex
// serializes all flag transitions; waiters block on a broadcast channel
// that is closed and replaced on every wakeup.
type CondEvent struct {
	mu         sync.Mutex
	signaled   bool
	terminated bool
	wake       chan struct{}
}

// NewCond returns an unsignaled, unterminated event.
func NewCond() *CondEvent {
	return &CondEvent{wake: make(chan struct{})}
}

func (e *CondEvent) broadcastLocked() {
	close(e.wake)
	e.wake = make(chan struct{})
}

func (e *CondEvent) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signaled = true
	e.broadcastLocked()
}

func (e *CondEvent) Clear() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.signaled
	if !e.terminated {
		e.signaled = false
	}
	return prev
}

func (e *CondEvent) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signaled = false
	e.terminated = false
	e.broadcastLocked()
}

func (e *CondEvent) WaitAndClear(timeout time.Duration) bool {
	e.mu.Lock()
	if e.terminated {
		e.mu.Unlock()
		return false
	}
	if !e.signaled && timeout != 0 {
		wake := e.wake
		e.mu.Unlock()
		if timeout > 0 {
			t := time.NewTimer(timeout)
			select {
			case <-wake:
				if !t.Stop() {
					<-t.C
				}
			case <-t.C:
			}
		} else {
			<-wake
		}
		e.mu.Lock()
	}
	// Termination wins any race with Set: an in-flight wait never reports
	// a signal once the event is terminated.
	if e.terminated {
		e.mu.Unlock()
		return false
	}
	prev := e.signaled
	e.signaled = false
	e.mu.Unlock()
	return prev
}

func (e *CondEvent) Terminate() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.signaled
	e.terminated = true
	e.signaled = true
	e.broadcastLocked()
	return prev
}

func (e *CondEvent) IsTerminated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.terminated
}

func (e *CondEvent) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signaled
}
