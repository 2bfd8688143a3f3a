// Package event provides the termination-aware wake event used by daemon
// run loops. It extends a plain signal/wait primitive with a sticky
// terminated flag so a loop can distinguish "woken for work" from
// "woken to shut down", even when both happen at once.
package event

import "time"

// Forever makes WaitAndClear block until signaled or terminated.
const Forever time.Duration = -1

// Event is a condition variable with a separate, sticky termination flag.
//
// Set wakes all waiters and marks the event signaled. Terminate marks the
// event terminated forever (until Reset) and also forces the signaled flag,
// so every current and future WaitAndClear returns false immediately.
// Terminate always wins races with Set.
type Event interface {
	// Set marks the event signaled and wakes all waiters. Idempotent.
	Set()
	// Clear reads and clears the signaled flag, unless the event is
	// terminated, in which case the flag stays set. Returns the pre-clear
	// value.
	Clear() bool
	// Reset clears both the signaled and terminated flags. It must only be
	// called when no goroutine can be waiting; the caller enforces this.
	Reset()
	// WaitAndClear blocks until the event is signaled or timeout elapses,
	// then clears the signaled flag (unless terminated) and returns the
	// pre-clear value. A zero timeout polls without blocking; a negative
	// timeout (Forever) waits indefinitely. If the event is already
	// terminated it returns false without waiting.
	WaitAndClear(timeout time.Duration) bool
	// Terminate sets the terminated flag, forces signaled, and wakes all
	// waiters. Returns the prior signaled value. Idempotent.
	Terminate() bool
	// IsTerminated reports whether Terminate has been called since the last
	// Reset.
	IsTerminated() bool
	// IsSet reports whether the event is currently signaled.
	IsSet() bool
}
