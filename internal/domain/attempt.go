package domain

import (
	"os"
	"time"
)

// Handle is a running child process.
type Handle interface {
	// PID returns the child's process id.
	PID() int
	// Signal delivers sig to the child.
	Signal(sig os.Signal) error
	// Exited delivers the child's Outcome exactly once, after it exits.
	Exited() <-chan Outcome
}

// AttemptStart describes a child process run that is about to begin.
type AttemptStart struct {
	Attempt   int      // 1, 2, 3...
	Args      []string // forwarded argument vector
	Reconnect bool     // true for every attempt after the first
}

// AttemptEnd describes how the child of an attempt exited.
type AttemptEnd struct {
	Attempt  int
	PID      int
	ExitCode int
	Signal   string // empty unless the child was killed by a signal
	Class    string
	Duration time.Duration
	Stable   bool // stayed up long enough to reset backoff
}

// Restart describes a scheduled reconnect.
type Restart struct {
	Attempt  int           // attempt that just failed
	Failures int           // consecutive connection failures so far
	Delay    time.Duration // wait before the next launch
	Outcome  Outcome       // how the failed attempt ended
}

// RunSummary contains statistics about a whole supervisor run
type RunSummary struct {
	Attempts       int
	Restarts       int
	ConnectedTime  time.Duration
	LongestSession time.Duration
	Elapsed        time.Duration
}

// NewAttemptStart creates the start record of attempt.
func NewAttemptStart(attempt int, args []string) *AttemptStart {
	return &AttemptStart{
		Attempt:   attempt,
		Args:      args,
		Reconnect: attempt > 1,
	}
}

// NewAttemptEnd creates the end record of attempt.
func NewAttemptEnd(attempt, pid int, o Outcome, class Class, d time.Duration, stable bool) *AttemptEnd {
	e := &AttemptEnd{
		Attempt:  attempt,
		PID:      pid,
		ExitCode: o.Code(),
		Class:    class.String(),
		Duration: d,
		Stable:   stable,
	}
	if o.Signaled() {
		e.Signal = SignalName(o.Signal)
	}
	return e
}
