package domain

import (
	"fmt"
	"syscall"
)

// Outcome is how a child process run ended: a numeric exit code or a
// terminating signal. Err carries a wait failure that produced neither.
type Outcome struct {
	ExitCode int
	Signal   syscall.Signal
	Err      error
}

// Exited returns an Outcome for a normal exit with the given code.
func Exited(code int) Outcome {
	return Outcome{ExitCode: code}
}

// Killed returns an Outcome for a child terminated by sig.
func Killed(sig syscall.Signal) Outcome {
	return Outcome{ExitCode: -1, Signal: sig}
}

// Signaled reports whether the child was terminated by a signal.
func (o Outcome) Signaled() bool {
	return o.Signal != 0
}

// Code is the shell-style status for the outcome: the exit code, or
// 128+N for a child killed by signal N.
func (o Outcome) Code() int {
	if o.Signaled() {
		return 128 + int(o.Signal)
	}
	if o.ExitCode < 0 {
		return 1
	}
	return o.ExitCode
}

func (o Outcome) String() string {
	switch {
	case o.Signaled():
		return "signal " + SignalName(o.Signal)
	case o.Err != nil:
		return fmt.Sprintf("wait error: %v", o.Err)
	default:
		return fmt.Sprintf("exit %d", o.ExitCode)
	}
}

// Class is the supervisor's verdict on an Outcome.
type Class int

const (
	// ClassClean is a zero exit: the user ended the session.
	ClassClean Class = iota
	// ClassConnectionLost is a dropped connection worth reconnecting.
	ClassConnectionLost
	// ClassFatal is a failure a restart cannot fix (auth, usage, host key).
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassClean:
		return "clean"
	case ClassConnectionLost:
		return "connection_lost"
	case ClassFatal:
		return "fatal"
	}
	return fmt.Sprintf("class(%d)", int(c))
}
