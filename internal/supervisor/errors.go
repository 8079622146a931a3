package supervisor

import (
	"errors"
	"fmt"

	"github.com/vburojevic/goautossh/internal/process"
)

// Exit codes for a child that could not be started, as POSIX shells use.
const (
	ExitNotExecutable = 126
	ExitNotFound      = 127
)

// ErrAttemptsExhausted is returned when MaxAttempts consecutive
// connection failures happened.
var ErrAttemptsExhausted = errors.New("exceeded maximum number of connection attempts")

// LaunchError reports a child that could not be started at all.
type LaunchError struct {
	Attempt int
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch attempt %d: %v", e.Attempt, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExitCode is 127 for a missing binary and 126 otherwise.
func (e *LaunchError) ExitCode() int {
	if process.IsNotFound(e.Err) {
		return ExitNotFound
	}
	return ExitNotExecutable
}
