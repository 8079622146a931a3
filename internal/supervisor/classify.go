package supervisor

import (
	"syscall"

	"github.com/samber/lo"

	"github.com/vburojevic/goautossh/internal/domain"
)

// Classifier decides which outcomes mean "the connection dropped".
// OpenSSH exits 255 for any error of its own, dropped connections
// included; codes below 255 come from the remote command.
type Classifier struct {
	// RetryExitCodes are exit codes treated as a lost connection.
	RetryExitCodes []int
	// RetrySignals are terminating signals treated as a lost connection.
	RetrySignals []syscall.Signal
}

// DefaultClassifier retries ssh's 255 and children killed by SIGHUP,
// SIGPIPE or SIGKILL (a hung session killed by hand to force a reconnect).
func DefaultClassifier() Classifier {
	return Classifier{
		RetryExitCodes: []int{255},
		RetrySignals:   []syscall.Signal{syscall.SIGHUP, syscall.SIGPIPE, syscall.SIGKILL},
	}
}

// Classify maps an outcome to clean, connection lost, or fatal.
func (c Classifier) Classify(o domain.Outcome) domain.Class {
	switch {
	case o.Signaled():
		if lo.Contains(c.RetrySignals, o.Signal) {
			return domain.ClassConnectionLost
		}
		return domain.ClassFatal
	case o.Err != nil:
		return domain.ClassFatal
	case o.ExitCode == 0:
		return domain.ClassClean
	case lo.Contains(c.RetryExitCodes, o.ExitCode):
		return domain.ClassConnectionLost
	default:
		return domain.ClassFatal
	}
}
