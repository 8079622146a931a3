// Package tmux shows supervisor notices in the local tmux status line.
package tmux

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// ErrNotInTmux is returned when the process is not running inside tmux.
var ErrNotInTmux = errors.New("not running inside tmux")

// Runner executes a tmux command.
type Runner interface {
	Command(args ...string) (string, error)
}

// Notifier displays one-line messages on the current tmux client.
type Notifier struct {
	mu     sync.Mutex
	runner Runner
}

// IsTmuxAvailable checks whether the tmux binary is on PATH.
func IsTmuxAvailable() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// InSession reports whether this process runs inside a tmux client.
func InSession() bool {
	return os.Getenv("TMUX") != ""
}

// NewNotifier connects to the tmux server of the current session.
func NewNotifier() (*Notifier, error) {
	if !InSession() {
		return nil, ErrNotInTmux
	}
	if !IsTmuxAvailable() {
		return nil, fmt.Errorf("tmux binary not found")
	}
	t, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to tmux: %w", err)
	}
	return NewNotifierWithRunner(t), nil
}

// NewNotifierWithRunner uses r to talk to tmux.
func NewNotifierWithRunner(r Runner) *Notifier {
	return &Notifier{runner: r}
}

// Display shows message in the status line of the attached client.
func (n *Notifier) Display(message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	if _, err := n.runner.Command("display-message", escapeFormat(message)); err != nil {
		return fmt.Errorf("failed to display message: %w", err)
	}
	return nil
}

// escapeFormat keeps tmux from expanding #{...} and #[...] in message
func escapeFormat(s string) string {
	s = strings.ReplaceAll(s, "#", "##")
	// display-message takes a single line
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
