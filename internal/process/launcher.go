package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"go.uber.org/zap"

	"github.com/vburojevic/goautossh/internal/domain"
)

// Launcher starts child processes of a single binary.
type Launcher struct {
	// Path is the binary to run. A bare name is resolved on PATH at launch.
	Path string

	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer

	// Terminal restores the controlling terminal after each child. Nil
	// disables restoring.
	Terminal *TerminalGuard

	Logger *zap.Logger
}

// NewLauncher returns a Launcher for path wired to the process's own stdio.
func NewLauncher(path string, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		Path:     path,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Terminal: NewTerminalGuard(os.Stdin),
		Logger:   logger,
	}
}

// Launch starts the child with args and returns once it is running.
// The error wraps exec.ErrNotFound or an *os.PathError when the binary
// cannot be found or executed.
func (l *Launcher) Launch(args []string) (domain.Handle, error) {
	path, err := exec.LookPath(l.Path)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", l.Path, err)
	}

	cmd := exec.Command(path, args...)
	if l.Stdin != nil {
		cmd.Stdin = l.Stdin
	}
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if l.Terminal != nil {
		l.Terminal.Save()
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	c := &child{
		cmd:    cmd,
		exited: make(chan domain.Outcome, 1),
	}
	l.logger().Debug("child started", zap.String("path", path), zap.Int("pid", cmd.Process.Pid), zap.Strings("args", args))

	go func() {
		o := outcomeOf(cmd.Wait(), cmd.ProcessState)
		if l.Terminal != nil {
			if err := l.Terminal.Restore(); err != nil {
				l.logger().Debug("terminal restore failed", zap.Error(err))
			}
		}
		c.exited <- o
		close(c.exited)
	}()

	return c, nil
}

func (l *Launcher) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// IsNotFound reports whether err means the binary does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}

// IsPermission reports whether err means the binary cannot be executed.
func IsPermission(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES)
}

type child struct {
	cmd    *exec.Cmd
	exited chan domain.Outcome
}

func (c *child) PID() int {
	return c.cmd.Process.Pid
}

func (c *child) Signal(sig os.Signal) error {
	return c.cmd.Process.Signal(sig)
}

func (c *child) Exited() <-chan domain.Outcome {
	return c.exited
}

func outcomeOf(waitErr error, ps *os.ProcessState) domain.Outcome {
	if ps == nil {
		return domain.Outcome{ExitCode: -1, Err: waitErr}
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return domain.Killed(ws.Signal())
	}
	o := domain.Exited(ps.ExitCode())
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		o.Err = waitErr
	}
	return o
}
