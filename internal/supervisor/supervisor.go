// Package supervisor runs the ssh client in a loop, restarting it when the
// connection drops.
//
// The loop is sequential: one child at a time, launched through a
// [Launcher], waited on together with the signal channel, classified, and
// either propagated or restarted after a backoff delay. Time comes from an
// injected clock so the policy can be tested without sleeping.
package supervisor

import (
	"os"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vburojevic/goautossh/internal/backoff"
	"github.com/vburojevic/goautossh/internal/domain"
	"github.com/vburojevic/goautossh/internal/session"
)

// Launcher starts one child process with the given arguments.
type Launcher interface {
	Launch(args []string) (domain.Handle, error)
}

// Config tunes the restart policy.
type Config struct {
	Backoff backoff.Policy
	// StableAfter is how long a session must stay up for the backoff to
	// reset. Zero never resets.
	StableAfter time.Duration
	// MaxAttempts caps consecutive connection failures. Zero is unlimited.
	MaxAttempts int
	// KillTimeout is how long a signalled child may take to exit before it
	// is sent SIGKILL. Zero waits forever.
	KillTimeout time.Duration
	Classifier  Classifier
}

// DefaultConfig returns the policy used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Backoff:     backoff.DefaultPolicy(),
		StableAfter: 30 * time.Second,
		KillTimeout: 10 * time.Second,
		Classifier:  DefaultClassifier(),
	}
}

// Supervisor restarts a child until it exits cleanly or fatally.
type Supervisor struct {
	launcher  Launcher
	cfg       Config
	clock     clock.Clock
	logger    *zap.Logger
	onRestart func(domain.Restart)
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(s *Supervisor) { s.clock = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// WithRestartHook is called before every backoff wait.
func WithRestartHook(fn func(domain.Restart)) Option {
	return func(s *Supervisor) { s.onRestart = fn }
}

// New creates a Supervisor.
func New(l Launcher, cfg Config, opts ...Option) *Supervisor {
	s := &Supervisor{
		launcher:  l,
		cfg:       cfg,
		clock:     clock.New(),
		logger:    zap.NewNop(),
		onRestart: func(domain.Restart) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run supervises the child until it no longer needs restarting and
// returns the exit code the supervisor should exit with.
//
// args is forwarded unchanged to every attempt. signals carries the
// termination requests (SIGINT, SIGTERM, SIGHUP) the caller subscribed to
// before calling Run: they are forwarded to a running child, which is then
// waited for, and they end a backoff wait early. Either way no further
// attempt is made.
//
// The error is non-nil only for a *LaunchError or ErrAttemptsExhausted.
func (s *Supervisor) Run(args []string, signals <-chan os.Signal) (int, error) {
	tracker := session.NewTracker(args, s.cfg.StableAfter, s.clock.Now())
	state := s.cfg.Backoff.NewState()
	defer func() {
		sum := tracker.Summary(s.clock.Now())
		s.logger.Debug("run finished",
			zap.Int("attempts", sum.Attempts),
			zap.Int("restarts", sum.Restarts),
			zap.Duration("connected_time", sum.ConnectedTime),
			zap.Duration("longest_session", sum.LongestSession),
			zap.Duration("elapsed", sum.Elapsed),
		)
	}()

	for {
		start := tracker.Begin(s.clock.Now())
		s.logger.Debug("attempt starting",
			zap.Int("attempt", start.Attempt),
			zap.Bool("reconnect", start.Reconnect),
			zap.Strings("args", start.Args),
		)

		h, err := s.launcher.Launch(tracker.Args())
		if err != nil {
			tracker.Abandon()
			lerr := &LaunchError{Attempt: start.Attempt, Err: err}
			s.logger.Error("launch failed", zap.Int("attempt", start.Attempt), zap.Error(err))
			return lerr.ExitCode(), lerr
		}
		tracker.Launched(h.PID())

		outcome, stop := s.wait(h, signals)
		class := s.cfg.Classifier.Classify(outcome)
		end := tracker.End(outcome, class, s.clock.Now())
		s.logger.Debug("attempt ended",
			zap.Int("attempt", end.Attempt),
			zap.Int("pid", end.PID),
			zap.Int("exit_code", end.ExitCode),
			zap.String("signal", end.Signal),
			zap.String("class", end.Class),
			zap.Duration("duration", end.Duration),
			zap.Bool("stable", end.Stable),
		)

		if stop != nil {
			s.logger.Info("stopping after signal", zap.Stringer("signal", stop), zap.Int("exit_code", outcome.Code()))
			return outcome.Code(), nil
		}

		switch class {
		case domain.ClassClean:
			return 0, nil
		case domain.ClassFatal:
			return outcome.Code(), nil
		}

		if end.Stable {
			state.Reset()
		}
		if s.cfg.MaxAttempts > 0 && state.Failures()+1 >= s.cfg.MaxAttempts {
			s.logger.Warn("giving up", zap.Int("max_attempts", s.cfg.MaxAttempts))
			return outcome.Code(), ErrAttemptsExhausted
		}

		r := domain.Restart{
			Attempt: end.Attempt,
			Delay:   state.Next(),
			Outcome: outcome,
		}
		r.Failures = state.Failures()
		s.logger.Info("connection lost; reconnecting",
			zap.Int("attempt", r.Attempt),
			zap.Int("failures", r.Failures),
			zap.Duration("delay", r.Delay),
			zap.Duration("next_delay", state.Peek()),
			zap.Stringer("outcome", r.Outcome),
		)
		s.onRestart(r)

		if sig := s.sleep(r.Delay, signals); sig != nil {
			s.logger.Info("interrupted during backoff", zap.Stringer("signal", sig))
			return signalExitCode(sig), nil
		}
	}
}

// wait blocks until the child exits, forwarding any signal that arrives
// meanwhile. It returns the first forwarded signal, if any.
func (s *Supervisor) wait(h domain.Handle, signals <-chan os.Signal) (domain.Outcome, os.Signal) {
	var (
		stop  os.Signal
		killC <-chan time.Time
	)
	for {
		select {
		case o := <-h.Exited():
			return o, stop

		case sig := <-signals:
			s.logger.Debug("forwarding signal", zap.Stringer("signal", sig), zap.Int("pid", h.PID()))
			if err := h.Signal(sig); err != nil {
				s.logger.Debug("signal not delivered", zap.Error(err))
			}
			if stop == nil {
				stop = sig
				if s.cfg.KillTimeout > 0 {
					t := s.clock.Timer(s.cfg.KillTimeout)
					defer t.Stop()
					killC = t.C
				}
			}

		case <-killC:
			killC = nil
			s.logger.Warn("child still running; killing", zap.Int("pid", h.PID()), zap.Duration("after", s.cfg.KillTimeout))
			if err := h.Signal(os.Kill); err != nil {
				s.logger.Debug("kill not delivered", zap.Error(err))
			}
		}
	}
}

// sleep waits d or until a signal arrives, returning the signal.
func (s *Supervisor) sleep(d time.Duration, signals <-chan os.Signal) os.Signal {
	if d <= 0 {
		select {
		case sig := <-signals:
			return sig
		default:
			return nil
		}
	}

	t := s.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case sig := <-signals:
		return sig
	}
}

func signalExitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}
