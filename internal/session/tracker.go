package session

import (
	"slices"
	"sync"
	"time"

	"github.com/vburojevic/goautossh/internal/domain"
)

// Tracker records Session Attempts for one supervisor run: the forwarded
// argument vector, a monotonically increasing attempt counter and the
// timing of the attempt in flight.
type Tracker struct {
	mu            sync.Mutex
	args          []string
	attempt       int
	pid           int
	attemptStart  time.Time
	running       bool
	runStart      time.Time
	restarts      int
	connectedTime time.Duration
	longest       time.Duration
	stableAfter   time.Duration
}

// NewTracker creates a tracker for args. An attempt that lasts at least
// stableAfter is reported as stable.
func NewTracker(args []string, stableAfter time.Duration, now time.Time) *Tracker {
	return &Tracker{
		args:        slices.Clone(args),
		stableAfter: stableAfter,
		runStart:    now,
	}
}

// Args returns the immutable argument vector shared by every attempt.
func (t *Tracker) Args() []string {
	return slices.Clone(t.args)
}

// Begin opens a new attempt and returns its start event.
func (t *Tracker) Begin(now time.Time) *domain.AttemptStart {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.attempt++
	t.pid = 0
	t.attemptStart = now
	t.running = true
	if t.attempt > 1 {
		t.restarts++
	}
	return domain.NewAttemptStart(t.attempt, slices.Clone(t.args))
}

// Launched records the pid of the attempt in flight.
func (t *Tracker) Launched(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pid = pid
}

// End closes the attempt in flight. It returns nil if no attempt is open.
func (t *Tracker) End(o domain.Outcome, class domain.Class, now time.Time) *domain.AttemptEnd {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}
	t.running = false

	d := now.Sub(t.attemptStart)
	if d < 0 {
		d = 0
	}
	t.connectedTime += d
	if d > t.longest {
		t.longest = d
	}
	stable := t.stableAfter > 0 && d >= t.stableAfter
	return domain.NewAttemptEnd(t.attempt, t.pid, o, class, d, stable)
}

// Abandon drops an attempt whose child never started.
func (t *Tracker) Abandon() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Summary returns statistics for the whole run so far
func (t *Tracker) Summary(now time.Time) domain.RunSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	return domain.RunSummary{
		Attempts:       t.attempt,
		Restarts:       t.restarts,
		ConnectedTime:  t.connectedTime,
		LongestSession: t.longest,
		Elapsed:        now.Sub(t.runStart),
	}
}
