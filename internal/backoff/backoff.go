// Package backoff computes reconnect delays.
//
// A [Policy] is immutable configuration; a [State] is the per-run counter
// the supervisor threads through its loop. Neither sleeps or reads a clock.
package backoff

import "time"

// MinStep is the delay that follows a zero delay. A zero initial delay
// allows one immediate reconnect, never a run of them.
const MinStep = 100 * time.Millisecond

// Policy describes an exponential backoff with a cap.
type Policy struct {
	// Initial is the delay before the first reconnect.
	Initial time.Duration
	// Max caps the delay. Zero means no cap.
	Max time.Duration
	// Multiplier grows the delay after each consecutive failure.
	// Values below 1 are treated as 1 (constant delay). A zero delay
	// always grows to MinStep.
	Multiplier float64
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Initial:    time.Second,
		Max:        time.Minute,
		Multiplier: 2,
	}
}

// State tracks consecutive failures under a Policy.
type State struct {
	policy   Policy
	next     time.Duration
	failures int
}

// NewState starts a fresh backoff run.
func (p Policy) NewState() *State {
	s := &State{policy: p}
	s.Reset()
	return s
}

// Next records one more consecutive failure and returns the delay to wait
// before the following attempt. Successive calls never decrease until Reset.
func (s *State) Next() time.Duration {
	s.failures++
	d := s.next
	s.next = s.grow(d)
	return d
}

// Peek returns the delay the next call to Next would return.
func (s *State) Peek() time.Duration {
	return s.next
}

// Failures is the number of consecutive failures since the last Reset.
func (s *State) Failures() int {
	return s.failures
}

// Reset returns to the initial delay after a stable session.
func (s *State) Reset() {
	s.failures = 0
	s.next = s.clamp(s.policy.Initial)
}

func (s *State) grow(d time.Duration) time.Duration {
	if d <= 0 {
		return s.clamp(MinStep)
	}
	m := s.policy.Multiplier
	if m < 1 {
		m = 1
	}
	grown := time.Duration(float64(d) * m)
	// float rounding or overflow must never shrink the delay
	if grown < d {
		grown = d
		if s.policy.Max > 0 {
			grown = s.policy.Max
		}
	}
	return s.clamp(grown)
}

func (s *State) clamp(d time.Duration) time.Duration {
	if d < 0 {
		d = 0
	}
	if s.policy.Max > 0 && d > s.policy.Max {
		return s.policy.Max
	}
	return d
}
