package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, time.Second, p.Initial)
	assert.Equal(t, time.Minute, p.Max)
	assert.Equal(t, 2.0, p.Multiplier)
}

func TestStateGrowsToCap(t *testing.T) {
	s := Policy{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}.NewState()

	var got []time.Duration
	for i := 0; i < 6; i++ {
		got = append(got, s.Next())
	}

	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}, got)
	assert.Equal(t, 6, s.Failures())
}

func TestStateNonDecreasing(t *testing.T) {
	policies := []Policy{
		{Initial: 0, Max: time.Second, Multiplier: 2},
		{Initial: time.Millisecond, Max: 0, Multiplier: 3},
		{Initial: time.Second, Max: time.Minute, Multiplier: 0.5},
		{Initial: time.Duration(math.MaxInt64 / 2), Max: 0, Multiplier: 4},
	}

	for _, p := range policies {
		s := p.NewState()
		prev := s.Next()
		for i := 0; i < 50; i++ {
			d := s.Next()
			require.GreaterOrEqual(t, d, prev, "policy %+v step %d", p, i)
			if p.Max > 0 {
				require.LessOrEqual(t, d, p.Max)
			}
			prev = d
		}
	}
}

func TestStateConstantWhenMultiplierBelowOne(t *testing.T) {
	s := Policy{Initial: 3 * time.Second, Multiplier: 0}.NewState()
	for i := 0; i < 3; i++ {
		assert.Equal(t, 3*time.Second, s.Next())
	}
}

func TestStateReset(t *testing.T) {
	s := DefaultPolicy().NewState()
	s.Next()
	s.Next()
	assert.Equal(t, 4*time.Second, s.Peek())

	s.Reset()
	assert.Equal(t, 0, s.Failures())
	assert.Equal(t, time.Second, s.Peek())
	assert.Equal(t, time.Second, s.Next())
}

func TestInitialAboveMaxIsClamped(t *testing.T) {
	s := Policy{Initial: time.Hour, Max: time.Minute, Multiplier: 2}.NewState()
	assert.Equal(t, time.Minute, s.Next())
}

func TestZeroInitialDelayStillBacksOff(t *testing.T) {
	s := Policy{Initial: 0, Max: time.Minute, Multiplier: 2}.NewState()

	var got []time.Duration
	for i := 0; i < 5; i++ {
		got = append(got, s.Next())
	}

	assert.Equal(t, []time.Duration{
		0,
		MinStep,
		2 * MinStep,
		4 * MinStep,
		8 * MinStep,
	}, got)
}

func TestZeroInitialDelayConstantMultiplier(t *testing.T) {
	for _, m := range []float64{0, 1} {
		s := Policy{Multiplier: m}.NewState()
		assert.Equal(t, time.Duration(0), s.Next())
		assert.Equal(t, MinStep, s.Next())
		assert.Equal(t, MinStep, s.Next())
	}
}

func TestZeroInitialDelayRespectsSmallCap(t *testing.T) {
	s := Policy{Initial: 0, Max: 10 * time.Millisecond, Multiplier: 2}.NewState()
	s.Next()
	assert.Equal(t, 10*time.Millisecond, s.Next())
}
