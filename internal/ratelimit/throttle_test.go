package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time {
		return at
	}
}

func TestCheckCountsDownRemainingAttempts(t *testing.T) {
	th := NewThrottle(DefaultMaxAttempts, DefaultWindow)
	start := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	th.now = fixedClock(start)

	for i, want := range []int{4, 3, 2, 1, 0} {
		res := th.Check("lise@salon.dk")
		require.True(t, res.Allowed, "attempt %d must be allowed", i+1)
		assert.Equal(t, want, res.RemainingAttempts)
		assert.Equal(t, start.Add(DefaultWindow), res.ResetAt)
	}
}

func TestCheckDeniesWhenWindowSaturated(t *testing.T) {
	th := NewThrottle(DefaultMaxAttempts, DefaultWindow)
	start := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	th.now = fixedClock(start)

	for i := 0; i < DefaultMaxAttempts; i++ {
		require.True(t, th.Check("lise@salon.dk").Allowed)
	}

	res := th.Check("lise@salon.dk")
	assert.False(t, res.Allowed)
	assert.Zero(t, res.RemainingAttempts)
	assert.Equal(t, start.Add(DefaultWindow), res.ResetAt, "reset time is anchored on the first attempt")
}

func TestIdentifiersAreThrottledIndependently(t *testing.T) {
	th := NewThrottle(2, DefaultWindow)

	require.True(t, th.Check("lise@salon.dk").Allowed)
	require.True(t, th.Check("lise@salon.dk").Allowed)
	require.False(t, th.Check("lise@salon.dk").Allowed)

	assert.True(t, th.Check("mette@salon.dk").Allowed)
}

func TestResetClearsWindow(t *testing.T) {
	th := NewThrottle(DefaultMaxAttempts, DefaultWindow)

	for i := 0; i < DefaultMaxAttempts; i++ {
		th.Check("lise@salon.dk")
	}
	require.False(t, th.Check("lise@salon.dk").Allowed)

	th.Reset("lise@salon.dk")

	res := th.Check("lise@salon.dk")
	assert.True(t, res.Allowed)
	assert.Equal(t, DefaultMaxAttempts-1, res.RemainingAttempts)
}

func TestExpiredWindowStartsOver(t *testing.T) {
	th := NewThrottle(DefaultMaxAttempts, DefaultWindow)
	start := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	th.now = fixedClock(start)

	for i := 0; i < DefaultMaxAttempts; i++ {
		th.Check("lise@salon.dk")
	}
	require.False(t, th.Check("lise@salon.dk").Allowed)

	later := start.Add(DefaultWindow + time.Second)
	th.now = fixedClock(later)

	res := th.Check("lise@salon.dk")
	assert.True(t, res.Allowed)
	assert.Equal(t, DefaultMaxAttempts-1, res.RemainingAttempts)
	assert.Equal(t, later.Add(DefaultWindow), res.ResetAt)
}

func TestCleanupEvictsOnlyExpiredWindows(t *testing.T) {
	th := NewThrottle(DefaultMaxAttempts, DefaultWindow)
	start := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

	th.now = fixedClock(start)
	th.Check("old@salon.dk")

	th.now = fixedClock(start.Add(10 * time.Minute))
	th.Check("recent@salon.dk")

	th.now = fixedClock(start.Add(DefaultWindow + time.Minute))
	th.Cleanup()

	assert.NotContains(t, th.windows, "old@salon.dk")
	assert.Contains(t, th.windows, "recent@salon.dk")
}
