package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultMaxAttempts allowed per identifier per window
	DefaultMaxAttempts = 5
	// DefaultWindow is the fixed attempt window
	DefaultWindow = 15 * time.Minute
)

// Result is the outcome of a throttle check.
type Result struct {
	Allowed           bool
	RemainingAttempts int
	ResetAt           time.Time
}

type window struct {
	count        int
	firstAttempt time.Time
}

// Throttle is a fixed-window attempt counter keyed by identifier. It is a
// local, single-process, best-effort throttle and no substitute for
// server-side rate limiting.
type Throttle struct {
	maxAttempts int
	windowSize  time.Duration
	now         func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewThrottle builds a throttle allowing maxAttempts per windowSize.
func NewThrottle(maxAttempts int, windowSize time.Duration) *Throttle {
	return &Throttle{
		maxAttempts: maxAttempts,
		windowSize:  windowSize,
		now:         time.Now,
		windows:     make(map[string]*window),
	}
}

// Check records an attempt for id. A fresh or expired window starts over
// with count 1; a saturated window denies and reports its reset time.
func (t *Throttle) Check(id string) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	w, ok := t.windows[id]

	if !ok || now.Sub(w.firstAttempt) > t.windowSize {
		t.windows[id] = &window{count: 1, firstAttempt: now}
		return Result{
			Allowed:           true,
			RemainingAttempts: t.maxAttempts - 1,
			ResetAt:           now.Add(t.windowSize),
		}
	}

	if w.count >= t.maxAttempts {
		return Result{
			Allowed:           false,
			RemainingAttempts: 0,
			ResetAt:           w.firstAttempt.Add(t.windowSize),
		}
	}

	w.count++
	return Result{
		Allowed:           true,
		RemainingAttempts: t.maxAttempts - w.count,
		ResetAt:           w.firstAttempt.Add(t.windowSize),
	}
}

// Reset clears the window for id, called on successful authentication.
func (t *Throttle) Reset(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.windows, id)
}

// Cleanup evicts expired windows to bound memory. Run periodically.
func (t *Throttle) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, w := range t.windows {
		if now.Sub(w.firstAttempt) > t.windowSize {
			delete(t.windows, id)
		}
	}
}
