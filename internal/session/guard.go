package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State is the guard's position in its activity-timeout lifecycle.
type State int

const (
	// Active means activity was seen recently
	Active State = iota
	// WarningIssued means the pre-expiry warning has fired
	WarningIssued
	// Expired means the session was forcibly signed out; terminal until the
	// guard is reconstructed on re-authentication
	Expired
)

// Event is published on the guard's channel when its state advances.
type Event int

const (
	// EventWarning fires warningWindow before expiry
	EventWarning Event = iota
	// EventExpired fires at expiry, after the forced sign-out
	EventExpired
)

// SignOutFunc is the forced sign-out side effect invoked on expiry.
type SignOutFunc func(ctx context.Context) error

// Guard signs the user out after a period of inactivity, warning ahead of
// time. Any recorded activity before expiry resets the clock.
type Guard struct {
	timeout       time.Duration
	warningWindow time.Duration
	signOut       SignOutFunc
	events        chan Event

	mu           sync.Mutex
	state        State
	lastActivity time.Time
	warnTimer    *time.Timer
	expireTimer  *time.Timer
	stopped      bool
}

// NewGuard builds a running guard. The warning fires at timeout -
// warningWindow since last activity, expiry at timeout.
func NewGuard(timeout, warningWindow time.Duration, signOut SignOutFunc) *Guard {
	g := &Guard{
		timeout:       timeout,
		warningWindow: warningWindow,
		signOut:       signOut,
		events:        make(chan Event, 4),
	}
	g.mu.Lock()
	g.resetLocked()
	g.mu.Unlock()
	return g
}

// Events is the guard's notification stream.
func (g *Guard) Events() <-chan Event {
	return g.events
}

// State returns the current lifecycle state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Touch records an activity signal. It resets the clock and returns the
// guard to Active unless the session already expired.
func (g *Guard) Touch() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped || g.state == Expired {
		return
	}
	g.resetLocked()
}

// Extend is an explicit caller-invoked reset, equivalent to activity.
func (g *Guard) Extend() {
	g.Touch()
}

// Remaining reports time left until forced sign-out.
func (g *Guard) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	left := g.timeout - time.Since(g.lastActivity)
	if left < 0 {
		return 0
	}
	return left
}

// Stop cancels pending timers so nothing outlives the authenticated
// session. The guard is unusable afterwards.
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopped = true
	g.cancelTimersLocked()
}

func (g *Guard) resetLocked() {
	g.lastActivity = time.Now()
	g.state = Active
	g.cancelTimersLocked()

	g.warnTimer = time.AfterFunc(g.timeout-g.warningWindow, g.warn)
	g.expireTimer = time.AfterFunc(g.timeout, g.expire)
}

func (g *Guard) cancelTimersLocked() {
	if g.warnTimer != nil {
		g.warnTimer.Stop()
	}
	if g.expireTimer != nil {
		g.expireTimer.Stop()
	}
}

func (g *Guard) warn() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped || g.state != Active {
		return
	}
	g.state = WarningIssued
	g.publishLocked(EventWarning)
}

func (g *Guard) expire() {
	g.mu.Lock()
	if g.stopped || g.state == Expired {
		g.mu.Unlock()
		return
	}
	g.state = Expired
	g.publishLocked(EventExpired)
	g.mu.Unlock()

	if g.signOut != nil {
		if err := g.signOut(context.Background()); err != nil {
			logrus.WithError(err).Error("forced sign-out failed")
		}
	}
}

func (g *Guard) publishLocked(e Event) {
	select {
	case g.events <- e:
	default: // subscriber lagging, drop rather than block the timer
	}
}
