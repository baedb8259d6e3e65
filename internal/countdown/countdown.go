// Package countdown mirrors a hold's server-side expiry for user feedback.
// The timer is cosmetic: it and the server evaluate the same stored
// timestamp independently, and only the server's re-check at confirmation
// time decides whether a hold is still valid.
package countdown

import (
	"context"
	"sync"
	"time"

	"arcana/internal/clock"
)

// State of a countdown timer.
type State string

const (
	StatePending   State = "pending"
	StateExpired   State = "expired"   // terminal: reached zero naturally
	StateCancelled State = "cancelled" // terminal: hold released early
)

// DefaultTickInterval is how often the remaining time is recomputed.
const DefaultTickInterval = time.Second

// Timer counts down toward a hold's expiry. When the remaining time
// reaches zero it invokes the expiry callback exactly once and stops;
// callers typically release the hold and drop it from the displayed order.
type Timer struct {
	expiresAt time.Time
	interval  time.Duration
	clock     clock.Clock
	onExpire  func()
	onTick    func(remaining time.Duration)

	mu    sync.Mutex
	state State
	stop  chan struct{}
}

// Option configures a timer.
type Option func(*Timer)

// WithTickInterval overrides the recompute interval.
func WithTickInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithClock overrides the clock (tests).
func WithClock(clk clock.Clock) Option {
	return func(t *Timer) {
		t.clock = clk
	}
}

// WithTick registers a callback invoked with the remaining time on every
// recompute, for driving a visible timer.
func WithTick(fn func(remaining time.Duration)) Option {
	return func(t *Timer) {
		t.onTick = fn
	}
}

// New creates a pending timer toward expiresAt. onExpire runs at most once.
func New(expiresAt time.Time, onExpire func(), opts ...Option) *Timer {
	t := &Timer{
		expiresAt: expiresAt,
		interval:  DefaultTickInterval,
		clock:     clock.NewSystem(),
		onExpire:  onExpire,
		state:     StatePending,
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start runs the tick loop until expiry, cancellation, or context end.
func (t *Timer) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-ticker.C:
			if t.tick() {
				return
			}
		}
	}
}

// tick recomputes the remaining time; returns true once the timer is done.
func (t *Timer) tick() bool {
	remaining := t.Remaining()

	if remaining > 0 {
		if t.onTick != nil {
			t.onTick(remaining)
		}
		return false
	}

	t.mu.Lock()
	if t.state != StatePending {
		t.mu.Unlock()
		return true
	}
	t.state = StateExpired
	t.mu.Unlock()

	if t.onTick != nil {
		t.onTick(0)
	}
	if t.onExpire != nil {
		t.onExpire()
	}
	return true
}

// Cancel stops a pending timer without firing the expiry callback; used
// when the hold is released before natural expiry. Idempotent.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StatePending {
		return
	}
	t.state = StateCancelled
	close(t.stop)
}

// State returns the current state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Remaining returns the time left before expiry, floored at zero.
func (t *Timer) Remaining() time.Duration {
	now := t.clock.Now()
	if !t.expiresAt.After(now) {
		return 0
	}
	return t.expiresAt.Sub(now)
}
