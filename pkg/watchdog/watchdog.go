package watchdog

import (
	"errors"
	"sync"
	"time"
)

// DefaultTimeout is how long the link may be silent before it is
// reported as disconnected.
const DefaultTimeout = 90 * time.Second

// ErrInvalidTimeout is returned for a non-positive timeout.
var ErrInvalidTimeout = errors.New("invalid watchdog timeout")

// State represents the watchdog state.
type State uint8

const (
	// StateStopped indicates the watchdog is not armed.
	StateStopped State = iota

	// StateHealthy indicates datagrams arrive within the timeout.
	StateHealthy

	// StateStale indicates the timeout passed without a datagram.
	StateStale
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateHealthy:
		return "HEALTHY"
	case StateStale:
		return "STALE"
	default:
		return "UNKNOWN"
	}
}

// Timer tracks the time since the last received datagram.
type Timer struct {
	mu sync.RWMutex

	state   State
	timeout time.Duration

	timer    *time.Timer
	armed    uint64
	lastFeed time.Time

	onStateChange func(oldState, newState State)
	onStale       func(silence time.Duration)
	onRecover     func()
}

// NewTimer creates a stopped watchdog with DefaultTimeout.
func NewTimer() *Timer {
	return &Timer{timeout: DefaultTimeout}
}

// NewTimerWithTimeout creates a stopped watchdog with a custom timeout.
func NewTimerWithTimeout(d time.Duration) (*Timer, error) {
	if d <= 0 {
		return nil, ErrInvalidTimeout
	}
	return &Timer{timeout: d}, nil
}

// State returns the current state.
func (t *Timer) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Timeout returns the configured timeout.
func (t *Timer) Timeout() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.timeout
}

// Start arms the watchdog. Starting a running watchdog is a no-op.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.state != StateStopped {
		t.mu.Unlock()
		return
	}
	t.lastFeed = time.Now()
	t.arm()
	fn := t.setState(StateHealthy)
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Feed records a received datagram.
func (t *Timer) Feed() {
	t.mu.Lock()
	if t.state == StateStopped {
		t.mu.Unlock()
		return
	}

	t.lastFeed = time.Now()
	t.arm()
	wasStale := t.state == StateStale
	fn := t.setState(StateHealthy)
	recoverFn := t.onRecover
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
	if wasStale && recoverFn != nil {
		recoverFn()
	}
}

// Stop disarms the watchdog. A stale status is left to the caller to clear.
func (t *Timer) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	fn := t.setState(StateStopped)
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// SilentFor returns how long ago the last datagram arrived, or 0 when
// stopped.
func (t *Timer) SilentFor() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state == StateStopped {
		return 0
	}
	return time.Since(t.lastFeed)
}

// OnStateChange sets a callback for state changes.
func (t *Timer) OnStateChange(fn func(oldState, newState State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStateChange = fn
}

// OnStale sets a callback for the timeout expiring.
func (t *Timer) OnStale(fn func(silence time.Duration)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStale = fn
}

// OnRecover sets a callback for the first datagram after going stale.
func (t *Timer) OnRecover(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRecover = fn
}

// arm (re)starts the expiry timer. Caller holds mu.
func (t *Timer) arm() {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.armed++
	gen := t.armed
	t.timer = time.AfterFunc(t.timeout, func() {
		t.expire(gen)
	})
}

// setState updates the state and returns the state callback to run after
// unlocking, or nil. Caller holds mu.
func (t *Timer) setState(newState State) func() {
	oldState := t.state
	if oldState == newState {
		return nil
	}
	t.state = newState
	if t.onStateChange == nil {
		return nil
	}
	fn := t.onStateChange
	return func() { fn(oldState, newState) }
}

// expire runs on the timer goroutine. gen identifies the arming; a feed
// that raced with expiry re-armed the timer and wins.
func (t *Timer) expire(gen uint64) {
	t.mu.Lock()
	if t.state != StateHealthy || t.armed != gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	fn := t.setState(StateStale)
	staleFn := t.onStale
	silence := time.Since(t.lastFeed)
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
	if staleFn != nil {
		staleFn(silence)
	}
}
