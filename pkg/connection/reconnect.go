package connection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Connection errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
)

// State represents the connection state.
type State uint8

const (
	// StateDisconnected indicates no active link.
	StateDisconnected State = iota

	// StateConnecting indicates a dial is in progress.
	StateConnecting

	// StateConnected indicates an active link.
	StateConnected

	// StateClosed indicates the manager has been closed.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DialFunc establishes the link. It returns nil on success.
type DialFunc func(ctx context.Context) error

// ServeFunc uses an established link until it fails or ctx ends.
type ServeFunc func(ctx context.Context) error

// Manager tracks link state and runs the dial / serve / retry loop.
type Manager struct {
	mu sync.RWMutex

	state   State
	backoff *Backoff

	// Cancels the running loop on Close
	ctx    context.Context
	cancel context.CancelFunc

	cycles int

	onStateChange  func(oldState, newState State)
	onConnected    func()
	onDisconnected func(err error)
	onRetry        func(attempt int, delay time.Duration)
}

// NewManager creates a manager with the default fixed retry delay.
func NewManager() *Manager {
	return NewManagerWithBackoff(NewBackoff())
}

// NewManagerWithBackoff creates a manager with a custom retry policy.
func NewManagerWithBackoff(b *Backoff) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		state:   StateDisconnected,
		backoff: b,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Cycles returns how many times the link reached CONNECTED.
func (m *Manager) Cycles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cycles
}

// Connect makes one dial attempt.
func (m *Manager) Connect(ctx context.Context, dial DialFunc) error {
	m.mu.Lock()
	switch m.state {
	case StateConnected:
		m.mu.Unlock()
		return ErrAlreadyConnected
	case StateClosed:
		m.mu.Unlock()
		return ErrConnectionClosed
	}
	m.mu.Unlock()

	m.transition(StateConnecting)

	if err := dial(ctx); err != nil {
		m.transition(StateDisconnected)
		m.notifyDisconnected(err)
		return err
	}

	m.mu.Lock()
	m.cycles++
	m.mu.Unlock()
	m.backoff.Reset()
	m.transition(StateConnected)

	m.mu.RLock()
	fn := m.onConnected
	m.mu.RUnlock()
	if fn != nil {
		fn()
	}
	return nil
}

// NotifyConnectionLost records that the link failed with err.
func (m *Manager) NotifyConnectionLost(err error) {
	m.mu.RLock()
	state := m.state
	m.mu.RUnlock()
	if state != StateConnected && state != StateConnecting {
		return
	}

	m.transition(StateDisconnected)
	m.notifyDisconnected(err)
}

// Run dials, serves, and retries after the configured delay until ctx is
// cancelled or the manager is closed. It returns the context error that
// stopped it, or ErrConnectionClosed.
func (m *Manager) Run(ctx context.Context, dial DialFunc, serve ServeFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(m.ctx, cancel)
	defer stop()

	for {
		if m.State() == StateClosed {
			return ErrConnectionClosed
		}

		if err := m.Connect(ctx, dial); err == nil {
			err = serve(ctx)
			if ctx.Err() == nil && err == nil {
				err = ErrNotConnected
			}
			m.NotifyConnectionLost(err)
		} else if errors.Is(err, ErrConnectionClosed) {
			return err
		}

		if m.State() == StateClosed {
			return ErrConnectionClosed
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := m.backoff.Next()
		m.mu.RLock()
		fn := m.onRetry
		m.mu.RUnlock()
		if fn != nil {
			fn(m.backoff.Attempts(), delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			if m.State() == StateClosed {
				return ErrConnectionClosed
			}
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Close shuts the manager down and stops any running loop.
func (m *Manager) Close() {
	m.mu.RLock()
	closed := m.state == StateClosed
	m.mu.RUnlock()
	if closed {
		return
	}
	m.transition(StateClosed)
	m.cancel()
}

// OnStateChange sets a callback for state changes.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnConnected sets a callback for successful connection.
func (m *Manager) OnConnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnected = fn
}

// OnDisconnected sets a callback for link loss. err is the cause, or the
// context error when the loop was stopped.
func (m *Manager) OnDisconnected(fn func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnected = fn
}

// OnRetry sets a callback invoked before each retry wait.
func (m *Manager) OnRetry(fn func(attempt int, delay time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRetry = fn
}

// transition moves to newState unless the manager is closed, and fires
// the state callback outside the lock.
func (m *Manager) transition(newState State) {
	m.mu.Lock()
	oldState := m.state
	if oldState == newState || (oldState == StateClosed && newState != StateClosed) {
		m.mu.Unlock()
		return
	}
	m.state = newState
	fn := m.onStateChange
	m.mu.Unlock()

	if fn != nil {
		fn(oldState, newState)
	}
}

func (m *Manager) notifyDisconnected(err error) {
	m.mu.RLock()
	fn := m.onDisconnected
	m.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}
