package connection

import (
	"math/rand"
	"sync"
	"time"
)

// Retry defaults for the pager link.
const (
	// DefaultRetryDelay is the fixed wait after a link fault.
	DefaultRetryDelay = 10 * time.Second

	// DefaultMultiplier keeps the delay constant.
	DefaultMultiplier = 1.0
)

// Backoff calculates retry delays, optionally growing and jittered.
type Backoff struct {
	mu sync.Mutex

	// Current delay (before jitter)
	current time.Duration

	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64

	attempts int

	rng *rand.Rand
}

// BackoffConfig allows customizing backoff parameters.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// DefaultBackoffConfig returns the fixed 10 second policy.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    DefaultRetryDelay,
		Max:        DefaultRetryDelay,
		Multiplier: DefaultMultiplier,
	}
}

// NewBackoff creates a backoff with the default fixed delay.
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(DefaultBackoffConfig())
}

// NewFixedBackoff creates a backoff that always returns d.
func NewFixedBackoff(d time.Duration) *Backoff {
	return NewBackoffWithConfig(BackoffConfig{Initial: d, Max: d, Multiplier: 1})
}

// NewBackoffWithConfig creates a backoff calculator with custom settings.
func NewBackoffWithConfig(cfg BackoffConfig) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = DefaultRetryDelay
	}
	if cfg.Max < cfg.Initial {
		cfg.Max = cfg.Initial
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = DefaultMultiplier
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}

	return &Backoff{
		current:    cfg.Initial,
		initial:    cfg.Initial,
		max:        cfg.Max,
		multiplier: cfg.Multiplier,
		jitter:     cfg.Jitter,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the next delay (with jitter) and advances the backoff.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.addJitter(b.current)

	b.attempts++
	next := time.Duration(float64(b.current) * b.multiplier)
	if next > b.max {
		next = b.max
	}
	b.current = next

	return delay
}

// Reset returns to the initial delay. Call after a successful connect.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Current returns the current base delay (without jitter).
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Backoff) addJitter(d time.Duration) time.Duration {
	if b.jitter <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*b.jitter*b.rng.Float64())
}
