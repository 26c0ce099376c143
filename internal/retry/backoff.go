package retry

import (
	"math"
	"math/rand"
	"time"
)

// Defaults used by NewBackoff.
const (
	DefaultInitialDelay = 200 * time.Millisecond
	DefaultMaxDelay     = 5 * time.Second
	DefaultMultiplier   = 2.0
	DefaultJitter       = 0.1
)

// Backoff computes exponentially growing delays with optional jitter.
type Backoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       float64
	maxRetries   int
	random       func() float64
}

// BackoffOption configures a Backoff.
type BackoffOption func(*Backoff)

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) { b.initialDelay = d }
}

// WithMaxDelay caps every delay.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) { b.maxDelay = d }
}

// WithMultiplier sets the growth factor between retries.
func WithMultiplier(m float64) BackoffOption {
	return func(b *Backoff) { b.multiplier = m }
}

// WithJitter sets the +/- fraction of randomness applied to each delay.
func WithJitter(j float64) BackoffOption {
	return func(b *Backoff) { b.jitter = j }
}

// WithRandom replaces the jitter source; tests pass a constant.
func WithRandom(f func() float64) BackoffOption {
	return func(b *Backoff) { b.random = f }
}

// NewBackoff allows maxRetries retries after the first attempt.
// Zero disables retrying; a negative value retries until the context ends.
func NewBackoff(maxRetries int, opts ...BackoffOption) *Backoff {
	b := &Backoff{
		initialDelay: DefaultInitialDelay,
		maxDelay:     DefaultMaxDelay,
		multiplier:   DefaultMultiplier,
		jitter:       DefaultJitter,
		maxRetries:   maxRetries,
		random:       rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Delay returns the wait before retry number attempt (0-based).
func (b *Backoff) Delay(attempt int) time.Duration {
	d := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt))
	if d > float64(b.maxDelay) {
		d = float64(b.maxDelay)
	}
	if b.jitter > 0 {
		d *= 1 + b.jitter*(b.random()-0.5)*2
	}
	return time.Duration(d)
}

// MaxRetries returns the retry limit.
func (b *Backoff) MaxRetries() int {
	return b.maxRetries
}
