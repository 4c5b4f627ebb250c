package retry

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
)

// Backoff is an exponential delay schedule with proportional jitter.
type Backoff struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64
	attempts   int
	random     func() float64
}

var _ mosaic.BackoffStrategy = (*Backoff)(nil)

// BackoffOption configures a Backoff.
type BackoffOption func(*Backoff)

func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) { b.initial = d }
}

func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) { b.max = d }
}

func WithMultiplier(m float64) BackoffOption {
	return func(b *Backoff) { b.multiplier = m }
}

// WithJitter spreads each delay by up to ±j of its value. j is clamped to [0, 1].
func WithJitter(j float64) BackoffOption {
	return func(b *Backoff) { b.jitter = math.Max(0, math.Min(1, j)) }
}

// WithRandom replaces the [0, 1) source used for jitter.
func WithRandom(f func() float64) BackoffOption {
	return func(b *Backoff) { b.random = f }
}

// NewBackoff returns a schedule allowing maxRetries retries after the first
// attempt. A negative value retries until the context ends.
func NewBackoff(maxRetries int, opts ...BackoffOption) *Backoff {
	b := &Backoff{
		initial:    mosaic.DefaultRetryInitialDelay,
		max:        mosaic.DefaultRetryMaxDelay,
		multiplier: 2,
		jitter:     0.1,
		attempts:   maxRetries,
		random:     rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay returns the wait before retry number attempt, counting from zero.
func (b *Backoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(b.initial) * math.Pow(b.multiplier, float64(attempt))
	if math.IsInf(d, 0) || math.IsNaN(d) || d > float64(b.max) {
		d = float64(b.max)
	}
	if b.jitter > 0 {
		d *= 1 + b.jitter*(2*b.random()-1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

func (b *Backoff) MaxAttempts() int {
	return b.attempts
}
