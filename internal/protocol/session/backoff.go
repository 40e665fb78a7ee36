package session

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffConfig shapes the delay between reconnect attempts made by callers.
// Sessions never reconnect on their own.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	// Jitter scales each delay by a random factor in [0.5, 1].
	Jitter bool
}

// Delay returns the wait before attempt (1-based). The result never exceeds
// MaxDelay when one is set.
func (b BackoffConfig) Delay(attempt int, rng *rand.Rand) time.Duration {
	if b.InitialDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(b.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if b.MaxDelay > 0 && d > float64(b.MaxDelay) {
		d = float64(b.MaxDelay)
	}
	if b.Jitter {
		f := 0.75
		if rng != nil {
			f = 0.5 + rng.Float64()/2
		}
		d *= f
	}
	return time.Duration(d)
}

// Wait blocks for Delay(attempt) or until ctx is done.
func (b BackoffConfig) Wait(ctx context.Context, attempt int, rng *rand.Rand) error {
	timer := time.NewTimer(b.Delay(attempt, rng))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
