package quizgen

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// backoff computes the wait before the next attempt. attempt is 0 for the
// wait after the first call.
func (c Config) backoff(attempt int, retryAfter time.Duration, jitter func() float64) time.Duration {
	// Respect RetryAfter for rate limits.
	if retryAfter > 0 {
		return retryAfter
	}

	wait := float64(c.InitialWait) * math.Pow(c.Multiplier, float64(attempt))
	if c.MaxWait > 0 && wait > float64(c.MaxWait) {
		wait = float64(c.MaxWait)
	}

	// Add ±20% jitter.
	if jitter == nil {
		jitter = rand.Float64
	}
	wait += wait * 0.2 * (2*jitter() - 1)

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
