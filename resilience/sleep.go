package resilience

import (
	"context"
	"math"
	"time"
)

// SleepFunc blocks for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the default SleepFunc.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// exponential returns initial*factor^(attempt-1), capped at max when max > 0.
func exponential(attempt int, initial, max time.Duration, factor float64) time.Duration {
	d := float64(initial) * math.Pow(factor, float64(attempt-1))
	if max > 0 && d > float64(max) {
		d = float64(max)
	}
	if d < 0 {
		d = float64(initial)
	}
	return time.Duration(d)
}
