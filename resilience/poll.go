package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPollTimeout is returned when Poll gives up before the check reports a
// terminal state.
var ErrPollTimeout = errors.New("poll did not reach a terminal state")

// PollConfig configures Poll.
type PollConfig struct {
	// Interval is the delay after the first non-terminal check.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// MaxInterval caps the backoff. Zero means no cap.
	MaxInterval time.Duration `yaml:"max_interval" mapstructure:"max_interval"`
	// BackoffFactor multiplies the delay after every check. Values below 1
	// are treated as 1 (fixed interval).
	BackoffFactor float64 `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	// MaxAttempts bounds the number of checks. Zero means unbounded.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// Timeout bounds the whole poll. Zero means only ctx bounds it.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// OnWait is called before each sleep.
	OnWait func(attempt int, delay time.Duration) `yaml:"-" mapstructure:"-"`
	// Sleep replaces SleepContext, mainly in tests.
	Sleep SleepFunc `yaml:"-" mapstructure:"-"`
}

// Poll calls check until it reports done, returns an error, or the attempt
// or time budget runs out. The check receives a context bounded by Timeout.
func Poll[T any](ctx context.Context, cfg PollConfig, check func(ctx context.Context) (T, bool, error)) (T, error) {
	var zero T

	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	pollCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	expired := func() bool { return ctx.Err() == nil && pollCtx.Err() != nil }

	for attempt := 1; ; attempt++ {
		if err := pollCtx.Err(); err != nil {
			if expired() {
				return zero, fmt.Errorf("%w within %s", ErrPollTimeout, cfg.Timeout)
			}
			return zero, err
		}

		result, done, err := check(pollCtx)
		if err != nil {
			if expired() {
				return zero, fmt.Errorf("%w within %s: %w", ErrPollTimeout, cfg.Timeout, err)
			}
			return zero, err
		}
		if done {
			return result, nil
		}
		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			return zero, fmt.Errorf("%w after %d attempts", ErrPollTimeout, attempt)
		}

		delay := exponential(attempt, cfg.Interval, cfg.MaxInterval, cfg.BackoffFactor)
		if cfg.OnWait != nil {
			cfg.OnWait(attempt, delay)
		}
		if err := sleep(pollCtx, delay); err != nil {
			if expired() {
				return zero, fmt.Errorf("%w within %s", ErrPollTimeout, cfg.Timeout)
			}
			return zero, err
		}
	}
}
