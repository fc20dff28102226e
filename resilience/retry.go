package resilience

import (
	"context"
	"errors"
	"time"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts including the first.
	MaxAttempts int
	// Delay is the wait before the first retry.
	Delay time.Duration
	// Multiplier scales the delay after every retry. Values <= 1 keep the
	// delay fixed.
	Multiplier float64
	// MaxDelay caps the delay when Multiplier > 1. Zero means no cap.
	MaxDelay time.Duration
	// RetryIf determines if an error should be retried.
	RetryIf func(error) bool
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// FixedDelay returns a policy that makes retries+1 attempts with the same
// delay between them.
func FixedDelay(retries int, delay time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts: retries + 1,
		Delay:       delay,
		Multiplier:  1,
		RetryIf:     DefaultRetryIf,
	}
}

// DefaultRetryConfig returns a short exponential policy for API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Delay:       200 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    5 * time.Second,
		RetryIf:     DefaultRetryIf,
	}
}

// DefaultRetryIf retries all errors except context cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry calls fn until it succeeds, the policy is exhausted or ctx is done.
// It returns the last result and error.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	_, err := Do(ctx, cfg, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	return result, err
}

// Do calls fn under the policy and reports how many attempts were made.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) (int, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}

	delay := cfg.Delay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if !cfg.RetryIf(lastErr) || attempt == cfg.MaxAttempts {
			return attempt, lastErr
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr, delay)
		}
		if err := Sleep(ctx, delay); err != nil {
			return attempt, err
		}
		delay = nextDelay(delay, cfg)
	}
	return cfg.MaxAttempts, lastErr
}

func nextDelay(d time.Duration, cfg RetryConfig) time.Duration {
	if cfg.Multiplier <= 1 {
		return d
	}
	next := time.Duration(float64(d) * cfg.Multiplier)
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return next
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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

// ErrPollTimeout is returned by Poll when the condition was not met in time.
var ErrPollTimeout = errors.New("poll timed out")

// Poll calls check every interval until it reports done, returns an error,
// timeout elapses or ctx is done. The first check runs immediately. A zero
// timeout polls until ctx is done.
func Poll(ctx context.Context, interval, timeout time.Duration, check func(ctx context.Context) (bool, error)) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := Sleep(ctx, interval); err != nil {
			if errors.Is(err, context.DeadlineExceeded) && timeout > 0 {
				return ErrPollTimeout
			}
			return err
		}
	}
}
