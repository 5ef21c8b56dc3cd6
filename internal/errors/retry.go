package errors

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (not including initial attempt).
	MaxRetries uint64

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the retry policy used for busy store writes.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   5,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

// Retry executes fn with exponential backoff.
// Only errors reported as retryable by IsRetryable are retried; any other
// error is returned immediately.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	operation := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(operation, newBackOff(ctx, cfg))
}

// RetryWithResult is Retry for functions that also produce a value.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	err := Retry(ctx, cfg, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}

func newBackOff(ctx context.Context, cfg RetryConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.MaxInterval = cfg.MaxDelay
	b.MaxElapsedTime = 0 // bounded by MaxRetries

	return backoff.WithContext(backoff.WithMaxRetries(b, cfg.MaxRetries), ctx)
}
