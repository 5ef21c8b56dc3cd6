package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestRetry_SucceedsAfterRetryableError(t *testing.T) {
	// Given: a function that reports busy twice then succeeds
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return New(ErrCodeStoreBusy, "database is locked", nil)
		}
		return nil
	}

	// When: retrying
	err := Retry(context.Background(), fastRetry(), fn)

	// Then: succeeds on the third attempt
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	// Given: a function failing with a permanent error
	attempts := 0
	perm := errors.New("constraint failed")

	// When: retrying
	err := Retry(context.Background(), fastRetry(), func() error {
		attempts++
		return perm
	})

	// Then: only one attempt is made
	assert.ErrorIs(t, err, perm)
	assert.Equal(t, 1, attempts)
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetry(), func() error {
		attempts++
		return New(ErrCodeStoreBusy, "busy", nil)
	})

	assert.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 4, attempts) // initial + 3 retries
}

func TestRetryWithResult_ReturnsValue(t *testing.T) {
	attempts := 0
	got, err := RetryWithResult(context.Background(), fastRetry(), func() (int64, error) {
		attempts++
		if attempts == 1 {
			return 0, New(ErrCodeStoreBusy, "busy", nil)
		}
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), got)
}
