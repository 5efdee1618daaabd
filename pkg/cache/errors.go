package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when a remote cache backend cannot be reached.
var ErrUnavailable = errors.New("cache unavailable")

// RetryableError marks a transient backend failure worth another attempt.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is marked with [Retryable].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

const retryAttempts = 3

// retryDelay is the wait before the second attempt; it doubles after that.
var retryDelay = 100 * time.Millisecond

// RetryWithBackoff calls fn until it succeeds, fails with an error not
// marked [Retryable], or has failed retryAttempts times. The returned error
// is never a *RetryableError.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := retryDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) || attempt == retryAttempts {
			break
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return unwrapRetryable(err)
}

func unwrapRetryable(err error) error {
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}
