package pipeline

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"news-impact/internal/logger"
)

// RetryableError marks an error as transient
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable always reports true
func (e *RetryableError) Retryable() bool { return true }

// IsRetryable classifies err as transient: anything that says so through a
// Retryable method, timeouts, dropped connections and per-call deadlines.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// retry runs fn up to attempts times, sleeping backoff*(attempt+1) after a
// retryable failure. It stops early on success, a permanent error or when
// ctx is done.
func retry(ctx context.Context, op string, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		wait := backoff * time.Duration(attempt+1)
		logger.Warn(ctx, "Transient failure, retrying",
			"operation", op,
			"attempt", attempt+1,
			"max_attempts", attempts,
			"wait_ms", wait.Milliseconds(),
			"error", err.Error(),
		)

		if sleep(ctx, wait) != nil {
			return err
		}
	}

	logger.Warn(ctx, "Retries exhausted", "operation", op, "attempts", attempts, "error", err.Error())
	return err
}

// sleep waits for d or until ctx is done, returning ctx.Err() in the latter case
func sleep(ctx context.Context, d time.Duration) error {
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
