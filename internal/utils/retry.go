package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"push-service/internal/logging"
)

// Backoff waits between delivery attempts. attempt counts from 1.
type Backoff interface {
	Wait(ctx context.Context, attempt int) error
}

// ExponentialBackoff waits Base * 2^attempt.
type ExponentialBackoff struct {
	Base time.Duration
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	return b.Base * time.Duration(int64(1)<<attempt)
}

func (b ExponentialBackoff) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(b.Delay(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type terminalError struct {
	err error
}

func (e terminalError) Error() string { return e.err.Error() }
func (e terminalError) Unwrap() error { return e.err }

// Terminal marks err as not worth retrying.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return terminalError{err: err}
}

// IsTerminal reports whether err was marked with Terminal.
func IsTerminal(err error) bool {
	var t terminalError
	return errors.As(err, &t)
}

// Retry calls fn up to maxAttempts times, waiting on backoff between
// attempts. A Terminal error stops immediately.
func Retry(ctx context.Context, logger *logging.Logger, maxAttempts int, backoff Backoff, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if IsTerminal(err) {
			logger.Warnf("Attempt %d/%d failed, not retrying: %v", attempt, maxAttempts, err)
			return fmt.Errorf("terminal failure on attempt %d: %w", attempt, err)
		}
		logger.Errorf("Attempt %d/%d failed: %v", attempt, maxAttempts, err)
		if attempt == maxAttempts {
			break
		}
		if werr := backoff.Wait(ctx, attempt); werr != nil {
			return fmt.Errorf("retry aborted after %d attempts: %w", attempt, werr)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
