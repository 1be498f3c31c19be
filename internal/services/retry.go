package services

import (
	"context"
	"log/slog"
	"time"

	"eventhub/internal/database"
)

// RetryPolicy bounds how often a write is retried after a transient
// database failure (serialization failure, deadlock, SQLite busy).
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy tries three times with a linear 25ms, 50ms backoff
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 25 * time.Millisecond}
}

// Do runs fn until it succeeds, fails permanently, or the attempts run out.
// The context stops the wait between attempts.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, op string, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(time.Duration(attempt) * p.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !database.IsRetryable(err) {
			return err
		}

		logger.Warn("transient database failure, retrying",
			"operation", op,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return lastErr
}
