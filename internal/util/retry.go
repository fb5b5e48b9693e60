package util

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Retry runs fn up to attempts times, doubling the delay between tries.
// The last error is returned once the attempts are exhausted; callers decide
// whether to fail open. Cancellation of ctx stops the loop between tries.
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := baseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		StoreRetriesTotal.Inc()
		GetLogger().Warn("Retrying after transient failure",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
