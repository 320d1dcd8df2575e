package pipeline

import (
	"context"
	"time"

	"github.com/zen-systems/designflow/pkg/config"
	"github.com/zen-systems/designflow/pkg/fault"
)

// withRetry runs fn, retrying transient failures with exponential backoff.
// Non-transient failures return immediately. The attempt count is returned
// alongside the final error so stage records can report it.
func withRetry(ctx context.Context, cfg config.RetryConfig, fn func(ctx context.Context) error) (int, error) {
	attempts := cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if !fault.IsTransient(lastErr) || attempt == attempts {
			return attempt, lastErr
		}

		backoff := computeBackoff(cfg.BaseBackoffMs, cfg.MaxBackoffMs, attempt-1)
		if err := sleepWithContext(ctx, backoff); err != nil {
			return attempt, err
		}
	}
	return attempts, lastErr
}

func computeBackoff(baseMs, maxMs, attempt int) time.Duration {
	backoff := time.Duration(baseMs) * time.Millisecond
	limit := time.Duration(maxMs) * time.Millisecond
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= limit {
			return limit
		}
	}
	if backoff > limit {
		return limit
	}
	return backoff
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
