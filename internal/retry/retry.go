// Package retry runs fallible calls with exponential backoff.
package retry

import (
	"context"
	"time"
)

// Policy bounds a retry loop. MaxRetries counts retries after the first attempt.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// MaxDelay caps the backoff; zero means uncapped.
	MaxDelay time.Duration
}

// Do calls fn until it succeeds, MaxRetries is exhausted, or ctx ends.
// The last error from fn is returned, or ctx.Err() if ctx ended while waiting.
func Do(ctx context.Context, policy Policy, fn func(context.Context) error) error {
	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := policy.BaseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
}
