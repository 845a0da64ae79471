package resilience

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
)

var errPermanent = crerr.New("permanent failure")

// Permanent marks err so Retry gives up immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return crerr.Mark(err, errPermanent)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry calls fn until it succeeds, returns a Permanent error, or the policy
// runs out of attempts. The last error is returned with the attempt count.
func Retry(ctx context.Context, policy RetryPolicy, sleep Sleeper, fn func(ctx context.Context, attempt int) error) error {
	policy = NormalizeRetryPolicy(policy)
	if sleep == nil {
		sleep = SleepContext
	}

	var last error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, policy.Backoff(attempt-1)); err != nil {
				return crerr.WithSecondaryError(crerr.Wrapf(err, "retry interrupted after %d attempts", attempt-1), last)
			}
		}

		last = fn(ctx, attempt)
		if last == nil {
			return nil
		}
		if crerr.Is(last, errPermanent) {
			return last
		}
	}

	return crerr.Wrapf(last, "gave up after %d attempts", policy.Attempts)
}
