package lifecycle

import (
	"context"
	"time"
)

// RetryPolicy bounds how stubbornly transient infrastructure failures are
// retried before the controller gives up and escalates. The parameters are
// injected configuration, not constants.
type RetryPolicy struct {
	// MaxAttempts is the attempt ceiling, including the first try.
	MaxAttempts int

	// BaseInterval is the delay after the first failure; it doubles per
	// attempt up to MaxInterval.
	BaseInterval time.Duration
	MaxInterval  time.Duration
}

// DefaultRetryPolicy is used when configuration provides nothing.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  3,
	BaseInterval: 5 * time.Second,
	MaxInterval:  2 * time.Minute,
}

// Do runs fn until it succeeds, the attempt ceiling is reached, or the
// context ends. It returns the last error on exhaustion.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	backoff := p.BaseInterval
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if p.MaxInterval > 0 && backoff > p.MaxInterval {
			backoff = p.MaxInterval
		}
	}
	return err
}
