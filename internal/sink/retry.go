package sink

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a transient batch failure is retried.
// Non-transient kinds fail immediately.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 2 * time.Second}
}

// Do runs op, retrying transient failures with exponential backoff until the
// attempt budget is spent or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = 2 * time.Second
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if KindOf(err) != KindTransient || attempt == attempts {
			return err
		}
		if serr := sleep(ctx, base*time.Duration(1<<(attempt-1))); serr != nil {
			return serr
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
