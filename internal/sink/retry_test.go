package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestRetryDoSucceedsFirstTry(t *testing.T) {
	p := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestRetryDoRetriesTransient(t *testing.T) {
	p := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return wrap("upsert", &pq.Error{Code: "08006"})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetryDoExhaustsBudget(t *testing.T) {
	p := RetryPolicy{Attempts: 2, BaseDelay: time.Millisecond}
	calls := 0
	transient := wrap("upsert", &pq.Error{Code: "08006"})
	err := p.Do(context.Background(), func() error {
		calls++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Errorf("Expected the transient error back, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestRetryDoDoesNotRetryPermanent(t *testing.T) {
	p := RetryPolicy{Attempts: 5, BaseDelay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return wrap("upsert", &pq.Error{Code: "42601"})
	})
	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Permanent failure must not be retried, got %d calls", calls)
	}
}

func TestRetryDoDoesNotRetryConflict(t *testing.T) {
	p := RetryPolicy{Attempts: 5, BaseDelay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return wrap("upsert", &pq.Error{Code: "23505"})
	})
	if KindOf(err) != KindConflict {
		t.Errorf("Expected conflict kind, got %s", KindOf(err))
	}
	if calls != 1 {
		t.Errorf("Conflict must not be retried, got %d calls", calls)
	}
}

func TestRetryDoHonorsContext(t *testing.T) {
	p := RetryPolicy{Attempts: 10, BaseDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Do(ctx, func() error {
		return wrap("upsert", &pq.Error{Code: "08006"})
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRetryDoZeroPolicyDefaults(t *testing.T) {
	var p RetryPolicy
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("Zero policy must still run once, err=%v calls=%d", err, calls)
	}
}
