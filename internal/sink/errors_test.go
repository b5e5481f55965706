package sink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil", nil, KindPermanent},
		{"deadline", context.DeadlineExceeded, KindTransient},
		{"canceled", context.Canceled, KindPermanent},
		{"net timeout", timeoutError{}, KindTransient},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, KindTransient},
		{"pq unique violation", &pq.Error{Code: "23505"}, KindConflict},
		{"pq connection failure", &pq.Error{Code: "08006"}, KindTransient},
		{"pq too many connections", &pq.Error{Code: "53300"}, KindTransient},
		{"pq invalid password", &pq.Error{Code: "28P01"}, KindAuth},
		{"pq syntax error", &pq.Error{Code: "42601"}, KindPermanent},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, KindTransient},
		{"sqlite locked", sqlite3.Error{Code: sqlite3.ErrLocked}, KindTransient},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, KindConflict},
		{"sqlite auth", sqlite3.Error{Code: sqlite3.ErrAuth}, KindAuth},
		{"sqlite misuse", sqlite3.Error{Code: sqlite3.ErrMisuse}, KindPermanent},
		{"plain error", errors.New("boom"), KindPermanent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.expected {
				t.Errorf("Classify() = %s, want %s", got, tc.expected)
			}
		})
	}
}

func TestClassifyWrapped(t *testing.T) {
	// Classification must survive fmt.Errorf %w chains.
	err := fmt.Errorf("upload: %w", &pq.Error{Code: "23505"})
	if got := Classify(err); got != KindConflict {
		t.Errorf("Classify(wrapped) = %s, want conflict", got)
	}
}

func TestWrapAndKindOf(t *testing.T) {
	if wrap("noop", nil) != nil {
		t.Error("wrap(nil) must return nil")
	}

	err := wrap("upsert students", &pq.Error{Code: "08006"})
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if se.Op != "upsert students" || se.Kind != KindTransient {
		t.Errorf("Unexpected wrapped error: %+v", se)
	}
	if KindOf(err) != KindTransient {
		t.Errorf("KindOf() = %s, want transient", KindOf(err))
	}
	// Unwrap must expose the driver error.
	var pqerr *pq.Error
	if !errors.As(err, &pqerr) {
		t.Error("Expected driver error reachable through Unwrap")
	}
}

func TestKindString(t *testing.T) {
	testCases := []struct {
		kind     Kind
		expected string
	}{
		{KindPermanent, "permanent"},
		{KindTransient, "transient"},
		{KindConflict, "conflict"},
		{KindAuth, "auth"},
	}
	for _, tc := range testCases {
		if got := tc.kind.String(); got != tc.expected {
			t.Errorf("Kind(%d).String() = %q, want %q", tc.kind, got, tc.expected)
		}
	}
}
