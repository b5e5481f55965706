// Package sink pushes pipeline output to a remote store via upsert keyed by
// email. Failures are classified into a closed set of kinds at this boundary
// so that retry policy keys on the kind, never on message text.
package sink

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Kind is the failure category of a sink operation.
type Kind int

const (
	// KindPermanent covers everything not worth retrying.
	KindPermanent Kind = iota
	// KindTransient covers connection-level failures and timeouts.
	KindTransient
	// KindConflict is a duplicate-key violation.
	KindConflict
	// KindAuth is an authentication/authorization failure.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	}
	return "permanent"
}

// Error is a classified sink failure.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sink: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: Classify(err), Err: err}
}

// KindOf returns the classified kind, unwrapping *Error when present.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return Classify(err)
}

// Classify maps driver and network errors onto the closed kind set.
func Classify(err error) Kind {
	if err == nil {
		return KindPermanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	if errors.Is(err, context.Canceled) {
		return KindPermanent
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTransient
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		return KindTransient
	}

	var pqerr *pq.Error
	if errors.As(err, &pqerr) {
		switch {
		case pqerr.Code == "23505":
			return KindConflict
		case pqerr.Code.Class() == "08": // connection exceptions
			return KindTransient
		case pqerr.Code.Class() == "53": // insufficient resources
			return KindTransient
		case pqerr.Code.Class() == "28": // invalid authorization
			return KindAuth
		}
		return KindPermanent
	}

	var sqerr sqlite3.Error
	if errors.As(err, &sqerr) {
		switch sqerr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return KindTransient
		case sqlite3.ErrConstraint:
			return KindConflict
		case sqlite3.ErrAuth:
			return KindAuth
		}
		return KindPermanent
	}

	return KindPermanent
}
