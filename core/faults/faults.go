// Package faults defines the tagged error type shared by the retry executor
// and the action queue. Failures are classified once, at the boundary that
// produced them, so downstream code never inspects strings or HTTP codes.
package faults

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies a failure for retry and propagation decisions.
type Kind int

const (
	// KindUnknown marks errors that were never classified. They are treated
	// as permanent.
	KindUnknown Kind = iota
	// KindValidation marks malformed input. Surfaced synchronously, never retried.
	KindValidation
	// KindTransient marks network-unreachable, timeout, 5xx and 429 failures.
	KindTransient
	// KindPermanent marks application-rejected or other 4xx-class failures.
	KindPermanent
	// KindStorage marks durable-store read/write failures. Logged; callers
	// proceed on best-effort in-memory state.
	KindStorage
	// KindPermission marks user-actionable denials such as location access.
	KindPermission
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindStorage:
		return "storage"
	case KindPermission:
		return "permission"
	default:
		return "unknown"
	}
}

// Fault wraps an error with its classification and the operation that
// produced it.
type Fault struct {
	Kind Kind
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// New creates a classified fault with a message.
func New(kind Kind, op, msg string) *Fault {
	return &Fault{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Wrap classifies an existing error. A nil error yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Fault{Kind: kind, Op: op, Err: err}
}

// Transient is shorthand for Wrap(KindTransient, ...).
func Transient(op string, err error) error { return Wrap(KindTransient, op, err) }

// Permanent is shorthand for Wrap(KindPermanent, ...).
func Permanent(op string, err error) error { return Wrap(KindPermanent, op, err) }

// Storage is shorthand for Wrap(KindStorage, ...).
func Storage(op string, err error) error { return Wrap(KindStorage, op, err) }

// FromStatus classifies an HTTP status code. 5xx, 408 and 429 are
// transient; every other non-2xx status is permanent.
func FromStatus(op string, code int, err error) error {
	if err == nil {
		return nil
	}
	if code >= 500 || code == 408 || code == 429 {
		return Wrap(KindTransient, op, err)
	}
	return Wrap(KindPermanent, op, err)
}

// KindOf returns the classification of err. Unclassified errors fall back
// to a small set of heuristics: net.Error timeouts, unreachable-network
// errors and messages containing "timeout" are transient.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTransient
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		return KindTransient
	}
	if strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return KindTransient
	}
	return KindUnknown
}

// Retryable reports whether err is worth retrying with backoff.
func Retryable(err error) bool { return KindOf(err) == KindTransient }
