package remote

import (
	"errors"
	"fmt"
)

// Kind classifies why a remote call failed.
type Kind string

const (
	KindTransport    Kind = "transport"    // network error or timeout
	KindUnavailable  Kind = "unavailable"  // circuit breaker open
	KindRemote       Kind = "remote"       // remote answered with an error status
	KindNotFound     Kind = "not_found"    // single row requested, none returned
	KindUnauthorized Kind = "unauthorized" // token missing, expired or rejected
	KindDecode       Kind = "decode"       // response body did not match the expected shape
)

// Error is the typed failure every remote wrapper returns.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("remote %s %s (status %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("remote %s %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, or "" if err is not a remote error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// IsRejected reports whether the remote service was reachable and refused
// the request (as opposed to being unreachable).
func IsRejected(err error) bool {
	switch KindOf(err) {
	case KindRemote, KindNotFound, KindUnauthorized:
		return true
	}
	return false
}
