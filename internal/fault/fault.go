// Package fault classifies errors crossing the aggregator boundary so
// callers can decide between retrying, aborting, and deactivating.
package fault

import (
	"errors"
	"fmt"
)

// Class partitions failures by how the caller should react.
type Class int

const (
	// ClassUnknown is the class of errors not produced by this package.
	ClassUnknown Class = iota
	// ClassInvalidInput marks caller mistakes. Retrying never helps.
	ClassInvalidInput
	// ClassRetryable marks transient failures such as rate limiting
	// and provider outages.
	ClassRetryable
	// ClassTerminal marks failures that require human or user action,
	// such as revoked credentials.
	ClassTerminal
)

func (c Class) String() string {
	switch c {
	case ClassInvalidInput:
		return "invalid_input"
	case ClassRetryable:
		return "retryable"
	case ClassTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Well-known kinds attached to classified errors.
const (
	KindRateLimit          = "rate_limit"
	KindNetwork            = "network"
	KindProviderDown       = "provider_down"
	KindInvalidCredentials = "invalid_credentials"
	KindItemRevoked        = "item_revoked"
	KindMalformedItem      = "malformed_item"
)

// Error is a classified error. Kind is optional and only meaningful
// for retryable and terminal errors.
type Error struct {
	Class Class
	Kind  string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Class.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Invalid reports a caller mistake.
func Invalid(format string, args ...any) error {
	return &Error{Class: ClassInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// Retryable wraps err as a transient failure of the given kind.
func Retryable(kind string, err error) error {
	return &Error{Class: ClassRetryable, Kind: kind, Err: err}
}

// Terminal wraps err as a permanent failure of the given kind.
func Terminal(kind string, err error) error {
	return &Error{Class: ClassTerminal, Kind: kind, Err: err}
}

// ClassOf returns the class of err, or ClassUnknown if err was never
// classified.
func ClassOf(err error) Class {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Class
	}
	return ClassUnknown
}

// KindOf returns the kind of err, or the empty string.
func KindOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsRetryable reports whether err may succeed on a later attempt.
func IsRetryable(err error) bool {
	return ClassOf(err) == ClassRetryable
}

// IsTerminal reports whether err requires user action before the item
// can sync again.
func IsTerminal(err error) bool {
	return ClassOf(err) == ClassTerminal
}
