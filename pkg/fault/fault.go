// Package fault defines the error taxonomy shared by the design client,
// the model adapters, and the pipeline runner.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the runner can report which contract failed.
type Kind string

const (
	KindUnknown         Kind = "unknown"
	KindInvalidURL      Kind = "invalid_url"
	KindAuth            Kind = "auth"
	KindNotFound        Kind = "not_found"
	KindRateLimit       Kind = "rate_limit"
	KindModel           Kind = "model"
	KindMalformedOutput Kind = "malformed_output"
	KindIO              Kind = "io"
)

// Error wraps an underlying error with a kind and optional HTTP status.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "fault error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (status=%d)", e.Kind, e.Status)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a fault error of the given kind.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Newf creates a fault error of the given kind from a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WithStatus creates a fault error carrying the provider's HTTP status.
func WithStatus(kind Kind, status int, err error) *Error {
	return &Error{Kind: kind, Status: status, Err: err}
}

// KindOf extracts the kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether the error chain contains a fault of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FromStatus maps a provider HTTP status to a kind. Statuses that do not
// indicate a distinct contract failure map to KindModel for model APIs.
func FromStatus(status int) Kind {
	switch status {
	case 401, 403:
		return KindAuth
	case 404:
		return KindNotFound
	case 429:
		return KindRateLimit
	default:
		return KindModel
	}
}

// IsTransient reports whether an error is safe to retry. Rate limits and
// server-side failures are transient; credential and parse failures are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var fe *Error
	if errors.As(err, &fe) {
		if fe.Kind == KindRateLimit {
			return true
		}
		if fe.Status >= 500 && fe.Status <= 599 {
			return true
		}
	}
	return false
}
