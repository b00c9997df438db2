// Package errors provides error handling for umi.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := store.Refresh(); err != nil {
//	    return errors.Wrap(err, "failed to refresh wildcards")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "check wildcards.dir in am.toml")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetStack returns the reportable stack trace attached to err, if any.
var GetStack = crdb.GetReportableStackTrace

// Generic sentinels shared by the host adapters.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")
)

// Resolution failure taxonomy. None of these abort a batch: the resolver
// logs them and degrades (literal placeholder, empty string, plain choice).
var (
	// ErrMissingSource: a referenced list, structured file or entry does not exist
	ErrMissingSource = New("missing source")

	// ErrMalformedStructure: a structured source or one of its entries has the wrong shape
	ErrMalformedStructure = New("malformed structure")

	// ErrMalformedRange: a quantity/range prefix could not be parsed
	ErrMalformedRange = New("malformed range")

	// ErrCycleDetected: a key was reached again while its own expansion was in flight
	ErrCycleDetected = New("cycle detected")

	// ErrRunawayResolution: a key exceeded the per-session hit threshold
	ErrRunawayResolution = New("runaway resolution")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound or ErrMissingSource.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return IsAny(err, ErrNotFound, ErrMissingSource)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

// MissingSource wraps ErrMissingSource with the key that could not be resolved.
func MissingSource(key string) error {
	return Wrapf(ErrMissingSource, "%q", key)
}

// MalformedRange wraps ErrMalformedRange with the offending range text.
func MalformedRange(spec string) error {
	return Wrapf(ErrMalformedRange, "%q", spec)
}
