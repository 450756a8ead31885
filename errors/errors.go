// Package errors provides error handling for scholarfed.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// Usage:
//
//	// Wrap with context
//	if err := rows.Err(); err != nil {
//	    return errors.Wrap(err, "failed to iterate categories")
//	}
//
//	// Mark a transport failure so the engine can tell it apart
//	return errors.Mark(err, errors.ErrBackendUnavailable)
//
//	// Check errors
//	if errors.IsBackendUnavailable(err) {
//	    // degrade to an empty result
//	}
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
	Mark         = crdb.Mark
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
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// GetStack returns the reportable stack trace attached to err, if any.
var GetStack = crdb.GetReportableStackTrace

// Sentinel errors shared by the adapters and loaders.
// Use these with errors.Is() and wrap them with errors.Wrap() or errors.Mark()
// to add context while preserving the type.
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates malformed input (bad source file, empty path)
	ErrInvalidRequest = New("invalid request")

	// ErrBackendUnavailable indicates a store could not be reached or answered with a failure
	ErrBackendUnavailable = New("backend unavailable")

	// ErrMalformedRow indicates a backend row could not be mapped to a record
	ErrMalformedRow = New("malformed row")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsBackendUnavailable checks if an error is or wraps ErrBackendUnavailable
func IsBackendUnavailable(err error) bool {
	return err != nil && Is(err, ErrBackendUnavailable)
}

// IsMalformedRow checks if an error is or wraps ErrMalformedRow
func IsMalformedRow(err error) bool {
	return err != nil && Is(err, ErrMalformedRow)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

// WrapBackendUnavailable marks err as a backend failure and adds context
func WrapBackendUnavailable(err error, context string) error {
	if err == nil {
		return nil
	}
	return Wrap(Mark(err, ErrBackendUnavailable), context)
}
