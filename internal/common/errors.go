// Package common defines shared sentinel errors used across the fxkeeper
// storage, identity and rate layers. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrStorageFault marks unexpected I/O or schema failures. The wrapped
	// driver text is meant for logs, not for end users.
	ErrStorageFault = errors.New("storage fault")

	// ErrSchemaTooNew is returned when the database was written by a newer
	// build. Such a store must not be opened.
	ErrSchemaTooNew = errors.New("database schema is newer than this build")

	// Caller errors, not retryable.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrValidation      = errors.New("validation error")

	// Remote rate source unreachable or erroring.
	ErrUnavailable = errors.New("rate source unavailable")

	// Session errors.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// StorageFault wraps a low-level error with the operation that failed.
// The result matches both ErrStorageFault and err.
func StorageFault(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFault, op, err)
}
