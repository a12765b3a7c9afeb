// Package apperr holds the error taxonomy shared by services, repositories
// and handlers. Handlers translate these values into HTTP responses; the
// layers below only ever wrap them.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing row and a row the caller does not
	// own. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized means no usable credential was presented.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict is returned on duplicate registration.
	ErrConflict = errors.New("conflict")

	// ErrStoreUnavailable matches every StoreError.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrMissingField      = errors.New("missing field")
	ErrInvalidParameter  = errors.New("invalid parameter")
)

// ValidationError reports bad input detected before any store call. Kind is
// one of ErrInvalidCoordinate, ErrMissingField or ErrInvalidParameter.
type ValidationError struct {
	Field string
	Kind  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Kind)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// Invalid is shorthand for building a ValidationError.
func Invalid(field string, kind error) error {
	return &ValidationError{Field: field, Kind: kind}
}

// StoreError wraps a failure reported by the data store. The original error
// is kept untouched for logging; callers only learn that the store failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStoreUnavailable) true for any StoreError.
func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// Store wraps err as a StoreError. A nil err stays nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
