// Package apperr holds the error taxonomy shared by the core stores.
// Every error returned by the core wraps one of the sentinels below, so
// callers branch with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrPersistence  = errors.New("persistence failure")

	// ErrEmptyOrder is returned by checkout when no table is active or its order is empty.
	ErrEmptyOrder = fmt.Errorf("%w: empty order", ErrInvalidState)
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound reports that an id of the given kind ("product", "stock item" ...) did not resolve.
func NotFound(kind string, id uint) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
}

func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
