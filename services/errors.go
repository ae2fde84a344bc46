package services

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable wraps any ledger or set failure. The attempt is dropped, never retried.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidInput marks malformed identifiers or out-of-range admin parameters.
	ErrInvalidInput = errors.New("invalid input")

	ErrSessionNotFound = errors.New("submission session not found")
	ErrSessionClosed   = errors.New("submission session no longer accepts input")
	ErrNotSessionOwner = errors.New("submission session belongs to another user")
)

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
