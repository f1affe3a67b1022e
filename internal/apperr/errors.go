// Package apperr holds the error taxonomy shared by services and transports.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUpstream     = errors.New("upstream failure")
)

// Upstream marks err as a data-access failure. The original error stays in
// the chain so callers can still inspect it.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
