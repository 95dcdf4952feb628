package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the user accounts domain. Handlers translate these into
// HTTP statuses in one place; everything below the handler layer wraps them.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInternal           = errors.New("internal error")
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func NewAlreadyExists(msg string) error {
	return fmt.Errorf("%w: %s", ErrAlreadyExists, msg)
}

func NewNotFound(msg string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, msg)
}

// WrapInternal hides the cause from clients while keeping it for logs.
func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool    { return errors.Is(err, ErrInvalidArgument) }
func IsAlreadyExists(err error) bool      { return errors.Is(err, ErrAlreadyExists) }
func IsNotFound(err error) bool           { return errors.Is(err, ErrNotFound) }
func IsInvalidCredentials(err error) bool { return errors.Is(err, ErrInvalidCredentials) }
func IsInternal(err error) bool           { return errors.Is(err, ErrInternal) }

// Message returns the client-facing text of a domain error, without the
// sentinel prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	for _, sentinel := range []error{ErrInvalidArgument, ErrAlreadyExists, ErrNotFound, ErrInvalidCredentials, ErrInternal} {
		if prefix := sentinel.Error() + ": "; strings.HasPrefix(s, prefix) {
			return strings.TrimPrefix(s, prefix)
		}
	}
	return s
}
