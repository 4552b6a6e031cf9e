package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record, action item or notification does not exist
	ErrNotFound = errors.New("not found")
	// ErrTerminalState is wrapped by validation errors on closed or rejected records
	ErrTerminalState = errors.New("record is in a terminal state")
)

// ValidationError rejects an operation synchronously. Nothing is committed.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for field
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
