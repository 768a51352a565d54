package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a session does not exist
	ErrNotFound = errors.New("session not found")

	// ErrAlreadyExists is returned when attempting to create a duplicate session
	ErrAlreadyExists = errors.New("session already exists")

	// ErrSessionBusy is returned when a turn is already running for the session
	ErrSessionBusy = errors.New("a turn is already in progress for this session")

	// ErrSessionClosed is returned when the session is in a terminal status
	ErrSessionClosed = errors.New("session is closed")

	// ErrNotCancellable is returned when cancelling a session that already ended
	ErrNotCancellable = errors.New("session is not cancellable")

	// ErrAwaitingInput is returned when streaming a session that is paused on a review
	ErrAwaitingInput = errors.New("session is awaiting user input")

	// ErrNotAwaitingInput is returned when input arrives outside a review pause
	ErrNotAwaitingInput = errors.New("session is not awaiting user input")
)

// ValidationError wraps field-specific validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
