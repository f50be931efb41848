package domain

import (
	"errors"
	"fmt"
)

// Lookup errors shared by the stores.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrNoteNotFound = errors.New("note not found")
	ErrInvalidID    = errors.New("malformed id")
)

// ErrValidation is the kind of every *ValidationError.
var ErrValidation = errors.New("validation error")

// ValidationError reports a payload field that failed a domain invariant.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
