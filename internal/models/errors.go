package models

import "errors"

// ValidationError reports a field that failed validation before any I/O.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError reports field as invalid with a user-facing message.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func invalid(field, message string) error {
	return NewValidationError(field, message)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
