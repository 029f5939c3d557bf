package services

import (
	"errors"
	"fmt"
)

// Service operations report failures as one of three typed outcomes so
// handlers can map them to status codes without string matching:
// validation (bad input / out-of-policy slot), conflict (slot taken or
// illegal state transition) and not-found (unknown id).

// ValidationError marks input that can never succeed as given.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError marks a business-rule violation: an occupied slot or a
// forbidden state transition. The caller may retry with different input.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError marks an unknown appointment, patient or doctor id.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func conflictErrorf(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func notFoundErrorf(format string, args ...interface{}) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}
