package errors

import (
	"errors"
	"fmt"
)

// Generic error kinds

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")
)

// Exchange-specific errors

var (
	// ErrExchangeUnavailable indicates the exchange API could not be reached
	ErrExchangeUnavailable = errors.New("exchange unavailable")

	// ErrRateLimitExceeded indicates API rate limit exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Payload errors

var (
	// ErrShapeMismatch indicates an upstream payload did not have the expected structure
	ErrShapeMismatch = errors.New("unexpected payload shape")

	// ErrMissingField indicates a required field was absent from an upstream payload
	ErrMissingField = errors.New("required field missing")
)

// ShapeError reports which field of an upstream payload broke the expected contract
type ShapeError struct {
	Field    string
	Expected string
	Got      string
	Err      error
}

// Error implements the error interface
func (e *ShapeError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("%v: %s (expected %s)", e.Err, e.Field, e.Expected)
	}
	return fmt.Sprintf("%v: %s should be %s, got %s", e.Err, e.Field, e.Expected, e.Got)
}

// Unwrap returns the wrapped error
func (e *ShapeError) Unwrap() error {
	return e.Err
}

// NewShapeError creates an error for a field of the wrong type
func NewShapeError(field, expected, got string) *ShapeError {
	return &ShapeError{Field: field, Expected: expected, Got: got, Err: ErrShapeMismatch}
}

// NewMissingFieldError creates an error for an absent required field
func NewMissingFieldError(field string) *ShapeError {
	return &ShapeError{Field: field, Expected: "present", Err: ErrMissingField}
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}
