// Package errors provides standardized error handling for isoreplay
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages
var (
	// ErrNotFound indicates a requested resource doesn't exist
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a resource already exists
	ErrConflict = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedTestCase indicates a test case whose parallel sequences disagree
	ErrMalformedTestCase = errors.New("malformed test case")

	// ErrSessionNotFound indicates no session was opened for a transaction id
	ErrSessionNotFound = errors.New("session not found")
)

// Error represents a domain error with additional context
type Error struct {
	// Code is a machine-readable error code
	Code string
	// Message is a human-readable error description
	Message string
	// Op describes the operation that failed
	Op string
	// Err is the underlying error
	Err error
}

// Error implements the error interface with a formatted message
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain handling
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given details
func NewError(code string, message string, op string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// Malformed builds a MALFORMED error wrapping ErrMalformedTestCase
func Malformed(op string, format string, args ...interface{}) *Error {
	return NewError("MALFORMED", fmt.Sprintf(format, args...), op, ErrMalformedTestCase)
}

// IsNotFound returns true if err represents a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if err represents a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidInput returns true if err represents an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMalformed returns true if err represents a malformed test case
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedTestCase)
}
