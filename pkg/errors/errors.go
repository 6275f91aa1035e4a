// Package errors provides structured error types for plasmafractal.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the pipeline and the viewers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - RESOURCE_EXHAUSTED: Allocation failures at every attempted grid size
//   - CANCELLED: Work superseded or aborted by the caller
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "decay out of range: %v", d)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidMapper Code = "INVALID_MAPPER"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodeMapperNotFound Code = "MAPPER_NOT_FOUND"

	// Generation outcomes
	ErrCodeResourceExhausted Code = "RESOURCE_EXHAUSTED"
	ErrCodeCancelled         Code = "CANCELLED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match two *Error values by code, so package-level
// sentinels built with New compare equal to freshly wrapped copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// AllocationError describes a failed grid or buffer allocation at a given
// size exponent. The pipeline treats it as recoverable and retries smaller.
type AllocationError struct {
	Exponent int   // size exponent that failed
	Cells    int   // number of cells requested
	Cause    error // recovered runtime error or budget violation
}

// Error implements the error interface.
func (e *AllocationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("allocate %d cells (n=%d): %v", e.Cells, e.Exponent, e.Cause)
	}
	return fmt.Sprintf("allocate %d cells (n=%d)", e.Cells, e.Exponent)
}

// Unwrap returns the underlying cause.
func (e *AllocationError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *AllocationError) Code() Code {
	return ErrCodeResourceExhausted
}
