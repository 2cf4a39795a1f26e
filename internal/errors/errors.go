package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	// ErrValidation is a client-detectable input problem. It never reaches
	// the network.
	ErrValidation = "VALIDATION"
	// ErrRequest is a network or HTTP failure. Retryable by user action.
	ErrRequest = "REQUEST"
	// ErrConflict is a server-enforced invariant violation, e.g. deleting
	// the last remaining admin.
	ErrConflict = "CONFLICT"
	// ErrConfig is a configuration problem.
	ErrConfig = "CONFIG"
	// ErrExport is a failure while writing an export document.
	ErrExport = "EXPORT"
)

// Error represents a structured error with code, message, suggestion, and
// optional cause. Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Field      string // field path for validation errors, e.g. "username"
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// NewValidation creates a validation error tied to a specific input field.
func NewValidation(field, message string) *Error {
	return &Error{
		Code:    ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrRequest code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrRequest,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface with formatted output.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var mErr *Error
	if errors.As(err, &mErr) {
		return mErr.Code == code
	}
	return false
}

// FieldOf returns the field path of a validation error, or "" when the error
// carries none.
func FieldOf(err error) string {
	var mErr *Error
	if errors.As(err, &mErr) {
		return mErr.Field
	}
	return ""
}
