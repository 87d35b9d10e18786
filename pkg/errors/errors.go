// Package errors provides structured error types for nccs.
//
// Every condition that must halt a run carries a [Code] so the CLI (and any
// external collaborator driving the library) can tell a configuration
// mistake from a network failure or a data consistency violation without
// parsing messages.
//
// # Error Codes
//
//   - MISSING_URL: no registry entry for a requested form and year
//   - INVALID_URL: a download endpoint served an HTML "not found" page
//   - NETWORK_ERROR: transport failures and non-success HTTP statuses
//   - TABLE_UNAVAILABLE: no cache tier and no live connection could serve a table
//   - DUPLICATE_KEY: an identifier appeared twice where it must be unique
//   - UNSUPPORTED: a file type no reader understands
//   - INVALID_INPUT: malformed caller input (bad identifiers, bad config)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingURL, "no URL for year %d, form %s", year, form)
//	if errors.Is(err, errors.ErrCodeMissingURL) {
//	    // operator needs to edit the registry
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors
	ErrCodeMissingURL   Code = "MISSING_URL"
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// Network errors
	ErrCodeInvalidURL Code = "INVALID_URL"
	ErrCodeNetwork    Code = "NETWORK_ERROR"

	// Resource availability
	ErrCodeTableUnavailable Code = "TABLE_UNAVAILABLE"

	// Consistency violations
	ErrCodeDuplicateKey Code = "DUPLICATE_KEY"

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

// Fatal reports whether err belongs to one of the categories that
// terminate a run by design. Anything else reaching the CLI, uncoded
// errors and INTERNAL_ERROR included, is reported as an unexpected failure.
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeMissingURL, ErrCodeInvalidURL, ErrCodeNetwork,
		ErrCodeTableUnavailable, ErrCodeDuplicateKey,
		ErrCodeUnsupported, ErrCodeInvalidInput:
		return true
	}
	return false
}
