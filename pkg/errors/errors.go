// Package errors provides structured error types for annograph.
//
// Every failure in a traversal is local to the branch that produced it. The
// codes defined here let callers tell those failures apart without string
// matching, and let the registry record them as diagnostics:
//   - NETWORK_ERROR: transport failure (DNS, refused connection, timeout)
//   - HTTP_ERROR: non-2xx response; the status is available via [StatusOf]
//   - PARSE_ERROR: the body is not a well-formed document
//   - EXPANSION_ERROR: the JSON-LD processor rejected the document
//   - VALIDATION_ERROR: wrong or missing declared type, or missing target
//   - MALFORMED_URI: a reference that cannot be parsed as a URI
//
// # Usage
//
//	err := errors.New(errors.ErrCodeValidation, "annotation has no target")
//	if errors.Is(err, errors.ErrCodeValidation) {
//	    // discard the resource
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "GET %s", uri)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the traversal engine.
const (
	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeHTTP         Code = "HTTP_ERROR"
	ErrCodeParse        Code = "PARSE_ERROR"
	ErrCodeExpansion    Code = "EXPANSION_ERROR"
	ErrCodeValidation   Code = "VALIDATION_ERROR"
	ErrCodeMalformedURI Code = "MALFORMED_URI"
)

// Error codes for the outer surfaces (CLI, config, server).
const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeInternal      Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Status  int    // HTTP status for ErrCodeHTTP, zero otherwise
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

// HTTPStatus creates an ErrCodeHTTP error carrying the response status.
func HTTPStatus(status int, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeHTTP,
		Message: fmt.Sprintf(format, args...),
		Status:  status,
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

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
