// Package errors provides structured error types for wmscap.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the proxy server and the library
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND / NO_*: Missing data in a capabilities document
//   - NETWORK_ERROR, HTTP_STATUS: Transport failures
//   - PARSE_ERROR: XML decoding failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidURL, "unsupported scheme %q", scheme)
//	if errors.Is(err, errors.ErrCodeInvalidURL) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "decode capabilities")
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidURL       Code = "INVALID_URL"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidDimension Code = "INVALID_DIMENSION"

	// Capabilities content errors
	ErrCodeNoDimension       Code = "NO_DIMENSION"
	ErrCodeDimensionNotFound Code = "DIMENSION_NOT_FOUND"
	ErrCodeLayerNotFound     Code = "LAYER_NOT_FOUND"

	// Network errors
	ErrCodeNetwork    Code = "NETWORK_ERROR"
	ErrCodeHTTPStatus Code = "HTTP_STATUS"

	// Decoding errors
	ErrCodeParse            Code = "PARSE_ERROR"
	ErrCodeResponseTooLarge Code = "RESPONSE_TOO_LARGE"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// Find returns the first *Error in err's chain carrying code, or nil. Unlike
// [Is], it keeps unwrapping past coded errors with a different code, so a
// FORBIDDEN raised deep inside a NETWORK_ERROR is still found.
func Find(err error, code Code) *Error {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return e
		}
		err = errors.Unwrap(err)
	}
	return nil
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

// ValidateURL checks that rawURL is a non-empty http or https URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}
	return nil
}
