// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Sheet errors
	ErrSheetUnavailable = &Error{Code: "SHEET_UNAVAILABLE", Message: "spreadsheet API unavailable"}
	ErrRangeNotFound    = &Error{Code: "RANGE_NOT_FOUND", Message: "sheet range not found"}
	ErrRangeInvalid     = &Error{Code: "RANGE_INVALID", Message: "sheet range name invalid"}

	// Auth errors
	ErrInvalidCredentials = &Error{Code: "INVALID_CREDENTIALS", Message: "email or password incorrect"}
	ErrTokenInvalid       = &Error{Code: "TOKEN_INVALID", Message: "session token invalid or expired"}

	// Assistant errors
	ErrAssistantFailed = &Error{Code: "ASSISTANT_FAILED", Message: "assistant request failed"}
	ErrModelNotFound   = &Error{Code: "MODEL_NOT_FOUND", Message: "requested model not available"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Archive errors
	ErrSnapshotNotFound = &Error{Code: "SNAPSHOT_NOT_FOUND", Message: "snapshot not found"}

	// Request errors
	ErrBadRequest = &Error{Code: "BAD_REQUEST", Message: "request body invalid"}
)
