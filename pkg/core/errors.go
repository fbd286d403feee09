package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, empty_status, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches another ExecutionError by code, so wrapped copies still compare
// equal to the predefined errors below.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	ErrEmptyStatus = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "empty_status",
		Message:  "status field is empty",
	}
	ErrUnexpectedStatus = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "unexpected_status",
		Message:  "status field should be empty",
	}
	ErrAssertionFailed = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "assertion_failed",
		Message:  "event assertion failed",
	}
	ErrNoEvent = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "no_event",
		Message:  "no event captured yet",
	}

	ErrInvalidPayload = &ExecutionError{
		Category: ErrCategoryPayload,
		Code:     "invalid_payload",
		Message:  "status field does not contain a JSON event",
	}

	ErrSessionCreate = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "session_create_failed",
		Message:  "could not create automation session",
	}
	ErrTransport = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "transport",
		Message:  "automation server request failed",
	}

	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}

	ErrFetchFailed = &ExecutionError{
		Category: ErrCategoryAPI,
		Code:     "fetch_failed",
		Message:  "could not fetch event from Sentry",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// CategoryOf returns the category of err, or ErrCategoryConnection for
// unstructured errors (those come straight from the transport).
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	return ErrCategoryConnection
}
