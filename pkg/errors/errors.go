// Package errors provides structured error types for IronLog.
//
// Errors carry a code for categorization and a retry flag. Functions return
// retryable errors to the trigger so Pub/Sub redelivers the event.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique error identifier for categorization.
type ErrorCode string

const (
	// Event errors
	CodeInvalidEvent ErrorCode = "INVALID_EVENT"

	// Progression errors
	CodeInvalidPolicy ErrorCode = "INVALID_POLICY"

	// Infrastructure errors
	CodeStorageError  ErrorCode = "STORAGE_ERROR"
	CodePubSubError   ErrorCode = "PUBSUB_ERROR"
	CodeArtifactError ErrorCode = "ARTIFACT_ERROR"

	// General errors
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternalError   ErrorCode = "INTERNAL_ERROR"
)

// IronLogError is the base error type for all IronLog errors.
type IronLogError struct {
	Code      ErrorCode         // Unique error code for categorization
	Message   string            // Human-readable error message
	Cause     error             // Underlying error (if any)
	Retryable bool              // Whether the operation can be retried
	Metadata  map[string]string // Additional context
}

// Error implements the error interface.
func (e *IronLogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *IronLogError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by code.
func (e *IronLogError) Is(target error) bool {
	t, ok := target.(*IronLogError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *IronLogError) WithCause(cause error) *IronLogError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithMetadata adds contextual metadata.
func (e *IronLogError) WithMetadata(key, value string) *IronLogError {
	c := e.clone()
	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	c.Metadata = meta
	return c
}

func (e *IronLogError) clone() *IronLogError {
	return &IronLogError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// Pre-defined sentinel errors for common cases.
// Use these with errors.Is() or wrap them with .WithCause().
var (
	ErrInvalidEvent = &IronLogError{Code: CodeInvalidEvent, Message: "invalid event payload", Retryable: false}

	ErrInvalidPolicy = &IronLogError{Code: CodeInvalidPolicy, Message: "invalid progression policy", Retryable: false}

	ErrStorageError  = &IronLogError{Code: CodeStorageError, Message: "storage error", Retryable: true}
	ErrPubSubError   = &IronLogError{Code: CodePubSubError, Message: "pubsub error", Retryable: true}
	ErrArtifactError = &IronLogError{Code: CodeArtifactError, Message: "artifact storage error", Retryable: true}

	ErrValidation = &IronLogError{Code: CodeValidationError, Message: "validation error", Retryable: false}
)

// New creates a new IronLogError with the given code and message.
func New(code ErrorCode, message string) *IronLogError {
	return &IronLogError{
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// NewRetryable creates a new retryable IronLogError.
func NewRetryable(code ErrorCode, message string) *IronLogError {
	return &IronLogError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// Wrap wraps an error with an IronLogError.
func Wrap(cause error, code ErrorCode, message string) *IronLogError {
	return &IronLogError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: false,
	}
}

// WrapRetryable wraps an error with a retryable IronLogError.
func WrapRetryable(cause error, code ErrorCode, message string) *IronLogError {
	return &IronLogError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// IsRetryable checks if an error, or any error it wraps, is retryable.
func IsRetryable(err error) bool {
	var ilErr *IronLogError
	if stderrors.As(err, &ilErr) {
		return ilErr.Retryable
	}
	return false
}

// GetCode extracts the error code from an error, if available.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ilErr *IronLogError
	if stderrors.As(err, &ilErr) {
		return ilErr.Code
	}
	return CodeInternalError
}
