package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies errors across the pipeline
type ErrorType string

const (
	// Input and partitioning errors
	ErrorTypeInputMissing     ErrorType = "input_missing"
	ErrorTypeInvalidBatchSize ErrorType = "invalid_batch_size"

	// Runner and checkpoint errors
	ErrorTypeRow               ErrorType = "row"
	ErrorTypeQuotaExceeded     ErrorType = "quota_exceeded"
	ErrorTypeFatal             ErrorType = "fatal"
	ErrorTypeCheckpointCorrupt ErrorType = "checkpoint_corrupt"

	// Combiner errors
	ErrorTypeIncompleteBatches ErrorType = "incomplete_batches"

	// API adapter errors
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a typed pipeline error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a typed error
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf creates a typed error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// NewWithCode creates a typed error carrying an HTTP status code
func NewWithCode(errType ErrorType, code int, message string) *Error {
	return &Error{Type: errType, Message: message, Code: code}
}

// TypeOf returns the ErrorType of err, unwrapping as needed.
// Untyped errors report ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given error type
func Is(err error, errType ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errType
	}
	return false
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}
