package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a provider API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	// Reset is when the provider says the rate-limit window reopens; zero if unknown
	Reset time.Time
}

func (e *Error) Error() string {
	return fmt.Sprintf("twitter %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed provider error
func New(errorType ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

// Crawl-level failures that are not provider errors
var (
	// ErrInvalidSeed is returned when the seed id is not an integer
	ErrInvalidSeed = errors.New("invalid seed id")

	// ErrOutputUnavailable is returned when the output log cannot be opened or written
	ErrOutputUnavailable = errors.New("output unavailable")
)

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// IsRateLimit reports whether err signals a provider rate limit
func IsRateLimit(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Type == ErrorTypeRateLimit
}

// ResetOf returns the reset hint carried by a rate-limit error, or the zero time
func ResetOf(err error) time.Time {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Reset
	}
	return time.Time{}
}

// IsProviderError reports whether err is any provider error other than a rate limit
func IsProviderError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Type != ErrorTypeRateLimit
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing:
		return false
	default:
		return false
	}
}
