// Package errs provides structured error types for the sitecoach backend.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrUnauthorized             = errors.New("unauthorized")
	ErrNotFound                 = errors.New("resource not found")
	ErrInvalidInput             = errors.New("invalid input")
	ErrUnavailable              = errors.New("upstream service unavailable")
	ErrMalformedSpecification   = errors.New("malformed specification")
	ErrInsufficientConversation = errors.New("insufficient conversation")
	ErrInvalidStatus            = errors.New("invalid deployment status")
)

// APIError represents an error from an external API call.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError creates a new API error.
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{Service: service, StatusCode: statusCode, Message: message}
}

// IsRetryable returns true if the error is likely transient and worth retrying.
// Retries remain the caller's responsibility.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrUnavailable)
}
