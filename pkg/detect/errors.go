package detect

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrThrottled is returned when a detect call lands inside the
	// gateway's minimum-interval window. It is a no-op signal, not a
	// failure: the caller simply skips this cycle.
	ErrThrottled = errors.New("detect: throttled")

	// ErrNoBackends is returned when a gateway is built with no backends.
	ErrNoBackends = errors.New("detect: no backends configured")

	// ErrEmptyFrame is returned when a request carries no image bytes.
	ErrEmptyFrame = errors.New("detect: empty frame")

	// ErrBadPayload is returned when a backend response cannot be parsed.
	ErrBadPayload = errors.New("detect: malformed backend payload")
)

// APIError represents an error response from a detection API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Backend identifies which backend returned the error.
	Backend string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("detect [%s]: API error %d: %s", e.Backend, e.StatusCode, e.Message)
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRateLimited returns true if this is a rate limit error (HTTP 429).
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// BackendError wraps an error with backend context.
type BackendError struct {
	Backend string
	Err     error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("detect [%s]: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with backend context.
func WrapError(backend string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Backend: backend, Err: err}
}

// ChainError aggregates errors from every backend in a fallback chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "detect chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("detect chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("detect chain: all %d backends failed, last error: %v",
		len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns the last error in the chain.
func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}
