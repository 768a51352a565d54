package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrorCategory classifies API failures for retry decisions and for the
// typed error surfaced to clients.
type ErrorCategory string

const (
	CategoryRateLimit  ErrorCategory = "rate_limit"
	CategoryConnection ErrorCategory = "connection_error"
	CategoryTimeout    ErrorCategory = "timeout"
	CategoryOverloaded ErrorCategory = "overloaded"
	CategoryClient     ErrorCategory = "client_error"
	CategoryUnknown    ErrorCategory = "unknown"
)

// APIError is a failed call to the Messages API.
type APIError struct {
	Category   ErrorCategory
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm: %s (HTTP %d): %s", e.Category, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: %s: %s", e.Category, e.Message)
}

// Retryable reports whether another attempt may succeed.
func (e *APIError) Retryable() bool {
	switch e.Category {
	case CategoryRateLimit, CategoryOverloaded, CategoryConnection, CategoryTimeout:
		return true
	case CategoryUnknown:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// classifyStatus maps a non-2xx response to an APIError.
func classifyStatus(statusCode int, message string, retryAfter time.Duration) *APIError {
	e := &APIError{StatusCode: statusCode, Message: message, RetryAfter: retryAfter}
	switch {
	case statusCode == http.StatusTooManyRequests:
		e.Category = CategoryRateLimit
	case statusCode == 529 || statusCode == http.StatusServiceUnavailable:
		e.Category = CategoryOverloaded
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		e.Category = CategoryTimeout
	case statusCode >= 400 && statusCode < 500:
		e.Category = CategoryClient
	default:
		e.Category = CategoryUnknown
	}
	return e
}

// classifyTransport maps a failed round trip (no HTTP response) to an
// APIError.
func classifyTransport(err error) *APIError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &APIError{Category: CategoryTimeout, Message: err.Error()}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &APIError{Category: CategoryTimeout, Message: err.Error()}
	default:
		return &APIError{Category: CategoryConnection, Message: err.Error()}
	}
}
