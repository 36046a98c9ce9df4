package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// APIError represents a non-2xx response from a remote API.
type APIError struct {
	Source     string
	StatusCode int
	URL        string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API error %d (URL: %s)", e.Source, e.StatusCode, e.URL)
}

// Unwrap maps the status code onto a domain sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return domain.ErrUpstream
	}
}

// Retryable reports whether a request that failed with this error may succeed later.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsRetryable checks whether err is a retryable API error.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}
