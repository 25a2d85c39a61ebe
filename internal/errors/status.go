package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// StatusError represents a non-2xx answer from an external API
type StatusError struct {
	Source     string
	StatusCode int
	Body       string // Trimmed excerpt of the response body, may be empty
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s returned HTTP %d: %s", e.Source, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s returned HTTP %d", e.Source, e.StatusCode)
}

// RateLimited reports whether the upstream asked us to slow down.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// NewStatusError creates a new StatusError for the given source
func NewStatusError(source string, statusCode int, body string) *StatusError {
	return &StatusError{
		Source:     source,
		StatusCode: statusCode,
		Body:       body,
	}
}

// IsStatusError checks if error is a StatusError
func IsStatusError(err error) bool {
	var statusErr *StatusError
	return stdErrors.As(err, &statusErr)
}
