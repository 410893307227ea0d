package busybird

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidArgument = errors.New("invalid argument")

// HTTPError is a non-2xx response.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// APIError is a successful response whose "error" field was set.
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: busybird error: %s", e.Op, e.Message)
}

// IsRetryable reports whether repeating the request might succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	if errors.Is(err, ErrInvalidArgument) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
