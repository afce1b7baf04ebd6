package parser

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorType classifies fetch failures for logging and metrics labels.
type ErrorType string

const (
	ErrTypeNetwork ErrorType = "network"
	ErrTypeTimeout ErrorType = "timeout"
	ErrTypeStatus  ErrorType = "status"
	ErrTypeParse   ErrorType = "parse"
)

// FetchError represents a classified failure to fetch one source.
type FetchError struct {
	Type       ErrorType
	StatusCode int
	URL        string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d for %s", e.Type, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("fetch %s: %v for %s", e.Type, e.Cause, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// ErrorTypeOf extracts the classification of err, or "" when err is not a FetchError.
func ErrorTypeOf(err error) ErrorType {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Type
	}
	return ""
}

func classifyStatus(statusCode int, url string) *FetchError {
	return &FetchError{
		Type:       ErrTypeStatus,
		StatusCode: statusCode,
		URL:        url,
		Cause:      fmt.Errorf("HTTP %d", statusCode),
	}
}

func classifyRequestError(cause error, url string) *FetchError {
	var netErr net.Error
	if errors.Is(cause, context.DeadlineExceeded) || (errors.As(cause, &netErr) && netErr.Timeout()) {
		return &FetchError{Type: ErrTypeTimeout, URL: url, Cause: cause}
	}
	return &FetchError{Type: ErrTypeNetwork, URL: url, Cause: cause}
}

func classifyParseError(cause error, url string) *FetchError {
	return &FetchError{Type: ErrTypeParse, URL: url, Cause: cause}
}
