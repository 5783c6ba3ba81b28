package fetch

import (
	"errors"
	"fmt"

	"github.com/benthic/benthic/internal/domain"
)

var (
	// ErrCancelled is returned when the caller's context ends while a fetch is outstanding
	ErrCancelled = errors.New("fetch cancelled")

	// ErrClosed is returned by a fetcher whose run has ended
	ErrClosed = errors.New("fetcher closed")

	// ErrResponseTooLarge is wrapped in a NetworkError when a body exceeds MaxResponseSize
	ErrResponseTooLarge = errors.New("response exceeds maximum size")
)

// NetworkError reports a transport failure: unreachable host, broken
// connection, oversized body or timeout.
type NetworkError struct {
	URL     string
	Err     error
	timeout bool
}

func (e *NetworkError) Error() string {
	if e.timeout {
		return fmt.Sprintf("timed out fetching %s", e.URL)
	}
	return fmt.Sprintf("network failure fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is lets callers match any network failure against domain.ErrServerOffline.
func (e *NetworkError) Is(target error) bool { return target == domain.ErrServerOffline }

// Timeout reports whether the fetch ran out of time.
func (e *NetworkError) Timeout() bool { return e.timeout }

// HTTPError represents a non-success HTTP status.
type HTTPError struct {
	StatusCode int
	URL        string
	Status     string
}

// NewHTTPError creates a new HTTPError.
func NewHTTPError(statusCode int, url, status string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, URL: url, Status: status}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Status)
}

// Class is the failure classification of a fetch.
type Class string

const (
	ClassNone               Class = ""
	ClassNetworkUnreachable Class = "network_unreachable"
	ClassHTTPError          Class = "http_error"
	ClassTimeout            Class = "timeout"
	ClassCancelled          Class = "cancelled"
)

// Classify maps a Fetch error onto its failure class. Errors that did not
// come from a fetcher classify as ClassNone.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrCancelled) {
		return ClassCancelled
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ClassHTTPError
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetworkUnreachable
	}
	return ClassNone
}

// IsNetworkFailure reports whether err is a network failure in the broad
// sense: unreachable, timed out, or answered with a non-success status.
func IsNetworkFailure(err error) bool {
	switch Classify(err) {
	case ClassNetworkUnreachable, ClassHTTPError, ClassTimeout:
		return true
	default:
		return false
	}
}
