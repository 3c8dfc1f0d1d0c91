package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Fetch for a 404. The typed wrappers turn it
	// into a nil result.
	ErrNotFound = errors.New("resource not found upstream")

	// ErrCredentialsInvalid is returned for every call to an endpoint family
	// after upstream rejected the API key, until ResetCredentials is called.
	ErrCredentialsInvalid = errors.New("upstream credentials invalid")
)

// RequestError is a permanent 400. Upstream considers the identifiers in the
// request malformed, so retrying cannot help.
type RequestError struct {
	Endpoint string
	Params   []string
	Body     string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("bad request to %s %v: %s", e.Endpoint, e.Params, e.Body)
}

// UpstreamError is returned once the retry budget is spent on 5xx or network
// failures, or for an unexpected status that is not retried.
type UpstreamError struct {
	Endpoint   string
	StatusCode int // 0 for network failures
	Attempts   int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s failed after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s failed after %d attempts: status %d", e.Endpoint, e.Attempts, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
