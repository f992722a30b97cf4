package source

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by knowledge graph backends.
var (
	// ErrNotFound indicates a referenced node no longer resolves.
	ErrNotFound = errors.New("node not found")

	// ErrTransport indicates a network or service failure. The operation may
	// be retried from scratch.
	ErrTransport = errors.New("knowledge graph transport error")

	// ErrRejected indicates the service refused the request itself, such as
	// an unknown kind or an empty seed list. Retrying cannot help.
	ErrRejected = errors.New("request rejected by knowledge graph service")
)

// APIError represents an error response from a remote knowledge graph service.
type APIError struct {
	StatusCode int
	Message    string
	ID         string // Node ID for context, if any
}

func (e *APIError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("knowledge graph API error (status %d): %s (node: %s)", e.StatusCode, e.Message, e.ID)
	}
	return fmt.Sprintf("knowledge graph API error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap classifies the error. 404 is ErrNotFound. 408, 429 and every
// status outside 4xx are ErrTransport. Other 4xx statuses are ErrRejected.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return ErrTransport
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return ErrRejected
	default:
		return ErrTransport
	}
}

// NotFound returns an ErrNotFound wrapped with the node ID.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Transport wraps err as a transport failure.
func Transport(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// IsNotFound returns true if the error indicates a node was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRejected reports whether the service refused the request as invalid.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsTransport returns true if the error indicates a network or service failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
