package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested thing does not exist in any
// visible graph.
var ErrNotFound = errors.New("not found")

// RejectedQueryError is returned before any network traffic when an
// ad-hoc query fails the SELECT-only check.
type RejectedQueryError struct {
	Reason string
}

func (e *RejectedQueryError) Error() string {
	return "query rejected: " + e.Reason
}

// IsRejected returns true if the error is a pre-network query rejection.
func IsRejected(err error) bool {
	var rejected *RejectedQueryError
	return errors.As(err, &rejected)
}

// TransportError represents a non-success response from the triplestore.
// Body carries the server's error text, truncated by the response cap.
type TransportError struct {
	Operation string // query, update, or store
	Status    int
	Body      string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sparql %s failed: status %d: %s", e.Operation, e.Status, e.Body)
}

// IsTransport returns true if the error came back from the triplestore
// rather than being raised locally.
func IsTransport(err error) bool {
	var transport *TransportError
	return errors.As(err, &transport)
}
