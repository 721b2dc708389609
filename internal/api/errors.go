package api

import (
	"errors"
	"fmt"
	"strings"
)

// NetworkError means no HTTP response was received at all. These are the only
// failures treated as transient: the location path queues the ping instead of
// surfacing them.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a response with a non-success status. Message carries whatever
// the backend put in the body, surfaced verbatim to the caller.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// ValidationError is a client-side rejection raised before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

// IsNetwork reports whether the error is a transport-level failure, either a
// typed NetworkError or something whose message indicates a network
// condition.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "network")
}

// Message extracts a human-readable message from any error, falling back to
// the given default.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
