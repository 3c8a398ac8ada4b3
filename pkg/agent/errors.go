package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors for the agent package.
var (
	// ErrNoDocumentText indicates agent creation without document text.
	ErrNoDocumentText = errors.New("agent: document text is required")

	// ErrMissingCredentials indicates a missing API key or user ID.
	ErrMissingCredentials = errors.New("agent: API key and user ID are required")

	// ErrNoAgentID indicates an operation without an agent ID.
	ErrNoAgentID = errors.New("agent: agent ID is required")
)

// APIError represents an error response from the agent API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the response body or error detail.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("agent: API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true for a 404 response.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized returns true for auth failures.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsServerError returns true for 5xx responses.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}
