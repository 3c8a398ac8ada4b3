package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for the session package.
var (
	// ErrMissingAPIKey indicates the API key was not provided.
	ErrMissingAPIKey = errors.New("session: API key is required")

	// ErrMissingAgentID indicates no agent ID was supplied to Connect.
	ErrMissingAgentID = errors.New("session: agent ID is required")

	// ErrNotConnected indicates the socket is not open.
	ErrNotConnected = errors.New("session: not connected")

	// ErrAlreadyConnected indicates a session is already active.
	ErrAlreadyConnected = errors.New("session: already connected")

	// ErrNoRecorder indicates StartRecording was called without a recorder.
	ErrNoRecorder = errors.New("session: no recorder configured")

	// ErrInvalidPCM indicates an audio payload whose length is not a
	// whole number of float32 samples.
	ErrInvalidPCM = errors.New("session: audio payload is not float32-aligned")
)

// ConnectionError represents a WebSocket connection error.
type ConnectionError struct {
	// Reason describes why the connection failed.
	Reason string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if reconnection should be attempted.
	Retryable bool
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session: connection error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("session: connection error: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if reconnection should be attempted.
func (e *ConnectionError) IsRetryable() bool {
	return e.Retryable
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(reason string, cause error, retryable bool) *ConnectionError {
	return &ConnectionError{
		Reason:    reason,
		Cause:     cause,
		Retryable: retryable,
	}
}

// ServerError is an error frame delivered by the agent service.
// It surfaces to the user without closing the session.
type ServerError struct {
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("session: server error: %s", e.Message)
}
