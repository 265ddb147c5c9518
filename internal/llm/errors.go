package llm

import (
	"errors"
	"fmt"
)

// Common remote model errors
var (
	// ErrRemoteModel is returned when a model call exhausted its retry bound
	// or returned an unusable response.
	ErrRemoteModel = errors.New("remote model call failed")

	// ErrMissingAPIKey is returned when no API credential is configured.
	// Set the GROQ_API_KEY environment variable.
	ErrMissingAPIKey = errors.New("missing Groq API key: set GROQ_API_KEY environment variable")
)

// RemoteError wraps errors from the model client with operation context.
type RemoteError struct {
	// Op is the operation that failed (e.g., "Invoke").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("llm: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("llm: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *RemoteError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRemoteError creates a new RemoteError with the specified operation and underlying error.
func NewRemoteError(op string, err error, details string) *RemoteError {
	return &RemoteError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}
