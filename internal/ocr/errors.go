package ocr

import (
	"errors"
	"fmt"
)

// Common pipeline errors
var (
	// ErrEmptyInput is returned when consolidation is requested with no
	// stripe texts. No remote call is issued in that case.
	ErrEmptyInput = errors.New("no stripe texts to consolidate")

	// ErrPipelineFailed is returned when a pipeline stage failed and no
	// partial result is available.
	ErrPipelineFailed = errors.New("pipeline failed")
)

// PipelineError wraps errors with additional context about the pipeline stage that failed.
type PipelineError struct {
	// Op is the operation that failed (e.g., "ExtractTable", "Consolidate").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewPipelineError creates a new PipelineError with the specified operation and underlying error.
func NewPipelineError(op string, err error, details string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapPipelineError wraps an error as a PipelineError if it isn't already one.
func WrapPipelineError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return err // Already wrapped
	}

	return NewPipelineError(op, err, details)
}
