package imaging

import (
	"errors"
	"fmt"
)

// Common imaging errors
var (
	// ErrInvalidStripeCount is returned when the requested stripe count is below 1.
	ErrInvalidStripeCount = errors.New("stripe count must be at least 1")

	// ErrInvalidOverlap is returned when the overlap fraction is outside [0, 1].
	ErrInvalidOverlap = errors.New("overlap fraction must be between 0 and 1")

	// ErrInvalidImage is returned when the image has a zero dimension or cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")

	// ErrEncodingFailed is returned when the image cannot be normalized or compressed.
	ErrEncodingFailed = errors.New("image encoding failed")
)

// ImagingError wraps errors with additional context about the imaging operation that failed.
type ImagingError struct {
	// Op is the operation that failed (e.g., "SplitHorizontal", "EncodeJPEG").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ImagingError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("imaging: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("imaging: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ImagingError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ImagingError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewImagingError creates a new ImagingError with the specified operation and underlying error.
func NewImagingError(op string, err error, details string) *ImagingError {
	return &ImagingError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}
