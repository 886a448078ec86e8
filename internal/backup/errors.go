package backup

import "fmt"

// BundleError represents errors raised while creating, storing, or restoring
// backup bundles.
type BundleError struct {
	Type    BundleErrorType        `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *BundleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause error
func (e *BundleError) Unwrap() error {
	return e.Cause
}

// BundleErrorType represents different types of bundle errors
type BundleErrorType string

const (
	BundleErrorTypeValidation  BundleErrorType = "VALIDATION_ERROR"
	BundleErrorTypeCompression BundleErrorType = "COMPRESSION_ERROR"
	BundleErrorTypeCorruption  BundleErrorType = "CORRUPTION_ERROR"
	BundleErrorTypeDestination BundleErrorType = "DESTINATION_ERROR"
	BundleErrorTypeNotFound    BundleErrorType = "NOT_FOUND_ERROR"
)

// NewBundleError creates a new BundleError
func NewBundleError(errorType BundleErrorType, message string, cause error) *BundleError {
	return &BundleError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *BundleError) WithContext(key string, value interface{}) *BundleError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *BundleError {
	return NewBundleError(BundleErrorTypeValidation, message, cause)
}

// NewCompressionError creates a compression error
func NewCompressionError(message string, cause error) *BundleError {
	return NewBundleError(BundleErrorTypeCompression, message, cause)
}

// NewCorruptionError creates a corruption error
func NewCorruptionError(message string, cause error) *BundleError {
	return NewBundleError(BundleErrorTypeCorruption, message, cause)
}

// NewDestinationError creates a destination error
func NewDestinationError(message string, cause error) *BundleError {
	return NewBundleError(BundleErrorTypeDestination, message, cause)
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string) *BundleError {
	return NewBundleError(BundleErrorTypeNotFound, message, nil)
}
