package oceans

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Store operations. Callers should test with
// errors.Is rather than comparing strings.
var (
	// ErrNotFound is returned when an operation targets a record that does
	// not exist, such as updating the status of an unknown submission.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable is returned when neither the structured backend
	// nor the flat fallback store could be opened.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrWriteFailed is returned when a write reached the backend but could
	// not be persisted.
	ErrWriteFailed = errors.New("write failed")
)

// ValidationError reports input that was rejected before it reached storage:
// an empty key, an unknown content type, a malformed snapshot.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

func errValidation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
