package task

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no task exists with the requested id.
var ErrNotFound = errors.New("task not found")

// ValidationError represents caller input that violates a field constraint.
// It is never retried and maps to a 4xx response naming the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a failure of the backing store (file cannot be opened,
// read or written). It maps to a 5xx response and is not retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidation checks whether err is a field validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
