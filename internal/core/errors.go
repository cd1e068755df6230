package core

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input: a missing field, a non-positive quantity,
// an over-receipt or an empty receipt. The caller fixes the input; it is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// InvalidStateError reports an operation attempted against an entity whose status forbids it.
type InvalidStateError struct {
	Entity    string
	ID        int
	Status    string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %d cannot be %s: status is %s", e.Entity, e.ID, e.Operation, e.Status)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// ConflictError reports a uniqueness or idempotency violation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Message
}

// ConcurrencyError reports a failure to obtain the mutual-exclusion resource guarding an entity.
// It is the only error kind callers are advised to retry.
type ConcurrencyError struct {
	Resource string
	Err      error
}

func (e *ConcurrencyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s is busy, retry later", e.Resource)
	}
	return fmt.Sprintf("%s is busy, retry later: %v", e.Resource, e.Err)
}

func (e *ConcurrencyError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a ConcurrencyError.
func IsRetryable(err error) bool {
	var ce *ConcurrencyError
	return errors.As(err, &ce)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
