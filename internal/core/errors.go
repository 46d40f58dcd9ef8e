package core

import (
	"errors"
	"fmt"
)

// Reasons carried by ValidationError. These are part of the contract with
// the UI and export collaborators, which branch on them.
const (
	ReasonEmptyField      = "empty-field"
	ReasonNonPositive     = "non-positive-amount"
	ReasonBadColor        = "bad-color"
	ReasonBadDateRange    = "bad-date-range"
	ReasonMissingFK       = "missing-fk"
	ReasonFileTooLarge    = "file-too-large"
	ReasonUnsupportedMime = "unsupported-mime"
)

// ValidationError reports input that failed an invariant. The transaction,
// if any, has been rolled back before the error is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for a field and reason.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError wraps a driver or I/O failure. The original cause is
// preserved for errors.Is/As.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// NotFoundError reports a read or targeted write against a missing row.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
