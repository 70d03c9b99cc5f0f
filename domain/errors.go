package domain

import "fmt"

// Error codes for domain errors
const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeConfigError          = "CONFIG_ERROR"
	ErrCodeFetchFailed          = "FETCH_FAILED"
	ErrCodeItemCheckFailed      = "ITEM_CHECK_FAILED"
	ErrCodeTrainReconcileFailed = "TRAIN_RECONCILE_FAILED"
	ErrCodeRepositoryError      = "REPOSITORY_ERROR"
	ErrCodeOutputError          = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat    = "UNSUPPORTED_FORMAT"
	ErrCodeSnapshotError        = "SNAPSHOT_ERROR"
)

// DomainError represents a structured error with a code and optional cause
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

// Error returns the formatted error message
func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains
func (e DomainError) Unwrap() error {
	return e.Cause
}

// NewDomainError creates a new domain error with the given code
func NewDomainError(code, message string, cause error) error {
	return DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidInputError creates an error for malformed requests or arguments
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewValidationError creates an error for failed request validation
func NewValidationError(message string) error {
	return NewDomainError(ErrCodeInvalidInput, message, nil)
}

// NewConfigError creates an error for configuration problems
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewFetchError creates an error for a failed backlog read.
// A fetch failure is fatal for the whole batch.
func NewFetchError(message string, cause error) error {
	return NewDomainError(ErrCodeFetchFailed, message, cause)
}

// NewItemCheckError creates an error for a single item evaluation failure
func NewItemCheckError(itemID int, check string, cause error) error {
	return NewDomainError(ErrCodeItemCheckFailed, fmt.Sprintf("check %s failed for item %d", check, itemID), cause)
}

// NewTrainReconcileError creates an error for a single group reconciliation failure
func NewTrainReconcileError(groupKey string, cause error) error {
	return NewDomainError(ErrCodeTrainReconcileFailed, fmt.Sprintf("reconciliation failed for release train %s", groupKey), cause)
}

// NewRepositoryError creates an error for repository operations
func NewRepositoryError(message string, cause error) error {
	return NewDomainError(ErrCodeRepositoryError, message, cause)
}

// NewOutputError creates an error for output writing failures
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError creates an error for unsupported output formats
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported format: %s", format), nil)
}

// NewSnapshotError creates an error for snapshot file problems
func NewSnapshotError(path string, cause error) error {
	return NewDomainError(ErrCodeSnapshotError, fmt.Sprintf("snapshot file error: %s", path), cause)
}
