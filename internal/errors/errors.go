package errors

import (
	"errors"
	"fmt"
)

// CatalogError is the structured error type for bwfind.
// It carries enough context (path, field, constraint name) for callers to act
// on a failure without re-deriving it from logs.
type CatalogError struct {
	// Code is the unique error code (e.g., "ERR_201_PATH_CONFLICT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Constraint, Storage, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *CatalogError) Is(target error) bool {
	if t, ok := target.(*CatalogError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *CatalogError) WithDetail(key, value string) *CatalogError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new CatalogError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *CatalogError {
	return &CatalogError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a CatalogError from an existing error.
func Wrap(code string, err error) *CatalogError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConstraintViolation creates an error for a uniqueness or integrity breach.
// Table and constraint name are attached as details.
func ConstraintViolation(code, table, constraint string, cause error) *CatalogError {
	e := New(code, fmt.Sprintf("constraint violated on %s", table), cause)
	return e.WithDetail("table", table).WithDetail("constraint", constraint)
}

// ExtractionFailure creates a per-file extraction error.
func ExtractionFailure(path string, cause error) *CatalogError {
	e := New(ErrCodeExtractionFailed, fmt.Sprintf("failed to extract metadata from %s", path), cause)
	return e.WithDetail("path", path)
}

// StorageUnavailable creates an error for an unreachable catalog.
func StorageUnavailable(cause error) *CatalogError {
	return New(ErrCodeStorageUnavailable, "catalog storage unavailable", cause)
}

// InvalidFilter creates an error for a malformed filter specification.
// Rejected at definition time, never at evaluation time.
func InvalidFilter(message string, cause error) *CatalogError {
	return New(ErrCodeInvalidFilter, message, cause)
}

// NotFound creates an error for an identity lookup with no match.
func NotFound(entity string, key string) *CatalogError {
	e := New(ErrCodeNotFound, fmt.Sprintf("%s not found: %s", entity, key), nil)
	return e.WithDetail("entity", entity).WithDetail("key", key)
}

// IsNotFound reports whether err is a not-found lookup result.
func IsNotFound(err error) bool {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeNotFound
	}
	return false
}

// IsConstraint reports whether err is a constraint violation.
func IsConstraint(err error) bool {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce.Category == CategoryConstraint
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current operation.
func IsFatal(err error) bool {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a CatalogError.
// Returns empty string for other error types.
func GetCode(err error) string {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
