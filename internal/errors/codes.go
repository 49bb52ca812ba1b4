// Package errors provides structured error handling for bwfind.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Constraint violations (uniqueness, referential integrity)
//   - 3XX: Storage errors (catalog unreachable or corrupt)
//   - 4XX: Validation errors (filter specs, queries, lookups)
//   - 5XX: Extraction errors (per-file metadata failures)
//   - 6XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryConstraint indicates uniqueness or referential integrity breaches on write.
	CategoryConstraint Category = "CONSTRAINT"
	// CategoryStorage indicates the catalog database is unreachable or corrupt.
	CategoryStorage Category = "STORAGE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryExtraction indicates a single file's metadata could not be parsed.
	CategoryExtraction Category = "EXTRACTION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort the current operation.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Constraint errors (200-299)
	ErrCodePathConflict  = "ERR_201_PATH_CONFLICT"
	ErrCodeNameConflict  = "ERR_202_NAME_CONFLICT"
	ErrCodeForeignKey    = "ERR_203_FOREIGN_KEY"
	ErrCodeCheckFailed   = "ERR_204_CHECK_FAILED"

	// Storage errors (300-399)
	ErrCodeStorageUnavailable = "ERR_301_STORAGE_UNAVAILABLE"
	ErrCodeStorageCorrupt     = "ERR_302_STORAGE_CORRUPT"

	// Validation errors (400-499)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidFilter = "ERR_402_INVALID_FILTER"
	ErrCodeNotFound      = "ERR_403_NOT_FOUND"

	// Extraction errors (500-599)
	ErrCodeExtractionFailed  = "ERR_501_EXTRACTION_FAILED"
	ErrCodeUnsupportedFormat = "ERR_502_UNSUPPORTED_FORMAT"

	// Internal errors (600-699)
	ErrCodeInternal = "ERR_601_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract leading digit of the numeric portion (e.g., "2" from "ERR_201_PATH_CONFLICT")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryConstraint
	case '3':
		return CategoryStorage
	case '4':
		return CategoryValidation
	case '5':
		return CategoryExtraction
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStorageUnavailable, ErrCodeStorageCorrupt:
		// Storage loss is fatal to the current operation, never silently swallowed.
		return SeverityFatal
	case ErrCodeExtractionFailed, ErrCodeUnsupportedFormat:
		// Per-file failures accumulate in run summaries and never abort a run.
		return SeverityWarning
	case ErrCodeNotFound:
		// A lookup with no match is a normal result, not an exceptional one.
		return SeverityInfo
	default:
		return SeverityError
	}
}

// isRetryableCode checks if an error code represents a retryable error.
// A path conflict during concurrent indexing is retried once as an update.
func isRetryableCode(code string) bool {
	return code == ErrCodePathConflict
}
