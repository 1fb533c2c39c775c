// Package errors provides structured error handling for cli-bloom.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk, snapshot paths)
//   - 4XX: Validation errors (encoding, source type, snapshot shape)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeIOFailure          = "ERR_201_IO_FAILURE"
	ErrCodeSnapshotNotFound   = "ERR_202_SNAPSHOT_NOT_FOUND"
	ErrCodeSnapshotUnwritable = "ERR_203_SNAPSHOT_UNWRITABLE"

	// Validation errors (400-499)
	ErrCodeInvalidEncoding   = "ERR_401_INVALID_ENCODING"
	ErrCodeUnsupportedSource = "ERR_402_UNSUPPORTED_SOURCE"
	ErrCodeMalformedSnapshot = "ERR_403_MALFORMED_SNAPSHOT"
	ErrCodeInvalidErrorRate  = "ERR_404_INVALID_ERROR_RATE"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion starts after "ERR_" (e.g., "201" in "ERR_201_IO_FAILURE")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}
