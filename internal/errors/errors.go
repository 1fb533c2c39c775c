package errors

import (
	"fmt"
)

// BloomError is the structured error type for cli-bloom.
// It carries an error code, a category derived from the code, and the
// underlying cause for error chain support.
type BloomError struct {
	// Code is the unique error code (e.g., "ERR_201_IO_FAILURE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *BloomError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *BloomError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with BloomError.
func (e *BloomError) Is(target error) bool {
	if t, ok := target.(*BloomError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *BloomError) WithDetail(key, value string) *BloomError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new BloomError with the given code and message.
// The category is derived from the code.
func New(code string, message string, cause error) *BloomError {
	return &BloomError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a BloomError from an existing error.
// The error's message becomes the BloomError message.
func Wrap(code string, err error) *BloomError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// IOFailure creates an error for a failed read/write/create operation.
func IOFailure(message string, cause error) *BloomError {
	return New(ErrCodeIOFailure, message, cause)
}

// InvalidEncoding creates an error for content that is not valid UTF-8 text.
func InvalidEncoding(path string) *BloomError {
	return New(ErrCodeInvalidEncoding,
		fmt.Sprintf("source must be an UTF-8 text file: %s", path), nil)
}

// UnsupportedSource creates an error for a source that is neither a regular
// file nor a directory.
func UnsupportedSource(path string) *BloomError {
	return New(ErrCodeUnsupportedSource,
		fmt.Sprintf("source type must be file or directory: %s", path), nil)
}

// MalformedSnapshot creates an error for a restore input that does not
// conform to the snapshot schema.
func MalformedSnapshot(message string, cause error) *BloomError {
	return New(ErrCodeMalformedSnapshot, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *BloomError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// hasCode reports whether err is a BloomError with the given code.
func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if be, ok := err.(*BloomError); ok {
		return be.Code == code
	}
	return false
}

// IsInvalidEncoding reports whether err is an invalid-encoding error.
// Directory ingestion uses this to skip non-text files.
func IsInvalidEncoding(err error) bool {
	return hasCode(err, ErrCodeInvalidEncoding)
}

// IsUnsupportedSource reports whether err is an unsupported-source error.
func IsUnsupportedSource(err error) bool {
	return hasCode(err, ErrCodeUnsupportedSource)
}

// IsMalformedSnapshot reports whether err is a malformed-snapshot error.
func IsMalformedSnapshot(err error) bool {
	return hasCode(err, ErrCodeMalformedSnapshot)
}

// IsSnapshotNotFound reports whether err is a snapshot-not-found error.
func IsSnapshotNotFound(err error) bool {
	return hasCode(err, ErrCodeSnapshotNotFound)
}

// GetCode extracts the error code from a BloomError.
// Returns empty string if not a BloomError.
func GetCode(err error) string {
	if be, ok := err.(*BloomError); ok {
		return be.Code
	}
	return ""
}

// GetCategory extracts the category from a BloomError.
// Returns empty string if not a BloomError.
func GetCategory(err error) Category {
	if be, ok := err.(*BloomError); ok {
		return be.Category
	}
	return ""
}
