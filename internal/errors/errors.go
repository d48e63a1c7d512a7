package errors

import (
	"errors"
	"fmt"
)

// Error types for the litgrep search engine
type ErrorType string

const (
	// Search errors
	ErrorTypeSearch  ErrorType = "search"
	ErrorTypeOptions ErrorType = "options"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeBinaryFile   ErrorType = "binary_file"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeIO           ErrorType = "io"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ErrBinaryFile marks a file skipped by the NUL-byte heuristic.
// A binary skip is a deliberate per-file outcome, not a failure.
var ErrBinaryFile = errors.New("binary file")

// IsBinary reports whether err represents a binary-file skip.
func IsBinary(err error) bool {
	return errors.Is(err, ErrBinaryFile)
}

// OptionsError represents an invalid search option, rejected before any
// file is touched.
type OptionsError struct {
	Field  string
	Value  string
	Reason string
}

// NewOptionsError creates a new options validation error
func NewOptionsError(field, value, reason string) *OptionsError {
	return &OptionsError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// Error implements the error interface
func (e *OptionsError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid option %s (value %s): %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid option %s: %s", e.Field, e.Reason)
}

// SearchError represents a search operation error
type SearchError struct {
	Type       ErrorType
	Pattern    string
	Underlying error
}

// NewSearchError creates a new search error
func NewSearchError(pattern string, err error) *SearchError {
	return &SearchError{
		Type:       ErrorTypeSearch,
		Pattern:    pattern,
		Underlying: err,
	}
}

// Error implements the error interface
func (e *SearchError) Error() string {
	return fmt.Sprintf("search failed for pattern %q: %v", e.Pattern, e.Underlying)
}

// Unwrap returns the underlying error
func (e *SearchError) Unwrap() error {
	return e.Underlying
}

// FileError represents a per-file scan failure. File errors never abort
// the batch; they surface on that file's result only.
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeIO
	switch {
	case errors.Is(err, ErrBinaryFile):
		errorType = ErrorTypeBinaryFile
	case isPermissionError(err):
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
	}
}

// isPermissionError checks if the error is a permission error
func isPermissionError(err error) bool {
	errStr := err.Error()
	return errStr == "permission denied" || errStr == "access denied"
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}
