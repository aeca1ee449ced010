// Package errors provides standardized error types and helpers for the
// AnnoWeave codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// ImportError is a fatal format error raised while converting one document.
// No partial log may be applied for the offending document.
type ImportError struct {
	Importer string // importer name (e.g. "exmaralda", "ptb")
	Path     string // offending file, if known
	Reason   string // human-readable error message
	Err      error  // underlying error, if any
}

func (e *ImportError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("import %s failed for %s: %s", e.Importer, e.Path, e.Reason)
	}
	return fmt.Sprintf("import %s failed: %s", e.Importer, e.Reason)
}

func (e *ImportError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ConfigError is a configuration error detected before any document is
// processed (missing tier grouping, unknown option value, ...).
type ConfigError struct {
	Option  string // option name that failed validation
	Message string // human-readable error message
	Err     error  // underlying error, if any
}

func (e *ConfigError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("invalid configuration for %s: %s", e.Option, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ParseError represents a parsing or deserialization error.
type ParseError struct {
	Format  string // format being parsed (e.g. "TextGrid", "CoNLL-U")
	Path    string // file path, if applicable
	Message string // error details
	Err     error  // underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// NewImport creates an ImportError.
func NewImport(importer, path, reason string) *ImportError {
	return &ImportError{Importer: importer, Path: path, Reason: reason}
}

// NewConfig creates a ConfigError.
func NewConfig(option, message string) *ConfigError {
	return &ConfigError{Option: option, Message: message}
}

// NewParse creates a ParseError.
func NewParse(format, path, message string) *ParseError {
	return &ParseError{Format: format, Path: path, Message: message}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
