// Package errhandling provides error types and classification helpers.
// This file defines error categories, classification functions, and the mapping
// from categories to process exit codes used by the CLI.
package errhandling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// ErrorCategory represents the type/category of an error.
// Categories let callers (and tests) assert on failure kind rather than message text.
type ErrorCategory string

// Error categories for classification.
const (
	// CategoryInvalidFormat represents an input path without the expected extension.
	CategoryInvalidFormat ErrorCategory = "invalid_format"

	// CategoryNotFound represents a path that does not resolve to an existing file.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryIO represents read or write failures other than a missing file.
	CategoryIO ErrorCategory = "io"

	// CategoryParse represents content that does not conform to the expected grammar
	// (calendar data or profile syntax).
	CategoryParse ErrorCategory = "parse"

	// CategoryValidation represents invalid arguments or profile values.
	CategoryValidation ErrorCategory = "validation"

	// CategoryUnknown represents unclassified errors.
	CategoryUnknown ErrorCategory = "unknown"
)

// Sentinel errors, one per category. A ClassifiedError matches the sentinel of its
// category with errors.Is.
var (
	ErrInvalidFormat = errors.New("invalid file format")
	ErrNotFound      = errors.New("file not found")
	ErrIO            = errors.New("i/o failure")
	ErrParse         = errors.New("parse failure")
	ErrValidation    = errors.New("validation failure")
)

// Exit codes returned by the CLI for each category.
const (
	ExitSuccess       = 0
	ExitValidation    = 1
	ExitParse         = 2
	ExitRuntime       = 3
	ExitInvalidFormat = 4
	ExitNotFound      = 5
)

// ClassifiedError wraps an error with classification metadata.
type ClassifiedError struct {
	// Category is the error classification category.
	Category ErrorCategory

	// Message is a human-readable error message.
	Message string

	// Path is the file path the error relates to (empty if none).
	Path string

	// OriginalErr is the underlying error that was classified.
	OriginalErr error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Category, msg, e.OriginalErr)
	}
	return fmt.Sprintf("%s error: %s", e.Category, msg)
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is the sentinel error of this error's category.
func (e *ClassifiedError) Is(target error) bool {
	sentinel := sentinelFor(e.Category)
	return sentinel != nil && target == sentinel
}

func sentinelFor(category ErrorCategory) error {
	switch category {
	case CategoryInvalidFormat:
		return ErrInvalidFormat
	case CategoryNotFound:
		return ErrNotFound
	case CategoryIO:
		return ErrIO
	case CategoryParse:
		return ErrParse
	case CategoryValidation:
		return ErrValidation
	default:
		return nil
	}
}

// NewInvalidFormatError creates a ClassifiedError for a path with the wrong extension.
func NewInvalidFormatError(path, message string) *ClassifiedError {
	return &ClassifiedError{
		Category: CategoryInvalidFormat,
		Message:  message,
		Path:     path,
	}
}

// NewNotFoundError creates a ClassifiedError for a missing file.
func NewNotFoundError(path string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryNotFound,
		Message:     "the specified file does not exist",
		Path:        path,
		OriginalErr: originalErr,
	}
}

// NewIOError creates a ClassifiedError for read or write failures.
func NewIOError(path, message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryIO,
		Message:     message,
		Path:        path,
		OriginalErr: originalErr,
	}
}

// NewParseError creates a ClassifiedError for malformed content.
func NewParseError(path, message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryParse,
		Message:     message,
		Path:        path,
		OriginalErr: originalErr,
	}
}

// NewValidationError creates a ClassifiedError for invalid arguments or configuration.
func NewValidationError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryValidation,
		Message:     message,
		OriginalErr: originalErr,
	}
}

// ClassifyFileError classifies an error returned by a filesystem operation on path.
//
// Classification rules:
//   - fs.ErrNotExist: NotFound
//   - anything else (permissions, directories, short reads): IO
func ClassifyFileError(path, message string, err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, fs.ErrNotExist) {
		return NewNotFoundError(path, err)
	}

	return NewIOError(path, message, err)
}

// ClassifyError classifies any error into a ClassifiedError.
// Already classified errors are returned as is.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return &ClassifiedError{
			Category: CategoryUnknown,
			Message:  "nil error",
		}
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{
			Category:    CategoryUnknown,
			Message:     "operation interrupted",
			OriginalErr: err,
		}
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return ClassifyFileError(pathErr.Path, "file operation failed", err)
	}

	return &ClassifiedError{
		Category:    CategoryUnknown,
		Message:     err.Error(),
		OriginalErr: err,
	}
}

// GetErrorCategory returns the error category for a given error.
// Returns CategoryUnknown for nil or unclassified errors.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Category
	}

	return CategoryUnknown
}

// ExitCode maps an error to the process exit status.
// Nil errors map to ExitSuccess; unknown errors map to ExitRuntime.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch GetErrorCategory(err) {
	case CategoryValidation:
		return ExitValidation
	case CategoryParse:
		return ExitParse
	case CategoryInvalidFormat:
		return ExitInvalidFormat
	case CategoryNotFound:
		return ExitNotFound
	default:
		return ExitRuntime
	}
}
