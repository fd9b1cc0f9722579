// Package errhandling provides error types and classification for pipeline execution.
package errhandling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

// TestErrorCategory tests error category constants and their string values.
func TestErrorCategory(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected string
	}{
		{CategoryInvalidFormat, "invalid_format"},
		{CategoryNotFound, "not_found"},
		{CategoryIO, "io"},
		{CategoryParse, "parse"},
		{CategoryValidation, "validation"},
		{CategoryUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.category) != tt.expected {
				t.Errorf("ErrorCategory = %v, want %v", tt.category, tt.expected)
			}
		})
	}
}

// TestClassifiedError tests the ClassifiedError type.
func TestClassifiedError(t *testing.T) {
	t.Run("Error message formatting", func(t *testing.T) {
		err := NewIOError("out/cal.ics", "cannot write the calendar file", errors.New("permission denied"))

		errorStr := err.Error()
		for _, want := range []string{"io", "cannot write the calendar file", "out/cal.ics", "permission denied"} {
			if !strings.Contains(errorStr, want) {
				t.Errorf("Error() = %q, want to contain %q", errorStr, want)
			}
		}
	})

	t.Run("Unwrap returns original error", func(t *testing.T) {
		original := errors.New("original error")
		err := NewParseError("a.ics", "malformed calendar", original)

		if err.Unwrap() != original {
			t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), original)
		}
		if !errors.Is(err, original) {
			t.Error("errors.Is should match original error")
		}
	})

	t.Run("Is matches category sentinel", func(t *testing.T) {
		tests := []struct {
			err      error
			sentinel error
		}{
			{NewInvalidFormatError("a.txt", "not an .ics file"), ErrInvalidFormat},
			{NewNotFoundError("a.ics", fs.ErrNotExist), ErrNotFound},
			{NewIOError("a.ics", "read failed", nil), ErrIO},
			{NewParseError("a.ics", "bad", nil), ErrParse},
			{NewValidationError("no courses", nil), ErrValidation},
		}
		for _, tt := range tests {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
			wrapped := fmt.Errorf("stage failed: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("wrapped errors.Is(%v, %v) = false, want true", wrapped, tt.sentinel)
			}
		}
	})

	t.Run("Is does not cross categories", func(t *testing.T) {
		err := NewParseError("a.ics", "bad", nil)
		if errors.Is(err, ErrIO) {
			t.Error("parse error should not match ErrIO")
		}
	})
}

func TestClassifyFileError(t *testing.T) {
	t.Run("not exist", func(t *testing.T) {
		err := ClassifyFileError("missing.ics", "cannot read", &fs.PathError{Op: "open", Path: "missing.ics", Err: fs.ErrNotExist})
		if err.Category != CategoryNotFound {
			t.Errorf("Category = %v, want %v", err.Category, CategoryNotFound)
		}
	})

	t.Run("permission", func(t *testing.T) {
		err := ClassifyFileError("locked.ics", "cannot read", &fs.PathError{Op: "open", Path: "locked.ics", Err: fs.ErrPermission})
		if err.Category != CategoryIO {
			t.Errorf("Category = %v, want %v", err.Category, CategoryIO)
		}
	})

	t.Run("already classified", func(t *testing.T) {
		original := NewParseError("x.ics", "bad", nil)
		if got := ClassifyFileError("x.ics", "ignored", original); got != original {
			t.Errorf("ClassifyFileError() = %v, want original", got)
		}
	})

	t.Run("nil", func(t *testing.T) {
		if got := ClassifyFileError("x.ics", "ignored", nil); got != nil {
			t.Errorf("ClassifyFileError(nil) = %v, want nil", got)
		}
	})
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, CategoryUnknown},
		{"classified", NewValidationError("x", nil), CategoryValidation},
		{"wrapped classified", fmt.Errorf("ctx: %w", NewParseError("", "x", nil)), CategoryParse},
		{"path error not exist", &fs.PathError{Op: "open", Path: "a", Err: fs.ErrNotExist}, CategoryNotFound},
		{"path error permission", &fs.PathError{Op: "open", Path: "a", Err: fs.ErrPermission}, CategoryIO},
		{"canceled", context.Canceled, CategoryUnknown},
		{"plain", errors.New("boom"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err).Category; got != tt.want {
				t.Errorf("ClassifyError() category = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	if got := GetErrorCategory(nil); got != CategoryUnknown {
		t.Errorf("GetErrorCategory(nil) = %v, want %v", got, CategoryUnknown)
	}
	if got := GetErrorCategory(errors.New("plain")); got != CategoryUnknown {
		t.Errorf("GetErrorCategory(plain) = %v, want %v", got, CategoryUnknown)
	}
	err := fmt.Errorf("executing input module: %w", NewNotFoundError("a.ics", nil))
	if got := GetErrorCategory(err); got != CategoryNotFound {
		t.Errorf("GetErrorCategory(wrapped) = %v, want %v", got, CategoryNotFound)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("x", nil), ExitValidation},
		{"parse", NewParseError("", "x", nil), ExitParse},
		{"io", NewIOError("", "x", nil), ExitRuntime},
		{"invalid format", NewInvalidFormatError("a.txt", "x"), ExitInvalidFormat},
		{"not found", NewNotFoundError("a.ics", nil), ExitNotFound},
		{"unknown", errors.New("boom"), ExitRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
