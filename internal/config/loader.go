package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jbrulmans/uhasselt-ical/internal/errhandling"
	"github.com/jbrulmans/uhasselt-ical/internal/logger"
	"github.com/jbrulmans/uhasselt-ical/pkg/profile"
)

// LoadError is returned by Load. It carries every parse or validation error of
// the profile and wraps a classified error for exit code mapping.
type LoadError struct {
	Path   string
	Errors []error
	cause  *errhandling.ClassifiedError
}

func (e *LoadError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid profile %s: %s", e.Path, strings.Join(msgs, "; "))
}

func (e *LoadError) Unwrap() error {
	return e.cause
}

// Load parses, validates and converts the profile at path.
//
// Errors are classified: unreadable files are NotFound or IO errors, syntax
// errors are Parse errors, and schema violations are Validation errors.
func Load(path string) (*profile.Profile, error) {
	result := ParseFile(path)

	if !result.IsValid() {
		loadErr := &LoadError{Path: path, Errors: result.AllErrors(), cause: classify(path, result)}
		logger.Debug("profile rejected",
			slog.String("path", path),
			slog.Int("parse_errors", len(result.ParseErrors)),
			slog.Int("validation_errors", len(result.ValidationErrors)),
		)
		return nil, loadErr
	}

	p, err := ConvertToProfile(result.Data)
	if err != nil {
		return nil, errhandling.NewValidationError("invalid profile", err)
	}

	logger.Debug("profile loaded",
		slog.String("path", path),
		slog.String("format", result.Format),
		slog.Int("courses", len(p.Courses)),
		slog.Int("filters", len(p.Filters)),
	)
	return p, nil
}

func classify(path string, result *Result) *errhandling.ClassifiedError {
	if len(result.ParseErrors) > 0 {
		first := result.ParseErrors[0]
		if first.Type == ErrorTypeIO {
			return errhandling.ClassifyFileError(path, "cannot read the profile", first.Err)
		}
		return errhandling.NewParseError(path, "malformed profile", first)
	}
	return errhandling.NewValidationError("profile does not match the schema", result.ValidationErrors[0])
}
