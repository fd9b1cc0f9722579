package runtime

import (
	"errors"

	"github.com/jbrulmans/uhasselt-ical/internal/errhandling"
	"github.com/jbrulmans/uhasselt-ical/pkg/profile"
)

// Error codes for execution errors
const (
	ErrCodeInputFailed  = "INPUT_FAILED"
	ErrCodeFilterFailed = "FILTER_FAILED"
	ErrCodeOutputFailed = "OUTPUT_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
)

// Common errors
var (
	// ErrNilProfile is returned when the profile is nil
	ErrNilProfile = errors.New("profile is nil")

	// ErrNilInputModule is returned when the input module is nil
	ErrNilInputModule = errors.New("input module is nil")

	// ErrNilOutputModule is returned when the output module is nil
	ErrNilOutputModule = errors.New("output module is nil")
)

// buildExecutionError creates an ExecutionError with the classified category of err.
func buildExecutionError(code, module string, err error) *profile.ExecutionError {
	cl := errhandling.ClassifyError(err)
	return &profile.ExecutionError{
		Code:     code,
		Message:  err.Error(),
		Module:   module,
		Category: string(cl.Category),
		Path:     cl.Path,
	}
}
