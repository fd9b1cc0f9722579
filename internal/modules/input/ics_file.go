package input

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/emersion/go-ical"

	"github.com/jbrulmans/uhasselt-ical/internal/calendar"
	"github.com/jbrulmans/uhasselt-ical/internal/errhandling"
	"github.com/jbrulmans/uhasselt-ical/internal/logger"
	"github.com/jbrulmans/uhasselt-ical/internal/pathutil"
)

// Extension is the file extension accepted for calendar files.
const Extension = ".ics"

var errIsDirectory = errors.New("is a directory")

// Open returns a handle on the calendar file at path, positioned at its start.
//
// Errors:
//   - path without the .ics extension (any case), empty or with null bytes: InvalidFormat,
//     without touching the filesystem
//   - path does not exist: NotFound
//   - path is a directory, permission denied, other failures: IO
func Open(path string) (*os.File, error) {
	if err := pathutil.CheckPath(path); err != nil {
		return nil, errhandling.NewInvalidFormatError(path, err.Error())
	}
	if !pathutil.HasExtension(path, Extension) {
		return nil, errhandling.NewInvalidFormatError(path, "the specified file is not an .ics file")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errhandling.ClassifyFileError(path, "cannot read the specified file", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errhandling.NewIOError(path, "cannot read the specified file", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, errhandling.NewIOError(path, "cannot read the specified file", errIsDirectory)
	}

	return f, nil
}

// ICSFile is an input module reading a calendar from a local .ics file.
type ICSFile struct {
	path string
	file *os.File
}

// NewICSFile creates an input module for the calendar file at path.
// The path is only checked when Fetch runs.
func NewICSFile(path string) *ICSFile {
	return &ICSFile{path: path}
}

// Path returns the source path.
func (m *ICSFile) Path() string {
	return m.path
}

// Fetch opens the file and decodes the first calendar it contains.
// Decoding failures are reported as parse errors naming the path.
func (m *ICSFile) Fetch(ctx context.Context) (*ical.Calendar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := Open(m.path)
	if err != nil {
		return nil, err
	}
	m.file = f
	defer m.release()

	cal, err := calendar.Decode(f, m.path)
	if err != nil {
		return nil, err
	}

	logger.Debug("calendar loaded",
		slog.String("module_type", "icsFile"),
		slog.String("path", m.path),
		slog.Int("components", len(cal.Children)),
	)
	return cal, nil
}

// Close releases the file handle if it is still open.
func (m *ICSFile) Close() error {
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

func (m *ICSFile) release() {
	if err := m.Close(); err != nil {
		logger.Warn("failed to close calendar file",
			slog.String("path", m.path),
			slog.String("error", err.Error()),
		)
	}
}

// Verify ICSFile implements Module
var _ Module = (*ICSFile)(nil)
