package output

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/emersion/go-ical"

	"github.com/jbrulmans/uhasselt-ical/internal/calendar"
	"github.com/jbrulmans/uhasselt-ical/internal/errhandling"
	"github.com/jbrulmans/uhasselt-ical/internal/logger"
	"github.com/jbrulmans/uhasselt-ical/internal/pathutil"
)

// DefaultPath is the output path used when none is given.
const DefaultPath = "output.ics"

// DefaultFileMode is the permission of newly written calendar files.
const DefaultFileMode os.FileMode = 0o644

// ICSFile is an output module writing the calendar to a local .ics file.
// Writes are atomic: the calendar is written to a temp file in the destination
// directory and renamed over the destination, so a failed write leaves no partial file.
type ICSFile struct {
	path string
	mode os.FileMode
}

// NewICSFile creates an output module for path.
// An empty path selects DefaultPath.
func NewICSFile(path string) (*ICSFile, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := pathutil.CheckPath(path); err != nil {
		return nil, errhandling.NewValidationError(fmt.Sprintf("invalid output path %q: %v", path, err), nil)
	}
	if !pathutil.HasExtension(path, ".ics") {
		logger.Warn("output file does not use the .ics extension",
			slog.String("path", path),
		)
	}
	return &ICSFile{path: path, mode: DefaultFileMode}, nil
}

// Path returns the destination path.
func (m *ICSFile) Path() string {
	return m.path
}

// Send encodes doc and writes it to the destination path.
func (m *ICSFile) Send(ctx context.Context, doc *ical.Calendar) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := encode(doc)
	if err != nil {
		return 0, errhandling.NewIOError(m.path, "cannot encode the calendar", err)
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := WriteFileAtomic(m.path, data, m.mode); err != nil {
		return 0, errhandling.NewIOError(m.path, "cannot write the calendar file", err)
	}

	count := len(calendar.Events(doc))
	logger.Debug("calendar written",
		slog.String("module_type", "icsFile"),
		slog.String("path", m.path),
		slog.Int("events", count),
		slog.Int("bytes", len(data)),
	)
	return count, nil
}

// Preview encodes doc without writing it.
func (m *ICSFile) Preview(doc *ical.Calendar) (Preview, error) {
	data, err := encode(doc)
	if err != nil {
		return Preview{}, errhandling.NewIOError(m.path, "cannot encode the calendar", err)
	}

	events := calendar.Events(doc)
	summaries := make([]string, 0, len(events))
	for _, event := range events {
		summary, _ := calendar.Summary(event)
		summaries = append(summaries, summary)
	}

	return Preview{
		Path:       m.path,
		EventCount: len(events),
		Bytes:      len(data),
		Summaries:  summaries,
	}, nil
}

// Close releases resources (no-op, files are closed by each write).
func (m *ICSFile) Close() error {
	return nil
}

func encode(doc *ical.Calendar) ([]byte, error) {
	var buf bytes.Buffer
	if err := calendar.Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFileAtomic writes data to path through a temp file in the same directory.
// The temp file is synced before the rename and removed on any failure.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) {
				logger.Warn("failed to remove temp file",
					slog.String("path", tempPath),
					slog.String("error", removeErr.Error()),
				)
			}
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Verify ICSFile implements Module and PreviewableModule
var _ Module = (*ICSFile)(nil)
var _ PreviewableModule = (*ICSFile)(nil)
