package input

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jbrulmans/uhasselt-ical/internal/errhandling"
)

const sampleCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//UHasselt//Timetable Export//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:evt-1@uhasselt.be\r\n" +
	"DTSTAMP:20240901T080000Z\r\n" +
	"DTSTART:20240916T083000Z\r\n" +
	"SUMMARY:Algorithms 101\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestOpenExtensionGate(t *testing.T) {
	dir := t.TempDir()
	// An existing file with the wrong extension must still be rejected.
	existing := writeFile(t, dir, "timetable.txt", sampleCalendar)

	tests := []struct {
		name string
		path string
	}{
		{"existing txt file", existing},
		{"missing txt file", filepath.Join(dir, "missing.txt")},
		{"ics suffix not extension", filepath.Join(dir, "timetable.ics.bak")},
		{"no extension", filepath.Join(dir, "timetable")},
		{"empty path", ""},
		{"null byte", "time\x00table.ics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Open(tt.path)
			if f != nil {
				f.Close()
				t.Fatal("Open() returned a handle for a rejected path")
			}
			if !errors.Is(err, errhandling.ErrInvalidFormat) {
				t.Fatalf("Open() error = %v, want invalid format", err)
			}
			if errhandling.ExitCode(err) != errhandling.ExitInvalidFormat {
				t.Errorf("ExitCode = %d, want %d", errhandling.ExitCode(err), errhandling.ExitInvalidFormat)
			}
		})
	}
}

func TestOpenAcceptsAnyCaseExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"lower.ics", "UPPER.ICS", "Mixed.Ics"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, name, sampleCalendar)
			f, err := Open(path)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			f.Close()
		})
	}
}

func TestOpenNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.ics")

	_, err := Open(path)
	if !errors.Is(err, errhandling.ErrNotFound) {
		t.Fatalf("Open() error = %v, want not found", err)
	}

	var classified *errhandling.ClassifiedError
	if !errors.As(err, &classified) || classified.Path != path {
		t.Errorf("error should carry the path %q, got %v", path, err)
	}
}

func TestOpenDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "calendar.ics")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := Open(dir)
	if !errors.Is(err, errhandling.ErrIO) {
		t.Fatalf("Open() error = %v, want io error", err)
	}
}

func TestOpenPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	path := writeFile(t, t.TempDir(), "locked.ics", sampleCalendar)
	if err := os.Chmod(path, 0o000); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, errhandling.ErrIO) {
		t.Fatalf("Open() error = %v, want io error", err)
	}
}

func TestICSFileFetch(t *testing.T) {
	path := writeFile(t, t.TempDir(), "timetable.ics", sampleCalendar)
	module := NewICSFile(path)
	defer module.Close()

	cal, err := module.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(cal.Children) != 1 {
		t.Errorf("len(Children) = %d, want 1", len(cal.Children))
	}
	if module.Path() != path {
		t.Errorf("Path() = %q, want %q", module.Path(), path)
	}
}

func TestICSFileFetchParseError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"not a calendar", "hello world\r\n"},
		{"unterminated calendar", "BEGIN:VCALENDAR\r\nVERSION:2.0\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "broken.ics", tt.content)
			module := NewICSFile(path)
			defer module.Close()

			_, err := module.Fetch(context.Background())
			if !errors.Is(err, errhandling.ErrParse) {
				t.Fatalf("Fetch() error = %v, want parse error", err)
			}
		})
	}
}

func TestICSFileFetchCanceled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "timetable.ics", sampleCalendar)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewICSFile(path).Fetch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch() error = %v, want context.Canceled", err)
	}
}

func TestICSFileCloseIsIdempotent(t *testing.T) {
	path := writeFile(t, t.TempDir(), "timetable.ics", sampleCalendar)
	module := NewICSFile(path)

	if _, err := module.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if err := module.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := module.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
