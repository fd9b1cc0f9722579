package factory

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jbrulmans/uhasselt-ical/internal/calendar"
	"github.com/jbrulmans/uhasselt-ical/internal/errhandling"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/filter"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/input"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/output"
	"github.com/jbrulmans/uhasselt-ical/pkg/profile"
)

func mustCriteria(t *testing.T, courses ...string) calendar.Criteria {
	t.Helper()
	c, err := calendar.NewCriteria(courses)
	if err != nil {
		t.Fatalf("NewCriteria() error = %v", err)
	}
	return c
}

func TestCreateInputModule(t *testing.T) {
	got, err := CreateInputModule("timetable.ics")
	if err != nil {
		t.Fatalf("CreateInputModule() error = %v", err)
	}
	module, ok := got.(*input.ICSFile)
	if !ok {
		t.Fatalf("CreateInputModule() = %T, want *input.ICSFile", got)
	}
	if module.Path() != "timetable.ics" {
		t.Errorf("Path() = %q, want timetable.ics", module.Path())
	}
}

func TestCreateFilterModules(t *testing.T) {
	t.Run("courses only", func(t *testing.T) {
		modules, err := CreateFilterModules(mustCriteria(t, "algorithms"), nil)
		if err != nil {
			t.Fatalf("CreateFilterModules() error = %v", err)
		}
		if len(modules) != 1 {
			t.Fatalf("len(modules) = %d, want 1", len(modules))
		}
		if _, ok := modules[0].(*filter.Courses); !ok {
			t.Errorf("modules[0] = %T, want *filter.Courses", modules[0])
		}
	})

	t.Run("extra filters keep profile order", func(t *testing.T) {
		cfgs := []profile.FilterConfig{
			{Type: "script", Config: map[string]interface{}{"script": "function filter(e) { return true; }"}},
			{Type: "condition", Config: map[string]interface{}{"expression": "true"}},
		}
		modules, err := CreateFilterModules(mustCriteria(t, "algorithms"), cfgs)
		if err != nil {
			t.Fatalf("CreateFilterModules() error = %v", err)
		}
		if len(modules) != 3 {
			t.Fatalf("len(modules) = %d, want 3", len(modules))
		}
		if _, ok := modules[1].(*filter.Script); !ok {
			t.Errorf("modules[1] = %T, want *filter.Script", modules[1])
		}
		if _, ok := modules[2].(*filter.Condition); !ok {
			t.Errorf("modules[2] = %T, want *filter.Condition", modules[2])
		}
	})
}

func TestCreateFilterModulesErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  profile.FilterConfig
	}{
		{"unknown type", profile.FilterConfig{Type: "mapping"}},
		{"nil config", profile.FilterConfig{Type: "condition"}},
		{"invalid expression", profile.FilterConfig{Type: "condition", Config: map[string]interface{}{"expression": "a ==="}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateFilterModules(mustCriteria(t, "x"), []profile.FilterConfig{tt.cfg})
			if !errors.Is(err, errhandling.ErrValidation) {
				t.Errorf("CreateFilterModules() error = %v, want validation error", err)
			}
		})
	}
}

func TestCreateOutputModule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.ics")
	got, err := CreateOutputModule(path)
	if err != nil {
		t.Fatalf("CreateOutputModule() error = %v", err)
	}
	module, ok := got.(*output.ICSFile)
	if !ok {
		t.Fatalf("CreateOutputModule() = %T, want *output.ICSFile", got)
	}
	if module.Path() != path {
		t.Errorf("Path() = %q, want %q", module.Path(), path)
	}
}

func TestCreateOutputModuleDefaultPath(t *testing.T) {
	got, err := CreateOutputModule("")
	if err != nil {
		t.Fatalf("CreateOutputModule() error = %v", err)
	}
	if path := got.(*output.ICSFile).Path(); path != output.DefaultPath {
		t.Errorf("Path() = %q, want %q", path, output.DefaultPath)
	}
}

func TestCreateOutputModuleInvalidPath(t *testing.T) {
	_, err := CreateOutputModule("bad\x00name.ics")
	if !errors.Is(err, errhandling.ErrValidation) {
		t.Errorf("CreateOutputModule() error = %v, want validation error", err)
	}
}
