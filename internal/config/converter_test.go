package config

import (
	"path/filepath"
	"testing"
)

func TestConvertToProfile(t *testing.T) {
	result := ParseFile(filepath.Join("testdata", "valid-profile.yaml"))
	if !result.IsValid() {
		t.Fatalf("ParseFile() errors = %v", result.AllErrors())
	}

	p, err := ConvertToProfile(result.Data)
	if err != nil {
		t.Fatalf("ConvertToProfile() error = %v", err)
	}

	if p.Name != "semester 1" || p.Input != "timetable.ics" || p.Output != "courses.ics" {
		t.Errorf("profile = %+v", p)
	}
	if len(p.Courses) != 2 || p.Courses[0] != "Algorithms" || p.Courses[1] != "Databases" {
		t.Errorf("Courses = %v", p.Courses)
	}
	if !p.KeepTimezones || p.DryRun {
		t.Errorf("KeepTimezones = %v, DryRun = %v", p.KeepTimezones, p.DryRun)
	}
	if len(p.Filters) != 2 {
		t.Fatalf("len(Filters) = %d, want 2", len(p.Filters))
	}

	condition := p.Filters[0]
	if condition.Type != "condition" || condition.Config["expression"] != `status != "CANCELLED"` || condition.Config["onError"] != "skip" {
		t.Errorf("Filters[0] = %+v", condition)
	}
	if _, ok := condition.Config["type"]; ok {
		t.Error("type should not be copied into Config")
	}
	if p.Filters[1].Type != "script" || p.Filters[1].Config["script"] == nil {
		t.Errorf("Filters[1] = %+v", p.Filters[1])
	}
}

func TestConvertToProfileErrors(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
	}{
		{"nil", nil},
		{"missing input", map[string]interface{}{"courses": []interface{}{"x"}}},
		{"missing courses", map[string]interface{}{"input": "a.ics"}},
		{"course not a string", map[string]interface{}{"input": "a.ics", "courses": []interface{}{1}}},
		{"filter not a map", map[string]interface{}{"input": "a.ics", "courses": []interface{}{"x"}, "filters": []interface{}{"condition"}}},
		{"filter without type", map[string]interface{}{"input": "a.ics", "courses": []interface{}{"x"}, "filters": []interface{}{map[string]interface{}{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ConvertToProfile(tt.data); err == nil {
				t.Error("ConvertToProfile() error = nil, want error")
			}
		})
	}
}
