package config

import (
	"strings"
	"testing"
)

func TestGetEmbeddedSchema(t *testing.T) {
	if len(GetEmbeddedSchema()) == 0 {
		t.Fatal("embedded schema is empty")
	}
	if _, err := getCompiledSchema(); err != nil {
		t.Fatalf("getCompiledSchema() error = %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]interface{}
		wantPath string
		wantType string
	}{
		{
			name: "minimal",
			data: map[string]interface{}{"input": "a.ics", "courses": []interface{}{"x"}},
		},
		{
			name: "all fields",
			data: map[string]interface{}{
				"name":          "n",
				"input":         "a.ics",
				"output":        "b.ics",
				"courses":       []interface{}{"x", "y"},
				"keepTimezones": true,
				"dryRun":        false,
				"filters": []interface{}{
					map[string]interface{}{"type": "condition", "expression": "true", "lang": "expr", "onError": "log"},
					map[string]interface{}{"type": "script", "scriptFile": "f.js"},
				},
			},
		},
		{
			name:     "empty",
			data:     map[string]interface{}{},
			wantPath: "/",
			wantType: "required",
		},
		{
			name:     "missing courses",
			data:     map[string]interface{}{"input": "a.ics"},
			wantPath: "/",
			wantType: "required",
		},
		{
			name:     "empty courses",
			data:     map[string]interface{}{"input": "a.ics", "courses": []interface{}{}},
			wantPath: "/courses",
			wantType: "range",
		},
		{
			name: "whitespace course",
			data: map[string]interface{}{"input": "a.ics", "courses": []interface{}{" "}},
		},
		{
			name:     "wrong type",
			data:     map[string]interface{}{"input": 3, "courses": []interface{}{"x"}},
			wantPath: "/input",
			wantType: "type",
		},
		{
			name:     "unknown field",
			data:     map[string]interface{}{"input": "a.ics", "courses": []interface{}{"x"}, "schedule": "daily"},
			wantPath: "/",
			wantType: "additionalProperties",
		},
		{
			name: "unknown filter type",
			data: map[string]interface{}{"input": "a.ics", "courses": []interface{}{"x"}, "filters": []interface{}{
				map[string]interface{}{"type": "mapping"},
			}},
			wantPath: "/filters/0/type",
			wantType: "enum",
		},
		{
			name: "condition without expression",
			data: map[string]interface{}{"input": "a.ics", "courses": []interface{}{"x"}, "filters": []interface{}{
				map[string]interface{}{"type": "condition"},
			}},
			wantPath: "/filters/0",
			wantType: "required",
		},
		{
			name: "invalid onError",
			data: map[string]interface{}{"input": "a.ics", "courses": []interface{}{"x"}, "filters": []interface{}{
				map[string]interface{}{"type": "condition", "expression": "true", "onError": "retry"},
			}},
			wantPath: "/filters/0/onError",
			wantType: "enum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateConfig(tt.data)
			if tt.wantPath == "" {
				if !result.Valid {
					t.Fatalf("ValidateConfig() errors = %v", result.Errors)
				}
				return
			}
			if result.Valid {
				t.Fatal("ValidateConfig() = valid, want errors")
			}
			for _, err := range result.Errors {
				if err.Path == tt.wantPath && err.Type == tt.wantType {
					return
				}
			}
			t.Errorf("ValidateConfig() errors = %v, want %s at %s", result.Errors, tt.wantType, tt.wantPath)
		})
	}
}

func TestValidateConfigYAMLNumbers(t *testing.T) {
	result := ParseString("input: a.ics\ncourses: [101]\n", FormatYAML)
	if result.IsValid() {
		t.Fatal("numeric course should be rejected")
	}
	if !strings.Contains(result.ValidationErrors[0].Path, "/courses/0") {
		t.Errorf("error path = %q, want /courses/0", result.ValidationErrors[0].Path)
	}
}
