package pathutil

import (
	"testing"
)

func TestCheckPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty", "", true},
		{"null byte", "cal\x00.ics", true},
		{"relative parent allowed", "../timetable.ics", false},
		{"plain", "timetable.ics", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckPath(%q) err = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty", "", true},
		{"null byte", "a\x00b", true},
		{"simple segment", "..", true},
		{"leading segment", "../foo", true},
		{"middle segment", "foo/../bar", true},
		{"dot prefix is not traversal", "scripts/..hidden/filter.js", false},
		{"valid relative", "scripts/filter.js", false},
		{"valid nested", "dir/scripts/filter.js", false},
		{"single segment", "filter.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilePath(%q) err = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestHasExtension(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"timetable.ics", true},
		{"TIMETABLE.ICS", true},
		{"dir/Timetable.Ics", true},
		{"timetable.ics.bak", false},
		{"timetable.txt", false},
		{"ics", false},
		{"timetable", false},
		{".ics", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := HasExtension(tt.path, ".ics"); got != tt.want {
				t.Errorf("HasExtension(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
