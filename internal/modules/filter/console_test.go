package filter

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/dop251/goja"
)

func mustConsole(t *testing.T, vm *goja.Runtime) *jsConsole {
	t.Helper()
	c, err := installConsole(vm)
	if err != nil {
		t.Fatalf("installConsole: %v", err)
	}
	return c
}

func TestConsoleLevels(t *testing.T) {
	records := captureLogs(t)
	vm := goja.New()
	_ = mustConsole(t, vm)

	tests := []struct {
		method string
		level  slog.Level
	}{
		{"log", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"debug", slog.LevelDebug},
	}
	for _, tt := range tests {
		if _, err := vm.RunString(`console.` + tt.method + `("msg")`); err != nil {
			t.Fatalf("console.%s failed: %v", tt.method, err)
		}
	}

	if len(*records) != len(tests) {
		t.Fatalf("got %d records, want %d", len(*records), len(tests))
	}
	for i, tt := range tests {
		if got := (*records)[i].Level; got != tt.level {
			t.Errorf("console.%s level = %v, want %v", tt.method, got, tt.level)
		}
	}
}

func TestConsoleFormatting(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"multiple arguments", `console.log("a", 1, true)`, "a 1 true"},
		{"null and undefined", `console.log(null, undefined)`, "null undefined"},
		{"array", `console.log([1, "two"])`, `[1, "two"]`},
		{"object", `console.log({k: "v"})`, `{"k": "v"}`},
		{"no arguments", `console.log()`, ""},
		{"unicode", `console.log("café ✓")`, "café ✓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := captureLogs(t)
			vm := goja.New()
			_ = mustConsole(t, vm)

			if _, err := vm.RunString(tt.script); err != nil {
				t.Fatalf("RunString: %v", err)
			}
			if len(*records) != 1 {
				t.Fatalf("got %d records, want 1", len(*records))
			}
			if got := (*records)[0].Message; got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConsoleDepthLimit(t *testing.T) {
	records := captureLogs(t)
	vm := goja.New()
	_ = mustConsole(t, vm)

	script := `var o = {}; var cur = o; for (var i = 0; i < 20; i++) { cur.n = {}; cur = cur.n; } console.log(o);`
	if _, err := vm.RunString(script); err != nil {
		t.Fatalf("RunString: %v", err)
	}
	if !strings.Contains((*records)[0].Message, "[Object]") {
		t.Errorf("deep object should be truncated, got %q", (*records)[0].Message)
	}
}

func TestConsoleTruncatesLongMessages(t *testing.T) {
	records := captureLogs(t)
	vm := goja.New()
	_ = mustConsole(t, vm)

	if _, err := vm.RunString(`console.log("x".repeat(20000))`); err != nil {
		t.Fatalf("RunString: %v", err)
	}
	msg := (*records)[0].Message
	if len(msg) != MaxLogMessageLength || !strings.HasSuffix(msg, "...") {
		t.Errorf("message length = %d, want %d ending in ...", len(msg), MaxLogMessageLength)
	}
}

func TestConsoleEventIndex(t *testing.T) {
	records := captureLogs(t)
	vm := goja.New()
	c := mustConsole(t, vm)

	if _, err := vm.RunString(`console.log("outside")`); err != nil {
		t.Fatalf("RunString: %v", err)
	}
	c.eventIdx = 7
	if _, err := vm.RunString(`console.log("inside")`); err != nil {
		t.Fatalf("RunString: %v", err)
	}

	if _, ok := recordAttr((*records)[0], "event_index"); ok {
		t.Error("event_index should be absent outside event processing")
	}
	idx, ok := recordAttr((*records)[1], "event_index")
	if !ok || idx.Int64() != 7 {
		t.Errorf("event_index = %v, want 7", idx)
	}
}
