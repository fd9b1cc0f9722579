package filter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dop251/goja"

	"github.com/jbrulmans/uhasselt-ical/internal/logger"
)

// Console output limits
const (
	// MaxLogMessageLength is the maximum length of a single console message (8KB)
	MaxLogMessageLength = 8 * 1024
	// MaxObjectDepth is the maximum nesting rendered for objects and arrays
	MaxObjectDepth = 10
)

// jsConsole routes console.log/info/warn/error/debug calls from filter scripts
// to the structured logger.
type jsConsole struct {
	eventIdx int
}

// installConsole registers a console object in the runtime.
func installConsole(vm *goja.Runtime) (*jsConsole, error) {
	c := &jsConsole{eventIdx: -1}

	levels := map[string]slog.Level{
		"log":   slog.LevelInfo,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"debug": slog.LevelDebug,
	}

	console := vm.NewObject()
	for name, level := range levels {
		level := level
		fn := func(call goja.FunctionCall) goja.Value {
			c.write(level, call.Arguments)
			return goja.Undefined()
		}
		if err := console.Set(name, fn); err != nil {
			return nil, fmt.Errorf("console.Set(%q): %w", name, err)
		}
	}
	if err := vm.Set("console", console); err != nil {
		return nil, fmt.Errorf("runtime.Set(console): %w", err)
	}
	return c, nil
}

func (c *jsConsole) write(level slog.Level, args []goja.Value) {
	message := formatArgs(args)
	if len(message) > MaxLogMessageLength {
		message = message[:MaxLogMessageLength-3] + "..."
	}

	attrs := []any{
		slog.String("source", "javascript"),
		slog.String("module_type", "script"),
	}
	if c.eventIdx >= 0 {
		attrs = append(attrs, slog.Int("event_index", c.eventIdx))
	}

	switch level {
	case slog.LevelDebug:
		logger.Debug(message, attrs...)
	case slog.LevelWarn:
		logger.Warn(message, attrs...)
	case slog.LevelError:
		logger.Error(message, attrs...)
	default:
		logger.Info(message, attrs...)
	}
}

// formatArgs joins console arguments with spaces, like Node.js.
func formatArgs(args []goja.Value) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil || goja.IsUndefined(arg) {
			parts = append(parts, "undefined")
			continue
		}
		if goja.IsNull(arg) {
			parts = append(parts, "null")
			continue
		}
		if s, ok := arg.Export().(string); ok {
			parts = append(parts, s)
			continue
		}
		parts = append(parts, formatValue(arg.Export(), 0))
	}
	return strings.Join(parts, " ")
}

// formatValue renders an exported JavaScript value as compact JSON-like text.
func formatValue(v interface{}, depth int) string {
	if depth > MaxObjectDepth {
		return "[Object]"
	}
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		data, _ := json.Marshal(x)
		return string(data)
	case []interface{}:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, formatValue(item, depth+1))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		parts := make([]string, 0, len(x))
		for k, item := range x {
			key, _ := json.Marshal(k)
			parts = append(parts, string(key)+": "+formatValue(item, depth+1))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", x)
	}
}
