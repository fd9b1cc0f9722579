package filter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/emersion/go-ical"

	"github.com/jbrulmans/uhasselt-ical/internal/calendar"
	"github.com/jbrulmans/uhasselt-ical/internal/logger"
	"github.com/jbrulmans/uhasselt-ical/internal/pathutil"
)

// Error codes for script module
const (
	ErrCodeScriptEmpty          = "SCRIPT_EMPTY"
	ErrCodeScriptTooLong        = "SCRIPT_TOO_LONG"
	ErrCodeCompilationFailed    = "COMPILATION_FAILED"
	ErrCodeMissingFilter        = "MISSING_FILTER"
	ErrCodeNotFunction          = "NOT_FUNCTION"
	ErrCodeExecutionFailed      = "EXECUTION_FAILED"
	ErrCodeInvalidScriptFile    = "INVALID_SCRIPT_FILE"
	ErrCodeScriptFileReadFailed = "SCRIPT_FILE_READ_FAILED"
)

// MaxScriptLength is the maximum allowed script length in bytes (100KB)
const MaxScriptLength = 100 * 1024

// Common errors for script module
var (
	// ErrScriptEmpty is returned when the script is empty or whitespace-only
	ErrScriptEmpty = fmt.Errorf("script cannot be empty")
	// ErrScriptTooLong is returned when the script exceeds MaxScriptLength
	ErrScriptTooLong = fmt.Errorf("script exceeds maximum length")
	// ErrMissingFilterFunc is returned when the script doesn't define a filter function
	ErrMissingFilterFunc = fmt.Errorf("filter function not found in script")
	// ErrFilterNotFunction is returned when filter is defined but is not a function
	ErrFilterNotFunction = fmt.Errorf("filter is not a function")
)

// ScriptConfig represents the configuration for a script filter module.
// Either Script or ScriptFile must be provided (but not both).
type ScriptConfig struct {
	// Script is the inline JavaScript source code containing a filter(event) function
	Script string `json:"script,omitempty"`
	// ScriptFile is the path to a JavaScript file containing the filter(event) function
	ScriptFile string `json:"scriptFile,omitempty"`
	// OnError specifies error handling mode: "fail" (default), "skip", "log"
	OnError string `json:"onError,omitempty"`
}

// Script keeps the events for which a JavaScript filter(event) function returns a
// truthy value. Scripts run in a Goja runtime without file system or network access.
//
// The event object has the fields of calendar.Record, with start and end as RFC 3339
// strings (or null) and categories as an array.
//
// Thread Safety:
//   - Goja runtime instances are NOT goroutine-safe
//   - Each Script instance has its own runtime
//   - Process() should not be called concurrently on the same instance
type Script struct {
	onError     string
	runtime     *goja.Runtime
	console     *jsConsole
	filterFn    goja.Callable
	interruptMu sync.Mutex
}

// ScriptError carries structured context for script execution failures.
type ScriptError struct {
	Code       string
	Message    string
	EventIndex int
	StackTrace string
	Err        error
}

func (e *ScriptError) Error() string {
	return e.Message
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

func newScriptError(code, message string, eventIdx int, stackTrace string, err error) *ScriptError {
	return &ScriptError{
		Code:       code,
		Message:    message,
		EventIndex: eventIdx,
		StackTrace: stackTrace,
		Err:        err,
	}
}

// ParseScriptConfig parses a script filter configuration from raw config.
func ParseScriptConfig(cfg map[string]interface{}) (ScriptConfig, error) {
	config := ScriptConfig{}

	script, hasScript := cfg["script"].(string)
	scriptFile, hasScriptFile := cfg["scriptFile"].(string)

	if hasScript && hasScriptFile {
		return config, fmt.Errorf("cannot specify both 'script' and 'scriptFile' - use only one")
	}

	if !hasScript && !hasScriptFile {
		if cfg["script"] != nil {
			return config, fmt.Errorf("field 'script' must be a string")
		}
		if cfg["scriptFile"] != nil {
			return config, fmt.Errorf("field 'scriptFile' must be a string")
		}
		return config, fmt.Errorf("either 'script' or 'scriptFile' is required in script config")
	}

	config.Script = script
	config.ScriptFile = scriptFile

	if onError, ok := cfg["onError"].(string); ok {
		config.OnError = onError
	}
	return config, nil
}

// NewScriptFromConfig creates a new script filter module from configuration.
// The script is run once to define its functions, then filter is looked up.
func NewScriptFromConfig(config ScriptConfig) (*Script, error) {
	source, err := resolveScriptSource(config)
	if err != nil {
		return nil, err
	}

	if err := validateScript(source); err != nil {
		return nil, err
	}

	vm := goja.New()
	console, err := installConsole(vm)
	if err != nil {
		return nil, err
	}

	if _, err := vm.RunString(source); err != nil {
		return nil, newScriptError(ErrCodeCompilationFailed, fmt.Sprintf("script compilation failed: %v", err), -1, "", err)
	}

	filterFn, err := getFilterFunction(vm)
	if err != nil {
		return nil, err
	}

	onError := normalizeOnError("script", config.OnError)

	logger.Debug("script module initialized",
		slog.Int("script_length", len(source)),
		slog.String("on_error", onError),
		slog.Bool("from_file", config.ScriptFile != ""),
	)

	return &Script{
		onError:  onError,
		runtime:  vm,
		console:  console,
		filterFn: filterFn,
	}, nil
}

// resolveScriptSource returns the script source code, either from inline config or from file.
func resolveScriptSource(config ScriptConfig) (string, error) {
	if config.Script != "" && config.ScriptFile != "" {
		return "", newScriptError(ErrCodeInvalidScriptFile, "cannot specify both 'script' and 'scriptFile' - use only one", -1, "", nil)
	}
	if config.Script != "" {
		return config.Script, nil
	}
	if config.ScriptFile == "" {
		return "", newScriptError(ErrCodeScriptEmpty, "either 'script' or 'scriptFile' must be provided", -1, "", ErrScriptEmpty)
	}

	if err := pathutil.ValidateFilePath(config.ScriptFile); err != nil {
		return "", newScriptError(ErrCodeInvalidScriptFile, fmt.Sprintf("invalid scriptFile: %v", err), -1, "", err)
	}
	if filepath.IsAbs(config.ScriptFile) {
		logger.Debug("scriptFile uses absolute path", slog.String("path", config.ScriptFile))
	}

	// Check file size before reading to prevent memory exhaustion
	fileInfo, err := os.Stat(config.ScriptFile)
	if err != nil {
		return "", newScriptError(ErrCodeScriptFileReadFailed, fmt.Sprintf("failed to stat script file %q: %v", config.ScriptFile, err), -1, "", err)
	}
	if fileInfo.Size() > MaxScriptLength {
		return "", newScriptError(ErrCodeScriptTooLong, fmt.Sprintf("script file %q exceeds maximum length: %d bytes exceeds maximum %d bytes", config.ScriptFile, fileInfo.Size(), MaxScriptLength), -1, "", ErrScriptTooLong)
	}

	file, err := os.Open(config.ScriptFile)
	if err != nil {
		return "", newScriptError(ErrCodeScriptFileReadFailed, fmt.Sprintf("failed to open script file %q: %v", config.ScriptFile, err), -1, "", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.Warn("failed to close script file",
				slog.String("file", config.ScriptFile),
				slog.String("error", closeErr.Error()),
			)
		}
	}()

	// The file may grow between Stat and Read
	content, err := io.ReadAll(io.LimitReader(file, MaxScriptLength+1))
	if err != nil {
		return "", newScriptError(ErrCodeScriptFileReadFailed, fmt.Sprintf("failed to read script file %q: %v", config.ScriptFile, err), -1, "", err)
	}
	if len(content) > MaxScriptLength {
		return "", newScriptError(ErrCodeScriptTooLong, fmt.Sprintf("script file %q exceeds maximum length: file is larger than %d bytes", config.ScriptFile, MaxScriptLength), -1, "", ErrScriptTooLong)
	}

	return string(content), nil
}

// validateScript validates the script is non-empty and within length limits.
func validateScript(script string) error {
	if len(script) == 0 || isWhitespaceOnly(script) {
		return newScriptError(ErrCodeScriptEmpty, "script cannot be empty", -1, "", ErrScriptEmpty)
	}
	if len(script) > MaxScriptLength {
		return newScriptError(ErrCodeScriptTooLong, fmt.Sprintf("script exceeds maximum length: %d bytes exceeds maximum %d bytes", len(script), MaxScriptLength), -1, "", ErrScriptTooLong)
	}
	return nil
}

// getFilterFunction retrieves and validates the filter function from the runtime.
func getFilterFunction(vm *goja.Runtime) (goja.Callable, error) {
	filterVal := vm.Get("filter")
	if filterVal == nil || goja.IsUndefined(filterVal) {
		return nil, newScriptError(ErrCodeMissingFilter, "filter function not found in script", -1, "", ErrMissingFilterFunc)
	}

	filterFn, ok := goja.AssertFunction(filterVal)
	if !ok {
		return nil, newScriptError(ErrCodeNotFunction, "filter is not a function", -1, "", ErrFilterNotFunction)
	}
	return filterFn, nil
}

// Process calls filter(event) for each event and keeps those with a truthy result.
func (m *Script) Process(ctx context.Context, events []*ical.Component) ([]*ical.Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if events == nil {
		return []*ical.Component{}, nil
	}

	startTime := time.Now()
	result := make([]*ical.Component, 0, len(events))
	errorCount := 0

	for idx, event := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		keep, err := m.processEvent(ctx, event, idx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errorCount++
			switch m.onError {
			case OnErrorSkip:
				logger.Warn("skipping event due to script error",
					slog.String("module_type", "script"),
					slog.Int("event_index", idx),
					slog.String("error", err.Error()),
				)
				continue
			case OnErrorLog:
				logger.Error("script error (keeping event)",
					slog.String("module_type", "script"),
					slog.Int("event_index", idx),
					slog.String("error", err.Error()),
				)
				result = append(result, event)
				continue
			default:
				logger.Error("filter processing failed",
					slog.String("module_type", "script"),
					slog.Int("event_index", idx),
					slog.Duration("duration", time.Since(startTime)),
					slog.String("error", err.Error()),
				)
				return nil, err
			}
		}
		if keep {
			result = append(result, event)
		}
	}

	logger.Debug("script filter completed",
		slog.String("module_type", "script"),
		slog.Int("input_events", len(events)),
		slog.Int("output_events", len(result)),
		slog.Int("error_count", errorCount),
		slog.Duration("duration", time.Since(startTime)),
	)
	return result, nil
}

// processEvent runs filter(event) for one event.
// The context interrupts JavaScript execution if canceled.
func (m *Script) processEvent(ctx context.Context, event *ical.Component, eventIdx int) (bool, error) {
	interruptDone := make(chan struct{})
	defer close(interruptDone)

	go func() {
		select {
		case <-ctx.Done():
			m.interruptMu.Lock()
			m.runtime.Interrupt(ctx.Err().Error())
			m.interruptMu.Unlock()
		case <-interruptDone:
		}
	}()

	m.console.eventIdx = eventIdx
	defer func() { m.console.eventIdx = -1 }()

	value, err := m.filterFn(goja.Undefined(), m.runtime.ToValue(scriptRecord(event)))

	m.interruptMu.Lock()
	m.runtime.ClearInterrupt()
	m.interruptMu.Unlock()

	if err != nil {
		return false, m.handleJSError(err, eventIdx)
	}
	return value.ToBoolean(), nil
}

// scriptRecord converts calendar.Record into JavaScript-friendly values.
func scriptRecord(event *ical.Component) map[string]interface{} {
	record := calendar.Record(event)
	for _, key := range []string{calendar.FieldStart, calendar.FieldEnd} {
		if t, ok := record[key].(time.Time); ok {
			record[key] = t.Format(time.RFC3339)
		}
	}
	return record
}

// handleJSError converts a JavaScript error to a Go error with context.
func (m *Script) handleJSError(err error, eventIdx int) error {
	if jsErr, ok := err.(*goja.Exception); ok {
		stackTrace := ""
		if obj, ok := jsErr.Value().(*goja.Object); ok {
			if stack := obj.Get("stack"); stack != nil && !goja.IsUndefined(stack) {
				stackTrace = stack.String()
			}
		}
		message := fmt.Sprintf("script execution failed at event %d: %v", eventIdx, jsErr.Value())
		return newScriptError(ErrCodeExecutionFailed, message, eventIdx, stackTrace, err)
	}

	message := fmt.Sprintf("script execution failed at event %d: %v", eventIdx, err)
	return newScriptError(ErrCodeExecutionFailed, message, eventIdx, "", err)
}

// Verify Script implements Module
var _ Module = (*Script)(nil)
