package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jbrulmans/uhasselt-ical/internal/calendar"
	"github.com/jbrulmans/uhasselt-ical/internal/logger"
)

// Error codes for condition module
const (
	ErrCodeInvalidExpression = "INVALID_EXPRESSION"
	ErrCodeEvaluationFailed  = "EVALUATION_FAILED"
	ErrCodeUnsupportedLang   = "UNSUPPORTED_LANG"
)

// Common errors for condition module
var (
	// ErrEmptyExpression is returned when the expression is empty or whitespace-only
	ErrEmptyExpression = errors.New("expression cannot be empty")
	// ErrInvalidExpression is returned when the expression syntax is invalid
	ErrInvalidExpression = errors.New("invalid expression syntax")
	// ErrUnsupportedLang is returned when the language is not supported
	ErrUnsupportedLang = errors.New("unsupported expression language")
)

// LangExpr is the only supported expression language (github.com/expr-lang/expr).
const LangExpr = "expr"

// ConditionConfig represents the configuration for a condition filter module.
type ConditionConfig struct {
	// Expression is the boolean expression evaluated per event (required)
	Expression string `json:"expression"`
	// Lang is the expression language, "expr" (default)
	Lang string `json:"lang,omitempty"`
	// OnError specifies error handling mode: "fail" (default), "skip", "log"
	OnError string `json:"onError,omitempty"`
}

// Condition keeps the events for which an expression evaluates to true.
//
// The expression sees the event fields returned by calendar.Record: summary,
// description, location, status, categories, uid, start, end and allDay.
// Example: `status != "CANCELLED" && "LECTURE" in categories`.
type Condition struct {
	expression string
	onError    string
	program    *vm.Program
}

// ConditionError carries structured context for condition evaluation failures.
type ConditionError struct {
	Code       string
	Message    string
	Expression string
	EventIndex int
	UID        string
}

func (e *ConditionError) Error() string {
	return e.Message
}

// ParseConditionConfig parses a condition filter configuration from raw config.
func ParseConditionConfig(cfg map[string]interface{}) (ConditionConfig, error) {
	condConfig := ConditionConfig{}

	expression, ok := cfg["expression"].(string)
	if !ok || expression == "" {
		return condConfig, fmt.Errorf("required field 'expression' is missing or empty in condition config")
	}
	condConfig.Expression = expression

	if lang, ok := cfg["lang"].(string); ok {
		condConfig.Lang = lang
	}
	if onError, ok := cfg["onError"].(string); ok {
		condConfig.OnError = onError
	}
	return condConfig, nil
}

// NewConditionFromConfig creates a new condition filter module from configuration.
// The expression is compiled once; syntax errors are reported here.
func NewConditionFromConfig(config ConditionConfig) (*Condition, error) {
	if len(config.Expression) == 0 || isWhitespaceOnly(config.Expression) {
		return nil, ErrEmptyExpression
	}

	lang := config.Lang
	if lang == "" {
		lang = LangExpr
	}
	if lang != LangExpr {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLang, lang)
	}

	// AllowUndefinedVariables() handles unknown fields gracefully
	program, err := expr.Compile(config.Expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	onError := normalizeOnError("condition", config.OnError)

	logger.Debug("condition module initialized",
		slog.String("expression", config.Expression),
		slog.String("lang", lang),
		slog.String("on_error", onError),
	)

	return &Condition{
		expression: config.Expression,
		onError:    onError,
		program:    program,
	}, nil
}

// Process keeps the events for which the expression is true.
// Non-boolean results are converted with truthiness rules (zero values are false).
func (c *Condition) Process(ctx context.Context, events []*ical.Component) ([]*ical.Component, error) {
	if events == nil {
		return []*ical.Component{}, nil
	}

	startTime := time.Now()
	result := make([]*ical.Component, 0, len(events))

	for idx, event := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		output, err := expr.Run(c.program, calendar.Record(event))
		if err != nil {
			condErr := &ConditionError{
				Code:       ErrCodeEvaluationFailed,
				Message:    fmt.Sprintf("condition evaluation failed at event %d: %v", idx, err),
				Expression: c.expression,
				EventIndex: idx,
				UID:        calendar.UID(event),
			}

			switch c.onError {
			case OnErrorSkip:
				logger.Warn("skipping event due to condition evaluation error",
					slog.Int("event_index", idx),
					slog.String("expression", c.expression),
					slog.String("error", err.Error()),
				)
				continue
			case OnErrorLog:
				logger.Error("condition evaluation error (keeping event)",
					slog.Int("event_index", idx),
					slog.String("expression", c.expression),
					slog.String("error", err.Error()),
				)
				result = append(result, event)
				continue
			default:
				return nil, condErr
			}
		}

		if toBool(output) {
			result = append(result, event)
		}
	}

	logger.Debug("condition filter completed",
		slog.String("module_type", "condition"),
		slog.Int("input_events", len(events)),
		slog.Int("output_events", len(result)),
		slog.Duration("duration", time.Since(startTime)),
	)

	return result, nil
}

// toBool converts a value to boolean.
func toBool(value interface{}) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []interface{}:
		return len(v) > 0
	default:
		return true
	}
}

// Verify Condition implements Module
var _ Module = (*Condition)(nil)
