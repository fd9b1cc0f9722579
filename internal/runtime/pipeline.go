// Package runtime provides the execution engine of a filter run.
// It orchestrates the input, filter, and output modules in sequence.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/jbrulmans/uhasselt-ical/internal/calendar"
	"github.com/jbrulmans/uhasselt-ical/internal/logger"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/filter"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/input"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/output"
	"github.com/jbrulmans/uhasselt-ical/pkg/profile"
)

// statsProvider is implemented by filters that count what they saw.
type statsProvider interface {
	Stats() calendar.Stats
}

// Executor runs a profile: Input → Filters → Output.
//
// The Executor only interacts with modules through their interfaces, so modules
// can be replaced in tests and new module types never touch the runtime.
type Executor struct {
	inputModule   input.Module
	filterModules []filter.Module
	outputModule  output.Module
}

// NewExecutorWithModules creates an executor with all modules configured.
// filterModules run in order; the first is normally the course filter.
func NewExecutorWithModules(inputModule input.Module, filterModules []filter.Module, outputModule output.Module) *Executor {
	return &Executor{
		inputModule:   inputModule,
		filterModules: filterModules,
		outputModule:  outputModule,
	}
}

// run carries the state of a single execution.
type run struct {
	p        *profile.Profile
	result   *profile.ExecutionResult
	execCtx  logger.ExecutionContext
	started  time.Time
	timings  stageTimings
	selected []*ical.Component
}

// stageTimings holds timing measurements for each execution stage
type stageTimings struct {
	input  time.Duration
	filter time.Duration
	output time.Duration
}

// Execute runs p and returns the execution result.
// The result is always non-nil; on failure its Error field describes the failing
// stage and the returned error is the classified stage error.
//
// Resource Management:
//   - Input module: closed as soon as the calendar has been read, even on error.
//   - Output module: closed at the end of execution.
func (e *Executor) Execute(ctx context.Context, p *profile.Profile) (*profile.ExecutionResult, error) {
	r := &run{
		p:       p,
		started: time.Now(),
		result: &profile.ExecutionResult{
			RunID:  uuid.NewString(),
			Status: profile.StatusError,
		},
	}
	r.result.StartedAt = r.started

	if err := e.validateExecution(r); err != nil {
		return r.result, err
	}

	r.result.InputPath = p.Input
	r.result.OutputPath = p.Output
	r.execCtx = logger.ExecutionContext{
		RunID:       r.result.RunID,
		InputPath:   p.Input,
		OutputPath:  p.Output,
		DryRun:      p.DryRun,
		FilterIndex: -1,
	}
	logger.LogExecutionStart(r.execCtx)

	defer e.closeModule(r, "output", e.outputModule)

	src, err := e.executeInput(ctx, r)
	e.closeModule(r, "input", e.inputModule)
	if err != nil {
		return e.fail(r, err)
	}

	doc := calendar.NewDocument(src, calendar.Options{KeepTimezones: p.KeepTimezones})
	events := calendar.Events(src)
	r.result.EventsRead = len(events)
	r.result.ComponentsSkipped = len(src.Children) - len(events) - len(doc.Children)

	if err := e.executeFilters(ctx, r, events); err != nil {
		return e.fail(r, err)
	}
	doc.Children = append(doc.Children, r.selected...)
	r.result.EventsSelected = len(r.selected)

	if err := e.executeOutput(ctx, r, doc); err != nil {
		return e.fail(r, err)
	}

	e.finalizeSuccess(r)
	return r.result, nil
}

// validateExecution checks the profile and modules before anything is logged.
func (e *Executor) validateExecution(r *run) error {
	var err error
	module := ""
	switch {
	case r.p == nil:
		err = ErrNilProfile
	case e.inputModule == nil:
		err, module = ErrNilInputModule, "input"
	case e.outputModule == nil:
		err, module = ErrNilOutputModule, "output"
	default:
		return nil
	}

	logger.Error("execution failed", slog.String("run_id", r.result.RunID), slog.String("error", err.Error()))
	r.result.CompletedAt = time.Now()
	r.result.Error = buildExecutionError(ErrCodeInvalidInput, module, err)
	return err
}

// moduleCloser is implemented by modules holding resources.
type moduleCloser interface {
	Close() error
}

// closeModule closes a module and logs any error.
func (e *Executor) closeModule(r *run, moduleName string, m moduleCloser) {
	if err := m.Close(); err != nil {
		logger.Warn("failed to close module",
			slog.String("run_id", r.result.RunID),
			slog.String("module", moduleName),
			slog.String("error", err.Error()),
		)
	}
}

// executeInput reads and decodes the input calendar.
func (e *Executor) executeInput(ctx context.Context, r *run) (*ical.Calendar, error) {
	stageCtx := r.stage("input", "icsFile")
	logger.LogStageStart(stageCtx)

	start := time.Now()
	src, err := e.inputModule.Fetch(ctx)
	r.timings.input = time.Since(start)

	if err != nil {
		r.result.Error = buildExecutionError(ErrCodeInputFailed, "input", err)
		logger.LogStageEnd(stageCtx, 0, r.timings.input, &logger.ExecutionError{
			Code:    ErrCodeInputFailed,
			Message: err.Error(),
		})
		return nil, fmt.Errorf("executing input module: %w", err)
	}

	logger.LogStageEnd(stageCtx, len(calendar.Events(src)), r.timings.input, nil)
	return src, nil
}

// executeFilters runs the filter chain over events and stores the selection.
func (e *Executor) executeFilters(ctx context.Context, r *run, events []*ical.Component) error {
	stageCtx := r.stage("filter", "")
	logger.LogStageStart(stageCtx)

	start := time.Now()
	current := events
	for i, module := range e.filterModules {
		if module == nil {
			logger.Warn("nil filter module encountered; skipping",
				slog.String("run_id", r.result.RunID),
				slog.Int("filter_index", i),
			)
			continue
		}

		next, err := module.Process(ctx, current)
		if err != nil {
			r.timings.filter = time.Since(start)
			msg := fmt.Sprintf("filter module %d failed: %v", i, err)
			r.result.Error = buildExecutionError(ErrCodeFilterFailed, "filter", err)
			r.result.Error.Message = msg
			r.result.Error.Details = map[string]interface{}{"filterIndex": i}
			logger.LogStageEnd(stageCtx, len(current), r.timings.filter, &logger.ExecutionError{
				Code:    ErrCodeFilterFailed,
				Message: msg,
			})
			return fmt.Errorf("executing filter module %d: %w", i, err)
		}

		if sp, ok := module.(statsProvider); ok {
			stats := sp.Stats()
			r.result.MissingSummary = stats.MissingSummary
			r.result.MissingDescription = stats.MissingDescription
		}
		logger.Debug("filter module completed",
			slog.String("run_id", r.result.RunID),
			slog.Int("filter_index", i),
			slog.Int("input_events", len(current)),
			slog.Int("output_events", len(next)),
		)
		current = next
	}
	r.timings.filter = time.Since(start)
	r.selected = current

	logger.LogStageEnd(stageCtx, len(current), r.timings.filter, nil)
	return nil
}

// executeOutput writes doc, or previews it in dry-run mode.
// A calendar without events is still written so no stale output survives.
func (e *Executor) executeOutput(ctx context.Context, r *run, doc *ical.Calendar) error {
	stageCtx := r.stage("output", "icsFile")
	logger.LogStageStart(stageCtx)
	start := time.Now()

	if r.p.DryRun {
		r.result.DryRunPreview = e.executeDryRunPreview(r, doc)
		r.timings.output = time.Since(start)
		logger.LogStageEnd(stageCtx, len(r.selected), r.timings.output, nil)
		return nil
	}

	if len(r.selected) == 0 {
		logger.Warn("no events matched the given courses; writing a calendar without events",
			slog.String("run_id", r.result.RunID),
			slog.String("output_path", r.p.Output),
		)
	}

	written, err := e.outputModule.Send(ctx, doc)
	r.timings.output = time.Since(start)
	if err != nil {
		r.result.Error = buildExecutionError(ErrCodeOutputFailed, "output", err)
		logger.LogStageEnd(stageCtx, 0, r.timings.output, &logger.ExecutionError{
			Code:    ErrCodeOutputFailed,
			Message: err.Error(),
		})
		return fmt.Errorf("executing output module: %w", err)
	}

	r.result.Written = true
	logger.LogStageEnd(stageCtx, written, r.timings.output, nil)
	return nil
}

// executeDryRunPreview describes what would be written.
// Returns nil if the output module does not support previews.
func (e *Executor) executeDryRunPreview(r *run, doc *ical.Calendar) *profile.OutputPreview {
	previewable, ok := e.outputModule.(output.PreviewableModule)
	if !ok {
		logger.Debug("output module does not implement PreviewableModule, skipping preview",
			slog.String("run_id", r.result.RunID),
		)
		return nil
	}

	preview, err := previewable.Preview(doc)
	if err != nil {
		logger.Error("failed to generate dry-run preview",
			slog.String("run_id", r.result.RunID),
			slog.Int("event_count", len(r.selected)),
			slog.String("error", err.Error()),
		)
		return &profile.OutputPreview{
			Path:       r.p.Output,
			EventCount: len(r.selected),
			Summaries:  []string{fmt.Sprintf("[PREVIEW GENERATION FAILED] %v", err)},
		}
	}

	return &profile.OutputPreview{
		Path:       preview.Path,
		EventCount: preview.EventCount,
		Bytes:      preview.Bytes,
		Summaries:  preview.Summaries,
	}
}

// fail completes a failed execution.
func (e *Executor) fail(r *run, err error) (*profile.ExecutionResult, error) {
	r.result.CompletedAt = time.Now()
	errCtx := logger.ErrorContext{
		RunID:        r.result.RunID,
		ErrorMessage: err.Error(),
		Err:          err,
		EventIndex:   -1,
		EventCount:   r.result.EventsRead,
		Duration:     time.Since(r.started),
	}
	if execErr := r.result.Error; execErr != nil {
		errCtx.Stage = execErr.Module
		errCtx.ErrorCode = execErr.Code
		errCtx.Path = execErr.Path
		errCtx.Extra = map[string]interface{}{"category": execErr.Category}
	}
	logger.LogError("execution failed", errCtx)
	logger.LogExecutionEnd(r.execCtx, profile.StatusError, r.result.EventsSelected, time.Since(r.started))
	return r.result, err
}

// finalizeSuccess marks the execution as successful and logs metrics.
func (e *Executor) finalizeSuccess(r *run) {
	r.result.Status = profile.StatusSuccess
	r.result.CompletedAt = time.Now()
	r.result.Error = nil

	total := time.Since(r.started)
	var eventsPerSecond float64
	if r.result.EventsRead > 0 && r.timings.filter > 0 {
		eventsPerSecond = float64(r.result.EventsRead) / r.timings.filter.Seconds()
	}

	metrics := logger.ExecutionMetrics{
		TotalDuration:   total,
		InputDuration:   r.timings.input,
		FilterDuration:  r.timings.filter,
		OutputDuration:  r.timings.output,
		EventsRead:      r.result.EventsRead,
		EventsSelected:  r.result.EventsSelected,
		EventsPerSecond: eventsPerSecond,
	}
	logger.LogExecutionEnd(r.execCtx, profile.StatusSuccess, r.result.EventsSelected, total)
	logger.LogMetrics(r.execCtx, metrics)
	logger.Debug(logger.FormatMetricsHuman(metrics), slog.String("run_id", r.result.RunID))
}

// stage returns the logging context of one stage.
func (r *run) stage(name, moduleType string) logger.ExecutionContext {
	ctx := r.execCtx
	ctx.Stage = name
	ctx.ModuleType = moduleType
	return ctx
}
