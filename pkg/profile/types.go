// Package profile provides public types describing a filter run.
// This package is intended to be importable by external projects that need
// to drive the uhasselt-ical runtime programmatically.
package profile

import "time"

// Profile represents a complete filter run: where to read the timetable, which
// courses to keep, which extra filters to apply, and where to write the result.
type Profile struct {
	// Name is an optional human-readable name for the profile
	Name string `json:"name,omitempty"`

	// Input is the path of the .ics file to read
	Input string `json:"input"`

	// Output is the path of the .ics file to write (defaults to output.ics)
	Output string `json:"output,omitempty"`

	// Courses are the keywords matched against event titles and descriptions
	Courses []string `json:"courses"`

	// KeepTimezones copies VTIMEZONE components into the output
	KeepTimezones bool `json:"keepTimezones,omitempty"`

	// DryRun reports what would be written without touching the output path
	DryRun bool `json:"dryRun,omitempty"`

	// Filters is an ordered list of extra filters run after the course filter
	Filters []FilterConfig `json:"filters,omitempty"`
}

// FilterConfig represents the configuration of one extra filter.
type FilterConfig struct {
	// Type identifies the filter (e.g., "condition", "script")
	Type string `json:"type"`

	// Config contains the filter-specific configuration
	Config map[string]interface{} `json:"config"`
}

// Execution status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ExecutionResult represents the result of a filter run.
type ExecutionResult struct {
	// RunID identifies the run in logs
	RunID string `json:"runId"`

	// Status is the execution status ("success" or "error")
	Status string `json:"status"`

	// StartedAt is when execution started
	StartedAt time.Time `json:"startedAt"`

	// CompletedAt is when execution completed
	CompletedAt time.Time `json:"completedAt"`

	// InputPath is the calendar that was read
	InputPath string `json:"inputPath"`

	// OutputPath is the calendar that was (or would have been) written
	OutputPath string `json:"outputPath"`

	// EventsRead is the number of VEVENT components in the input
	EventsRead int `json:"eventsRead"`

	// EventsSelected is the number of events kept after all filters
	EventsSelected int `json:"eventsSelected"`

	// MissingSummary counts events without a SUMMARY
	MissingSummary int `json:"missingSummary"`

	// MissingDescription counts events without a DESCRIPTION
	MissingDescription int `json:"missingDescription"`

	// ComponentsSkipped counts non-event components left out of the output
	ComponentsSkipped int `json:"componentsSkipped"`

	// Written reports whether the output file was written
	Written bool `json:"written"`

	// Error contains error details if execution failed
	Error *ExecutionError `json:"error,omitempty"`

	// DryRunPreview describes the output that would be written (dry-run mode only)
	DryRunPreview *OutputPreview `json:"dryRunPreview,omitempty"`
}

// OutputPreview describes the calendar a dry run would have written.
type OutputPreview struct {
	// Path is the destination that would be written
	Path string `json:"path"`

	// EventCount is the number of events in the encoded calendar
	EventCount int `json:"eventCount"`

	// Bytes is the size of the encoded calendar
	Bytes int `json:"bytes"`

	// Summaries lists the event titles in output order
	Summaries []string `json:"summaries"`
}

// ExecutionError contains details about an execution failure.
type ExecutionError struct {
	// Code is the error code
	Code string `json:"code"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Module is the stage where the error occurred (input, filter, output)
	Module string `json:"module,omitempty"`

	// Category is the error classification (not_found, parse, io, ...)
	Category string `json:"category,omitempty"`

	// Path is the file the error relates to
	Path string `json:"path,omitempty"`

	// Details contains additional error context
	Details map[string]interface{} `json:"details,omitempty"`
}
