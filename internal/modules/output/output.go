// Package output provides implementations for output modules.
// Output modules are responsible for writing the filtered calendar to its destination.
package output

import (
	"context"

	"github.com/emersion/go-ical"
)

// Module represents an output module that writes a calendar to a destination.
type Module interface {
	// Send writes the calendar to the destination system.
	// Returns the number of events written and any error.
	Send(ctx context.Context, doc *ical.Calendar) (int, error)

	// Close releases any resources held by the module.
	Close() error
}

// Preview describes what an output module would write, without writing it.
type Preview struct {
	// Path is the destination that would be written
	Path string
	// EventCount is the number of events in the encoded calendar
	EventCount int
	// Bytes is the size of the encoded calendar
	Bytes int
	// Summaries lists the event titles in output order
	Summaries []string
}

// PreviewableModule is implemented by output modules supporting dry-run previews.
type PreviewableModule interface {
	Preview(doc *ical.Calendar) (Preview, error)
}
