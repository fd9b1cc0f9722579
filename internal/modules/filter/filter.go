// Package filter provides implementations for filter modules.
// Filter modules narrow the list of calendar events. They only ever drop events:
// kept events are passed through unchanged and in their original order.
package filter

import (
	"context"
	"log/slog"

	"github.com/emersion/go-ical"

	"github.com/jbrulmans/uhasselt-ical/internal/logger"
)

// Module represents a filter module that selects events.
type Module interface {
	// Process returns the subset of events to keep, in input order.
	Process(ctx context.Context, events []*ical.Component) ([]*ical.Component, error)
}

// OnError behavior constants
const (
	// OnErrorFail aborts the run on the first evaluation error (default).
	OnErrorFail = "fail"
	// OnErrorSkip drops the event that failed to evaluate.
	OnErrorSkip = "skip"
	// OnErrorLog logs the failure and keeps the event.
	OnErrorLog = "log"
)

// normalizeOnError returns a valid onError value, defaulting to fail.
func normalizeOnError(moduleType, onError string) string {
	switch onError {
	case "":
		return OnErrorFail
	case OnErrorFail, OnErrorSkip, OnErrorLog:
		return onError
	default:
		logger.Warn("invalid onError value; defaulting to fail",
			slog.String("module_type", moduleType),
			slog.String("on_error", onError),
		)
		return OnErrorFail
	}
}

// isWhitespaceOnly checks if a string contains only whitespace characters.
func isWhitespaceOnly(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
