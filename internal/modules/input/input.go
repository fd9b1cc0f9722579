// Package input provides implementations for input modules.
// Input modules are responsible for loading the source calendar.
package input

import (
	"context"

	"github.com/emersion/go-ical"
)

// Module represents an input module that loads a calendar from a source.
type Module interface {
	// Fetch retrieves and decodes the source calendar.
	// The context can be used to cancel long-running operations.
	Fetch(ctx context.Context) (*ical.Calendar, error)
	// Close releases any resources held by the module.
	Close() error
}
