package filter

import (
	"context"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"

	"github.com/jbrulmans/uhasselt-ical/internal/calendar"
	"github.com/jbrulmans/uhasselt-ical/internal/logger"
)

// Courses keeps the events whose summary or description contains one of the
// course keywords, ignoring case.
type Courses struct {
	criteria calendar.Criteria
	stats    calendar.Stats
}

// NewCourses creates a course filter from validated criteria.
func NewCourses(criteria calendar.Criteria) *Courses {
	return &Courses{criteria: criteria}
}

// Process selects matching events in input order. Cancellation is checked between
// events.
func (m *Courses) Process(ctx context.Context, events []*ical.Component) ([]*ical.Component, error) {
	startTime := time.Now()
	selected, stats, err := calendar.SelectContext(ctx, events, m.criteria)
	m.stats = stats
	if err != nil {
		return nil, err
	}

	logger.Info("course filter completed",
		slog.String("module_type", "courses"),
		slog.Any("courses", m.criteria.Keywords()),
		slog.Int("input_events", stats.EventsSeen),
		slog.Int("output_events", stats.Selected),
		slog.Int("missing_summary", stats.MissingSummary),
		slog.Int("missing_description", stats.MissingDescription),
		slog.Duration("duration", time.Since(startTime)),
	)
	return selected, nil
}

// Stats returns the counters of the last Process call.
func (m *Courses) Stats() calendar.Stats {
	return m.stats
}

// Verify Courses implements Module
var _ Module = (*Courses)(nil)
