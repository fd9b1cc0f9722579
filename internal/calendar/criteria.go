package calendar

import (
	"context"
	"log/slog"
	"strings"

	"github.com/emersion/go-ical"

	"github.com/jbrulmans/uhasselt-ical/internal/errhandling"
	"github.com/jbrulmans/uhasselt-ical/internal/logger"
)

// Criteria is the ordered, non-empty list of course keywords an event must match.
// Keywords are stored lowercased.
type Criteria struct {
	keywords []string
}

// NewCriteria builds Criteria from user supplied course names.
// Only an empty list is rejected. Keywords are used verbatim, so a whitespace-only
// keyword matches any field containing that whitespace and an empty keyword matches any
// present field. Duplicates are collapsed ignoring case, keeping the first occurrence.
func NewCriteria(courses []string) (Criteria, error) {
	if len(courses) == 0 {
		return Criteria{}, errhandling.NewValidationError("at least one course is required", nil)
	}

	seen := make(map[string]bool, len(courses))
	keywords := make([]string, 0, len(courses))
	for _, course := range courses {
		keyword := strings.ToLower(course)
		if seen[keyword] {
			continue
		}
		seen[keyword] = true
		keywords = append(keywords, keyword)
	}

	return Criteria{keywords: keywords}, nil
}

// Keywords returns a copy of the lowercased keywords.
func (c Criteria) Keywords() []string {
	out := make([]string, len(c.keywords))
	copy(out, c.keywords)
	return out
}

// Len returns the number of distinct keywords.
func (c Criteria) Len() int {
	return len(c.keywords)
}

// Match reports whether event matches and, if so, the first matching keyword.
// The title is tested before the description for each keyword. An absent field never
// matches.
func (c Criteria) Match(event *ical.Component) (string, bool) {
	summary, hasSummary := Summary(event)
	description, hasDescription := Description(event)
	return c.match(summary, hasSummary, description, hasDescription)
}

func (c Criteria) match(summary string, hasSummary bool, description string, hasDescription bool) (string, bool) {
	title := strings.ToLower(summary)
	text := strings.ToLower(description)
	for _, keyword := range c.keywords {
		if hasSummary && strings.Contains(title, keyword) {
			return keyword, true
		}
		if hasDescription && strings.Contains(text, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// Stats collects counters while selecting events.
type Stats struct {
	// EventsSeen is the number of VEVENT components examined.
	EventsSeen int
	// Selected is the number of events kept.
	Selected int
	// MissingSummary counts events without a SUMMARY property.
	MissingSummary int
	// MissingDescription counts events without a DESCRIPTION property.
	MissingDescription int
	// SkippedComponents counts non-event components that were not copied.
	SkippedComponents int
}

// Select returns the events matching c, in input order, each at most once.
// Events missing a summary or description are still considered on the other field.
func Select(events []*ical.Component, c Criteria) ([]*ical.Component, Stats) {
	selected, stats, _ := SelectContext(context.Background(), events, c)
	return selected, stats
}

// SelectContext is Select with cancellation checked before each event. On cancellation
// it returns ctx.Err() together with the selection and stats gathered so far.
func SelectContext(ctx context.Context, events []*ical.Component, c Criteria) ([]*ical.Component, Stats, error) {
	var stats Stats
	selected := make([]*ical.Component, 0, len(events))

	for idx, event := range events {
		if err := ctx.Err(); err != nil {
			stats.Selected = len(selected)
			return selected, stats, err
		}
		stats.EventsSeen++

		summary, hasSummary := Summary(event)
		description, hasDescription := Description(event)
		if !hasSummary {
			stats.MissingSummary++
			logger.Debug("event has no summary",
				slog.Int("event_index", idx),
				slog.String("uid", UID(event)),
			)
		}
		if !hasDescription {
			stats.MissingDescription++
			logger.Debug("event has no description",
				slog.Int("event_index", idx),
				slog.String("uid", UID(event)),
			)
		}

		keyword, ok := c.match(summary, hasSummary, description, hasDescription)
		if !ok {
			continue
		}
		logger.Debug("event selected",
			slog.Int("event_index", idx),
			slog.String("keyword", keyword),
			slog.String("summary", summary),
		)
		selected = append(selected, event)
	}

	stats.Selected = len(selected)
	return selected, stats, nil
}

// Filter builds the output document for src: recognized metadata, optional timezones,
// and the events matching c in input order.
func Filter(src *ical.Calendar, c Criteria, opts Options) (*ical.Calendar, Stats) {
	doc := NewDocument(src, opts)

	events := Events(src)
	selected, stats := Select(events, c)
	stats.SkippedComponents = len(src.Children) - len(events)
	if opts.KeepTimezones {
		stats.SkippedComponents -= len(doc.Children)
	}

	doc.Children = append(doc.Children, selected...)
	return doc, stats
}
