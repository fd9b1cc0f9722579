package filter

import (
	"context"
	"log/slog"
	"testing"

	"github.com/emersion/go-ical"

	"github.com/jbrulmans/uhasselt-ical/internal/calendar"
	"github.com/jbrulmans/uhasselt-ical/internal/logger"
)

// testLogHandler captures log records for testing.
type testLogHandler struct {
	records *[]slog.Record
}

func (h *testLogHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }
func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	*h.records = append(*h.records, r.Clone())
	return nil
}
func (h *testLogHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *testLogHandler) WithGroup(_ string) slog.Handler      { return h }

// captureLogs swaps the package logger for one that records every entry.
func captureLogs(t *testing.T) *[]slog.Record {
	t.Helper()
	records := &[]slog.Record{}
	orig := logger.Logger
	logger.Logger = slog.New(&testLogHandler{records: records})
	t.Cleanup(func() { logger.Logger = orig })
	return records
}

func recordAttr(r slog.Record, key string) (slog.Value, bool) {
	var found slog.Value
	ok := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			found = a.Value
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

type eventSpec struct {
	uid         string
	summary     string
	description string
	status      string
	categories  string
}

func newEvents(specs ...eventSpec) []*ical.Component {
	events := make([]*ical.Component, 0, len(specs))
	for _, es := range specs {
		event := ical.NewComponent(ical.CompEvent)
		event.Props.SetText(ical.PropUID, es.uid)
		if es.summary != "" {
			event.Props.SetText(ical.PropSummary, es.summary)
		}
		if es.description != "" {
			event.Props.SetText(ical.PropDescription, es.description)
		}
		if es.status != "" {
			event.Props.SetText(ical.PropStatus, es.status)
		}
		if es.categories != "" {
			event.Props.Set(&ical.Prop{Name: ical.PropCategories, Params: ical.Params{}, Value: es.categories})
		}
		events = append(events, event)
	}
	return events
}

func uidsOf(events []*ical.Component) []string {
	out := make([]string, 0, len(events))
	for _, event := range events {
		out = append(out, calendar.UID(event))
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sampleEvents() []*ical.Component {
	return newEvents(
		eventSpec{uid: "e1", summary: "Algorithms 101", description: "Lecture", status: "CONFIRMED", categories: "LECTURE"},
		eventSpec{uid: "e2", summary: "History of Art", description: "Seminar", status: "CONFIRMED", categories: "SEMINAR"},
		eventSpec{uid: "e3", summary: "Algorithms 101 lab", status: "CANCELLED", categories: "LAB,PRACTICAL"},
		eventSpec{uid: "e4", summary: "Exam session", description: "Written exam for algorithms", status: "TENTATIVE", categories: "EXAM"},
	)
}
