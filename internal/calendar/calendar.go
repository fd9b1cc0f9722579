// Package calendar holds the iCalendar document model used by the filter pipeline.
//
// Decoding is delegated to github.com/emersion/go-ical; Encode writes its component tree
// back without go-ical's property validation. A document is an
// *ical.Calendar built fresh for output: the recognized calendar metadata is copied from
// the input, and selected events are appended as verbatim copies of input components.
package calendar

import (
	"io"
	"log/slog"

	"github.com/emersion/go-ical"

	"github.com/jbrulmans/uhasselt-ical/internal/errhandling"
	"github.com/jbrulmans/uhasselt-ical/internal/logger"
)

// Calendar-level properties without a constant in go-ical.
const (
	PropCalendarName     = "X-WR-CALNAME"
	PropCalendarTimezone = "X-WR-TIMEZONE"
	PropCalendarDesc     = "X-WR-CALDESC"
	PropPublishedTTL     = "X-PUBLISHED-TTL"
)

// MetadataProps lists the calendar properties copied from input to output, in output order.
var MetadataProps = []string{
	ical.PropVersion,
	ical.PropProductID,
	ical.PropMethod,
	ical.PropCalendarScale,
	PropCalendarName,
	PropCalendarTimezone,
	PropCalendarDesc,
	PropPublishedTTL,
}

// Options controls how a document is assembled from its source.
type Options struct {
	// KeepTimezones copies VTIMEZONE components ahead of the selected events.
	KeepTimezones bool
}

// Decode reads the first calendar from r.
// name identifies the source in errors. Calendars after the first are ignored.
func Decode(r io.Reader, name string) (*ical.Calendar, error) {
	dec := ical.NewDecoder(r)

	cal, err := dec.Decode()
	if err == io.EOF {
		return nil, errhandling.NewParseError(name, "no calendar found in input", err)
	}
	if err != nil {
		return nil, errhandling.NewParseError(name, "malformed calendar data", err)
	}

	if extra, err := dec.Decode(); err == nil && extra != nil {
		logger.Debug("ignoring additional calendar in input",
			slog.String("path", name),
			slog.Int("components", len(extra.Children)),
		)
	}

	return cal, nil
}

// NewDocument returns an empty calendar carrying the recognized metadata of src.
// Metadata absent from src stays absent. With opts.KeepTimezones, VTIMEZONE
// components of src are copied too.
func NewDocument(src *ical.Calendar, opts Options) *ical.Calendar {
	doc := ical.NewCalendar()
	CopyMetadata(doc, src)

	if opts.KeepTimezones {
		for _, child := range src.Children {
			if child.Name == ical.CompTimezone {
				doc.Children = append(doc.Children, child)
			}
		}
	}
	return doc
}

// CopyMetadata copies every value of the recognized metadata properties from src to dst,
// parameters included.
func CopyMetadata(dst, src *ical.Calendar) {
	for _, name := range MetadataProps {
		values := src.Props[name]
		if len(values) == 0 {
			continue
		}
		copied := make([]ical.Prop, len(values))
		copy(copied, values)
		dst.Props[name] = copied
	}
}

// Events returns the VEVENT children of cal in document order.
func Events(cal *ical.Calendar) []*ical.Component {
	events := make([]*ical.Component, 0, len(cal.Children))
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent {
			events = append(events, child)
		}
	}
	return events
}

// Summary returns the unescaped SUMMARY of an event and whether it is present.
func Summary(event *ical.Component) (string, bool) {
	return propText(event, ical.PropSummary)
}

// Description returns the unescaped DESCRIPTION of an event and whether it is present.
func Description(event *ical.Component) (string, bool) {
	return propText(event, ical.PropDescription)
}

// UID returns the UID of an event, or "" when it has none.
func UID(event *ical.Component) string {
	uid, _ := propText(event, ical.PropUID)
	return uid
}

// propText returns the text of the first property called name.
// Falls back to the raw value when it cannot be unescaped.
func propText(comp *ical.Component, name string) (string, bool) {
	prop := comp.Props.Get(name)
	if prop == nil {
		return "", false
	}
	text, err := prop.Text()
	if err != nil {
		return prop.Value, true
	}
	return text, true
}
