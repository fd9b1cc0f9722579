package calendar

import (
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// Record field names exposed to condition expressions and scripts.
const (
	FieldSummary     = "summary"
	FieldDescription = "description"
	FieldLocation    = "location"
	FieldStatus      = "status"
	FieldCategories  = "categories"
	FieldUID         = "uid"
	FieldStart       = "start"
	FieldEnd         = "end"
	FieldAllDay      = "allDay"
)

// Record returns a read-only view of event for expression and script filters.
// Absent text fields are empty strings, absent times are nil.
func Record(event *ical.Component) map[string]interface{} {
	summary, _ := Summary(event)
	description, _ := Description(event)
	location, _ := propText(event, ical.PropLocation)
	status, _ := propText(event, ical.PropStatus)

	record := map[string]interface{}{
		FieldSummary:     summary,
		FieldDescription: description,
		FieldLocation:    location,
		FieldStatus:      strings.ToUpper(status),
		FieldCategories:  categories(event),
		FieldUID:         UID(event),
		FieldStart:       nil,
		FieldEnd:         nil,
		FieldAllDay:      false,
	}

	if start := event.Props.Get(ical.PropDateTimeStart); start != nil {
		if t, err := start.DateTime(time.UTC); err == nil {
			record[FieldStart] = t
		}
		record[FieldAllDay] = start.ValueType() == ical.ValueDate
	}
	if end := event.Props.Get(ical.PropDateTimeEnd); end != nil {
		if t, err := end.DateTime(time.UTC); err == nil {
			record[FieldEnd] = t
		}
	}

	return record
}

// categories flattens every CATEGORIES property into one list.
func categories(event *ical.Component) []interface{} {
	out := []interface{}{}
	for _, prop := range event.Props.Values(ical.PropCategories) {
		for _, category := range strings.Split(prop.Value, ",") {
			category = strings.TrimSpace(category)
			if category != "" {
				out = append(out, category)
			}
		}
	}
	return out
}
