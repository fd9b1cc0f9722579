package calendar

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-ical"
)

// maxLineOctets is the content line limit before folding, CRLF excluded.
const maxLineOctets = 75

// Encode writes cal to w using the iCalendar serialization.
//
// Unlike ical.Encoder, components are not checked for required or unique properties:
// whatever was decoded is written back, so an input without PRODID or an event without
// DTSTAMP round-trips unchanged. Property values are written raw (go-ical keeps them
// escaped) and long lines are folded at 75 octets.
func Encode(w io.Writer, cal *ical.Calendar) error {
	bw := bufio.NewWriter(w)
	if err := encodeComponent(bw, cal.Component); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

func encodeComponent(w *bufio.Writer, comp *ical.Component) error {
	if err := writeLine(w, "BEGIN:"+comp.Name); err != nil {
		return err
	}

	for _, name := range propOrder(comp) {
		for i := range comp.Props[name] {
			line, err := formatProp(&comp.Props[name][i])
			if err != nil {
				return err
			}
			if err := writeLine(w, line); err != nil {
				return err
			}
		}
	}

	for _, child := range comp.Children {
		if err := encodeComponent(w, child); err != nil {
			return err
		}
	}

	return writeLine(w, "END:"+comp.Name)
}

// propOrder returns the property names of comp sorted by name. Calendar metadata
// comes first in MetadataProps order.
func propOrder(comp *ical.Component) []string {
	names := make([]string, 0, len(comp.Props))
	leading := make(map[string]bool)
	if comp.Name == ical.CompCalendar {
		for _, name := range MetadataProps {
			if len(comp.Props[name]) > 0 {
				names = append(names, name)
				leading[name] = true
			}
		}
	}

	rest := make([]string, 0, len(comp.Props))
	for name := range comp.Props {
		if !leading[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// formatProp renders prop as one unfolded content line. Parameters are sorted by name
// and quoted when they contain ';', ':' or ','.
func formatProp(prop *ical.Prop) (string, error) {
	var b strings.Builder
	b.WriteString(prop.Name)

	paramNames := make([]string, 0, len(prop.Params))
	for name := range prop.Params {
		paramNames = append(paramNames, name)
	}
	sort.Strings(paramNames)

	for _, name := range paramNames {
		b.WriteString(";")
		b.WriteString(name)
		b.WriteString("=")
		for i, v := range prop.Params[name] {
			if i > 0 {
				b.WriteString(",")
			}
			if strings.ContainsRune(v, '"') {
				return "", fmt.Errorf("parameter %s of %s contains a double-quote", name, prop.Name)
			}
			if strings.ContainsAny(v, ";:,") {
				b.WriteString(`"` + v + `"`)
			} else {
				b.WriteString(v)
			}
		}
	}

	if strings.ContainsAny(prop.Value, "\r\n") {
		return "", fmt.Errorf("value of %s contains a line break", prop.Name)
	}
	b.WriteString(":")
	b.WriteString(prop.Value)
	return b.String(), nil
}

// writeLine writes line folded into chunks of at most maxLineOctets, never splitting a
// UTF-8 sequence. Continuation lines start with a single space.
func writeLine(w *bufio.Writer, line string) error {
	limit := maxLineOctets
	for {
		if len(line) <= limit {
			_, err := w.WriteString(line + "\r\n")
			return err
		}

		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		if _, err := w.WriteString(line[:cut] + "\r\n "); err != nil {
			return err
		}
		line = line[cut:]
		limit = maxLineOctets - 1
	}
}
