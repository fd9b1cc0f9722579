// Package cli provides CLI output formatting and display functions.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jbrulmans/uhasselt-ical/internal/config"
	"github.com/jbrulmans/uhasselt-ical/internal/errhandling"
)

// PrintParseErrors prints profile parse errors.
func PrintParseErrors(w io.Writer, errs []config.ParseError, verbose bool) {
	fmt.Fprintln(w, "✗ Parse errors:")
	for _, err := range errs {
		location := formatErrorLocation(err.Path, err.Line, err.Column)
		if location != "" {
			fmt.Fprintf(w, "  %s: %s\n", location, err.Message)
		} else {
			fmt.Fprintf(w, "  %s\n", err.Message)
		}
		if verbose && err.Type != "" {
			fmt.Fprintf(w, "    Type: %s\n", err.Type)
		}
	}
}

// formatErrorLocation formats the error location string (path:line:column).
func formatErrorLocation(path string, line, column int) string {
	if path == "" {
		return ""
	}
	location := path
	if line > 0 {
		location += fmt.Sprintf(":%d", line)
		if column > 0 {
			location += fmt.Sprintf(":%d", column)
		}
	}
	return location
}

// PrintValidationErrors prints profile schema violations.
func PrintValidationErrors(w io.Writer, errs []config.ValidationError, verbose, quiet bool) {
	fmt.Fprintln(w, "✗ Validation errors:")
	for _, err := range errs {
		path := err.Path
		if path == "" {
			path = "/"
		}
		if verbose {
			fmt.Fprintf(w, "  %s:\n", path)
			fmt.Fprintf(w, "    Message: %s\n", err.Message)
			if err.Type != "" {
				fmt.Fprintf(w, "    Type: %s\n", err.Type)
			}
			continue
		}
		msg := err.Message
		if len(msg) > 80 {
			msg = msg[:77] + "..."
		}
		fmt.Fprintf(w, "  %s: %s\n", path, msg)
	}
	if !verbose && !quiet {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Hint: Use --verbose for detailed error information")
	}
}

// PrintError prints the one-line diagnostic of a failed command.
// Profile errors list every problem found in the file.
func PrintError(w io.Writer, err error, verbose, quiet bool) {
	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		var parseErrs []config.ParseError
		var validationErrs []config.ValidationError
		for _, e := range loadErr.Errors {
			var pe config.ParseError
			var ve config.ValidationError
			switch {
			case errors.As(e, &pe):
				parseErrs = append(parseErrs, pe)
			case errors.As(e, &ve):
				validationErrs = append(validationErrs, ve)
			}
		}
		if len(parseErrs) > 0 {
			PrintParseErrors(w, parseErrs, verbose)
		}
		if len(validationErrs) > 0 {
			PrintValidationErrors(w, validationErrs, verbose, quiet)
		}
		return
	}

	fmt.Fprintf(w, "✗ %s\n", Diagnostic(err))
}

// Diagnostic returns a single-line description of err naming the problem and path.
func Diagnostic(err error) string {
	var classified *errhandling.ClassifiedError
	if errors.As(err, &classified) {
		return classified.Error()
	}
	return err.Error()
}
