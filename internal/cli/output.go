package cli

import (
	"fmt"
	"io"

	"github.com/jbrulmans/uhasselt-ical/pkg/profile"
)

// maxSummariesCompact is the number of preview entries shown without --verbose.
const maxSummariesCompact = 10

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
	DryRun  bool
}

// PrintExecutionResult displays the result of a run.
// Failures go to stderr, the summary goes to stdout.
func PrintExecutionResult(stdout, stderr io.Writer, result *profile.ExecutionResult, err error, opts OutputOptions) {
	if result == nil {
		fmt.Fprintln(stderr, "✗ No execution result available")
		return
	}

	if err != nil {
		PrintError(stderr, err, opts.Verbose, opts.Quiet)
		if opts.Verbose && result.Error != nil {
			fmt.Fprintf(stderr, "  Module: %s\n", result.Error.Module)
			fmt.Fprintf(stderr, "  Code: %s\n", result.Error.Code)
		}
		return
	}

	if opts.Quiet {
		return
	}

	switch {
	case opts.DryRun:
		fmt.Fprintln(stdout, "✓ Dry run completed")
	case result.Written && result.EventsSelected == 0:
		fmt.Fprintf(stdout, "✓ No events matched; wrote a calendar without events to %s\n", result.OutputPath)
	case result.Written:
		fmt.Fprintf(stdout, "✓ Wrote %s\n", result.OutputPath)
	default:
		fmt.Fprintln(stdout, "✓ Nothing was written")
	}
	fmt.Fprintf(stdout, "  Events read: %d\n", result.EventsRead)
	fmt.Fprintf(stdout, "  Events selected: %d\n", result.EventsSelected)
	if opts.Verbose {
		fmt.Fprintf(stdout, "  Missing summary: %d\n", result.MissingSummary)
		fmt.Fprintf(stdout, "  Missing description: %d\n", result.MissingDescription)
		fmt.Fprintf(stdout, "  Other components skipped: %d\n", result.ComponentsSkipped)
		fmt.Fprintf(stdout, "  Duration: %v\n", result.CompletedAt.Sub(result.StartedAt))
		fmt.Fprintf(stdout, "  Run ID: %s\n", result.RunID)
	}

	if opts.DryRun && result.DryRunPreview != nil {
		PrintDryRunPreview(stdout, result.DryRunPreview, opts.Verbose)
	}
}

// PrintDryRunPreview displays what a dry run would have written.
func PrintDryRunPreview(w io.Writer, preview *profile.OutputPreview, verbose bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Dry-run preview (what would have been written):")
	fmt.Fprintf(w, "  File: %s\n", preview.Path)
	fmt.Fprintf(w, "  Events: %d\n", preview.EventCount)
	fmt.Fprintf(w, "  Size: %d bytes\n", preview.Bytes)

	shown := preview.Summaries
	if !verbose && len(shown) > maxSummariesCompact {
		shown = shown[:maxSummariesCompact]
	}
	for _, summary := range shown {
		if summary == "" {
			summary = "(no title)"
		}
		fmt.Fprintf(w, "    - %s\n", summary)
	}
	if hidden := len(preview.Summaries) - len(shown); hidden > 0 {
		fmt.Fprintf(w, "    ... and %d more (use --verbose for all)\n", hidden)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "No file was written (dry-run mode)")
}
