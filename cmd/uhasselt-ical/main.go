// Package main provides the CLI entry point for uhasselt-ical.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbrulmans/uhasselt-ical/internal/calendar"
	"github.com/jbrulmans/uhasselt-ical/internal/cli"
	"github.com/jbrulmans/uhasselt-ical/internal/config"
	"github.com/jbrulmans/uhasselt-ical/internal/errhandling"
	"github.com/jbrulmans/uhasselt-ical/internal/factory"
	"github.com/jbrulmans/uhasselt-ical/internal/logger"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/output"
	"github.com/jbrulmans/uhasselt-ical/internal/registry"
	"github.com/jbrulmans/uhasselt-ical/internal/runtime"
	"github.com/jbrulmans/uhasselt-ical/pkg/profile"
)

var (
	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// options holds the flag values of one invocation.
type options struct {
	// Global flags
	verbose   bool
	quiet     bool
	logFormat string
	logFile   string

	// Filter flags
	configPath    string
	output        string
	dryRun        bool
	keepTimezones bool
	where         []string
	scripts       []string
}

// reportedError marks an error whose diagnostic has already been printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &options{}
	rootCmd := newRootCmd(opts, stdout, stderr)
	rootCmd.SetArgs(args)
	defer logger.CloseLogFile()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return errhandling.ExitSuccess
	}

	var reported *reportedError
	if !errors.As(err, &reported) {
		cli.PrintError(stderr, err, opts.verbose, opts.quiet)
	}
	return errhandling.ExitCode(err)
}

func newRootCmd(opts *options, stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "uhasselt-ical [flags] <input.ics> <course> [course...]",
		Short: "uhasselt-ical - Keep only your courses in a timetable export",
		Long: `uhasselt-ical reads an iCalendar (.ics) timetable and keeps only the events
whose title or description mentions one of the given courses. Matching is a
case-insensitive substring match. The result is written to a new .ics file.

Examples:
  # Keep two courses
  uhasselt-ical timetable.ics "Algorithms" "Databases"

  # Write to a custom path and drop cancelled events
  uhasselt-ical -o mine.ics --where 'status != "CANCELLED"' timetable.ics Algorithms

  # Show what would be written
  uhasselt-ical --dry-run timetable.ics Algorithms

  # Run a saved profile
  uhasselt-ical run --config semester1.yaml

Exit codes:
  0 - Success
  1 - Validation errors (bad arguments or profile)
  2 - Parse errors (calendar or profile syntax)
  3 - Runtime errors (read/write failures)
  4 - Input is not an .ics file
  5 - Input file not found`,
		Args:          courseArgs(opts),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return configureLogging(opts, stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd.Context(), opts, args, stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errhandling.NewValidationError("invalid arguments", err)
	})

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "human", "Log format: json or human")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file")
	addFilterFlags(rootCmd, opts)

	runCmd := &cobra.Command{
		Use:   "run --config <profile> [<input.ics> <course>...]",
		Short: "Filter a timetable using a saved profile",
		Long: `Run the filter described by a profile (YAML or JSON).

Positional arguments and flags override the values of the profile.

Examples:
  uhasselt-ical run --config semester1.yaml
  uhasselt-ical run --config semester1.yaml --dry-run
  uhasselt-ical run --config semester1.yaml other.ics`,
		Args: func(_ *cobra.Command, _ []string) error {
			if opts.configPath == "" {
				return errhandling.NewValidationError("run requires --config <profile>", nil)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd.Context(), opts, args, stdout, stderr)
		},
	}
	addFilterFlags(runCmd, opts)

	validateCmd := &cobra.Command{
		Use:   "validate <profile>",
		Short: "Validate a profile file",
		Long: `Validate a profile against the profile schema.

Supports both JSON and YAML formats. The format is detected from the file
extension (.json, .yaml, .yml) or the content. Filter expressions and scripts
are compiled as well.

Exit codes:
  0 - Profile is valid
  1 - Validation errors (schema violations, bad filters)
  2 - Parse errors (invalid JSON/YAML syntax)`,
		Args: validatedArgs(cobra.ExactArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(opts, args[0], stdout)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version, commit hash, and build date information.",
		Args:  validatedArgs(cobra.NoArgs),
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "Version: %s\n", version)
			fmt.Fprintf(stdout, "Commit: %s\n", commit)
			fmt.Fprintf(stdout, "Build Date: %s\n", buildDate)
			if opts.verbose {
				fmt.Fprintf(stdout, "Input modules: %s\n", strings.Join(registry.ListInputTypes(), ", "))
				fmt.Fprintf(stdout, "Filter modules: %s\n", strings.Join(registry.ListFilterTypes(), ", "))
				fmt.Fprintf(stdout, "Output modules: %s\n", strings.Join(registry.ListOutputTypes(), ", "))
			}
		},
	}

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the profile JSON schema",
		Long:  "Print the JSON schema that profiles are validated against, for use in editors.",
		Args:  validatedArgs(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := stdout.Write(config.GetEmbeddedSchema()); err != nil {
				return errhandling.NewIOError("", "cannot write schema", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, validateCmd, versionCmd, schemaCmd)
	return rootCmd
}

func addFilterFlags(cmd *cobra.Command, opts *options) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Load settings from a profile (YAML or JSON)")
	flags.StringVarP(&opts.output, "output", "o", "", "Output file (default \"output.ics\")")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Show what would be written without writing the output file")
	flags.BoolVar(&opts.keepTimezones, "keep-timezones", false, "Copy VTIMEZONE definitions to the output")
	flags.StringArrayVar(&opts.where, "where", nil, "Keep only events for which the expression is true (repeatable)")
	flags.StringArrayVar(&opts.scripts, "script", nil, "Keep only events accepted by filter(event) in this JavaScript file (repeatable)")
}

// courseArgs requires an input file and at least one course unless a profile
// supplies them.
func courseArgs(opts *options) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if opts.configPath != "" || len(args) >= 2 {
			return nil
		}
		if len(args) == 0 {
			return errhandling.NewValidationError("missing input file and courses; usage: uhasselt-ical <input.ics> <course> [course...]", nil)
		}
		return errhandling.NewValidationError("at least one course is required; usage: uhasselt-ical <input.ics> <course> [course...]", nil)
	}
}

// validatedArgs classifies argument errors as validation errors.
func validatedArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return errhandling.NewValidationError("invalid arguments", err)
		}
		return nil
	}
}

func configureLogging(opts *options, stderr io.Writer) error {
	format, err := logger.ParseFormat(opts.logFormat)
	if err != nil {
		return errhandling.NewValidationError("invalid --log-format", err)
	}

	// verbose wins over quiet
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	} else if opts.quiet {
		level = slog.LevelError
	}

	logger.SetOutput(stderr)
	logger.SetLevelAndFormat(level, format)

	if opts.logFile != "" {
		if err := logger.SetLogFile(opts.logFile, level, format); err != nil {
			return errhandling.NewIOError(opts.logFile, "cannot open log file", err)
		}
	}
	return nil
}

func runFilter(ctx context.Context, opts *options, args []string, stdout, stderr io.Writer) error {
	p, err := buildProfile(opts, args)
	if err != nil {
		return err
	}

	criteria, err := calendar.NewCriteria(p.Courses)
	if err != nil {
		return err
	}

	filterModules, err := factory.CreateFilterModules(criteria, p.Filters)
	if err != nil {
		return err
	}
	inputModule, err := factory.CreateInputModule(p.Input)
	if err != nil {
		return err
	}
	outputModule, err := factory.CreateOutputModule(p.Output)
	if err != nil {
		_ = inputModule.Close()
		return err
	}

	if opts.verbose {
		fmt.Fprintf(stdout, "Filtering %s for %d course(s)\n", p.Input, criteria.Len())
	}

	executor := runtime.NewExecutorWithModules(inputModule, filterModules, outputModule)
	result, err := executor.Execute(ctx, p)

	cli.PrintExecutionResult(stdout, stderr, result, err, cli.OutputOptions{
		Verbose: opts.verbose,
		Quiet:   opts.quiet,
		DryRun:  p.DryRun,
	})
	if err != nil {
		return &reportedError{err: err}
	}
	return nil
}

// buildProfile merges the profile (if any) with positional arguments and flags.
// Arguments and flags take precedence over profile values.
func buildProfile(opts *options, args []string) (*profile.Profile, error) {
	p := &profile.Profile{}
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		p = loaded
	}

	if len(args) > 0 {
		p.Input = args[0]
	}
	if len(args) > 1 {
		p.Courses = args[1:]
	}
	if opts.output != "" {
		p.Output = opts.output
	}
	if p.Output == "" {
		p.Output = output.DefaultPath
	}
	p.DryRun = p.DryRun || opts.dryRun
	p.KeepTimezones = p.KeepTimezones || opts.keepTimezones

	for _, expression := range opts.where {
		p.Filters = append(p.Filters, profile.FilterConfig{
			Type:   registry.TypeCondition,
			Config: map[string]interface{}{"expression": expression},
		})
	}
	for _, path := range opts.scripts {
		p.Filters = append(p.Filters, profile.FilterConfig{
			Type:   registry.TypeScript,
			Config: map[string]interface{}{"scriptFile": path},
		})
	}

	if p.Input == "" {
		return nil, errhandling.NewValidationError("no input file given", nil)
	}
	if len(p.Courses) == 0 {
		return nil, errhandling.NewValidationError("at least one course is required", nil)
	}
	return p, nil
}

func runValidate(opts *options, path string, stdout io.Writer) error {
	if !opts.quiet {
		fmt.Fprintf(stdout, "Validating profile: %s\n", path)
	}

	p, err := config.Load(path)
	if err != nil {
		return err
	}

	// Compile filters so bad expressions and scripts are reported here too.
	criteria, err := calendar.NewCriteria(p.Courses)
	if err != nil {
		return err
	}
	if _, err := factory.CreateFilterModules(criteria, p.Filters); err != nil {
		return err
	}

	if opts.quiet {
		return nil
	}

	format := config.DetectFormat(path)
	if format == "" {
		format = "auto-detected"
	}
	fmt.Fprintf(stdout, "✓ Profile is valid (format: %s)\n", format)
	if opts.verbose {
		if p.Name != "" {
			fmt.Fprintf(stdout, "  Name: %s\n", p.Name)
		}
		fmt.Fprintf(stdout, "  Input: %s\n", p.Input)
		if p.Output != "" {
			fmt.Fprintf(stdout, "  Output: %s\n", p.Output)
		}
		fmt.Fprintf(stdout, "  Courses: %d\n", criteria.Len())
		fmt.Fprintf(stdout, "  Filters: %d\n", len(p.Filters))
	}
	return nil
}
