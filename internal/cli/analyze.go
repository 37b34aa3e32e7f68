package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steven-giang-van/scripts-central/internal/config"
	"github.com/steven-giang-van/scripts-central/internal/engine"
	"github.com/steven-giang-van/scripts-central/internal/report"
	"github.com/steven-giang-van/scripts-central/internal/source"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Threshold       int
	ExcludeDates    []string
	IncludeWeekends bool
	Detailed        bool
	DateColumn      string
	UserColumn      string
	ActiveColumn    string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}
	defaults := source.DefaultCSVOptions()

	cmd := &cobra.Command{
		Use:   "analyze <csv-file>",
		Short: "Analyze an activity export for inactive users",
		Long: `Analyze a Cursor analytics CSV export and report every user whose current
run of consecutive inactive business days meets the threshold.

Flags override the matching config keys. The command exits with status 1
when at least one user is flagged.

Example:
  idlecheck analyze export.csv
  idlecheck analyze --threshold 10 --exclude-dates 2025-07-04,2025-07-07 export.csv
  idlecheck analyze --detailed --format json export.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Threshold, "threshold", "t", 14, "consecutive inactive days that flag a user")
	cmd.Flags().StringSliceVar(&opts.ExcludeDates, "exclude-dates", nil, "holidays to skip (YYYY-MM-DD, comma separated)")
	cmd.Flags().BoolVar(&opts.IncludeWeekends, "include-weekends", false, "count Saturdays and Sundays")
	cmd.Flags().BoolVarP(&opts.Detailed, "detailed", "d", false, "also print the per-user report")
	cmd.Flags().StringVar(&opts.DateColumn, "date-column", defaults.DateColumn, "CSV column holding the date")
	cmd.Flags().StringVar(&opts.UserColumn, "user-column", defaults.UserColumn, "CSV column holding the user email")
	cmd.Flags().StringVar(&opts.ActiveColumn, "active-column", defaults.ActiveColumn, "CSV column holding the active flag")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, csvPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(formatter)
	if err != nil {
		return err
	}
	applyAnalyzeFlags(opts, cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return fail(formatter, ErrCodeConfig, "invalid options", err)
	}

	loc, _ := cfg.Location()
	sentinel, _ := cfg.Sentinel()

	records, err := source.ReadCSVFile(csvPath, source.CSVOptions{
		DateColumn:   opts.DateColumn,
		UserColumn:   opts.UserColumn,
		ActiveColumn: opts.ActiveColumn,
		Location:     loc,
	})
	if err != nil {
		return fail(formatter, ErrCodeGeneric, "failed to read activity export", err)
	}
	formatter.VerboseLog("Read %d records from %s", len(records), csvPath)

	res, err := engine.Analyze(records, engine.Config{
		Policy:    cfg.Policy(),
		Threshold: cfg.InactiveThreshold,
	}, engine.WithSentinel(sentinel))
	if err != nil {
		return fail(formatter, ErrCodeGeneric, "analysis failed", err)
	}

	if err := writeAnalysis(formatter, res, opts.Detailed); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if n := len(res.Flags); n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d users inactive for %d+ consecutive days", n, cfg.InactiveThreshold))
	}
	return nil
}

// applyAnalyzeFlags copies explicitly set flags over the loaded config.
func applyAnalyzeFlags(opts *AnalyzeOptions, cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("threshold") {
		cfg.InactiveThreshold = opts.Threshold
	}
	if cmd.Flags().Changed("exclude-dates") {
		cfg.ExcludedDates = opts.ExcludeDates
	}
	if cmd.Flags().Changed("include-weekends") {
		cfg.ExcludeWeekends = !opts.IncludeWeekends
	}
}

func writeAnalysis(f *OutputFormatter, res *engine.Result, detailed bool) error {
	if f.Format == "json" {
		return f.Success(report.NewAnalysisView(res))
	}

	if err := report.WriteSummary(f.Writer, res); err != nil {
		return err
	}
	if detailed {
		if _, err := fmt.Fprintln(f.Writer); err != nil {
			return err
		}
		return report.WriteDetailed(f.Writer, res)
	}
	return nil
}
