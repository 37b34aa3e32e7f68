package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/engine"
)

// WindowOptions holds flags for the window command.
type WindowOptions struct {
	*RootOptions
	End  string
	Days int
}

// WindowResult is the JSON payload of the window command.
type WindowResult struct {
	Start           string   `json:"start"`
	End             string   `json:"end"`
	BusinessDays    int      `json:"business_days"`
	ExcludeWeekends bool     `json:"exclude_weekends"`
	ExcludedDates   []string `json:"excluded_dates"`
}

// NewWindowCommand creates the window command.
func NewWindowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WindowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Print the start of a business-day window",
		Long: `Walk back from the end date until the requested number of business days
has been counted and print the day the window starts on.

Weekends and holidays follow the config.

Example:
  idlecheck window --days 35
  idlecheck window --end 2025-07-31 --days 14 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.End, "end", "", "last day of the window (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "business days in the window (default analysis_days)")

	return cmd
}

func runWindow(opts *WindowOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(formatter)
	if err != nil {
		return err
	}

	loc, _ := cfg.Location()
	end, err := resolveDate(opts.End, "end", opts.now().In(loc))
	if err != nil {
		return fail(formatter, ErrCodeGeneric, "invalid end date", err)
	}
	days := cfg.AnalysisDays
	if cmd.Flags().Changed("days") {
		days = opts.Days
	}

	policy := cfg.Policy()
	start, err := engine.ComputeBusinessDayStart(end, days, policy)
	if err != nil {
		return fail(formatter, ErrCodeGeneric, "failed to compute window", err)
	}

	if formatter.Format == "json" {
		excluded := policy.ExcludedDates()
		dates := make([]string, len(excluded))
		for i, d := range excluded {
			dates[i] = d.String()
		}
		return formatter.Success(WindowResult{
			Start:           start.String(),
			End:             end.String(),
			BusinessDays:    days,
			ExcludeWeekends: policy.ExcludeWeekends,
			ExcludedDates:   dates,
		})
	}

	fmt.Fprintf(formatter.Writer, "%s to %s (%d business days)\n", start, end, days)
	return nil
}

// resolveDate parses value, or returns the date of now when it is empty.
func resolveDate(value, field string, now time.Time) (activity.Date, error) {
	if value == "" {
		return activity.DateOf(now), nil
	}
	d, err := activity.ParseDate(value)
	if err != nil {
		return activity.Date{}, fmt.Errorf("--%s %q is not a YYYY-MM-DD date", field, value)
	}
	return d, nil
}
