package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/steven-giang-van/scripts-central/internal/audit"
	"github.com/steven-giang-van/scripts-central/internal/source"
	"github.com/steven-giang-van/scripts-central/internal/store"
)

// LogsOptions holds flags for the logs command.
type LogsOptions struct {
	*RootOptions
	Database string
	Limit    int
	RunID    string
	User     string
}

// RunView is the JSON form of a stored run.
type RunView struct {
	ID           string `json:"id"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at,omitempty"`
	Status       string `json:"status"`
	Source       string `json:"source"`
	AsOf         string `json:"as_of"`
	WindowStart  string `json:"window_start"`
	Threshold    int    `json:"threshold"`
	DryRun       bool   `json:"dry_run"`
	GroupName    string `json:"group_name"`
	TotalUsers   int    `json:"total_users"`
	FlaggedUsers int    `json:"flagged_users"`
	Digest       string `json:"digest,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ActionView is the JSON form of a stored action.
type ActionView struct {
	RunID     string `json:"run_id"`
	Seq       int64  `json:"seq"`
	CreatedAt string `json:"created_at"`
	Status    string `json:"status"`
	Action    string `json:"action"`
	UserID    string `json:"user"`
	GroupName string `json:"group"`
	Details   string `json:"details"`
}

// RunDetail is the JSON payload of logs --run.
type RunDetail struct {
	Run     RunView      `json:"run"`
	Flagged []string     `json:"flagged_users"`
	Actions []ActionView `json:"actions"`
}

// NewLogsCommand creates the logs command.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Review the audit trail",
		Long: `List recent manager runs from the audit database, show the flags and
actions of one run, or every action ever recorded for a user.

Example:
  idlecheck logs
  idlecheck logs --run 0190f3c2-8d4e-7b1a-9c3d-5e6f7a8b9c0d
  idlecheck logs --user bob@example.com --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "audit database (default audit.database)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the flags and actions of a run")
	cmd.Flags().StringVar(&opts.User, "user", "", "show every action recorded for a user")
	cmd.MarkFlagsMutuallyExclusive("run", "user")

	return cmd
}

func runLogs(opts *LogsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(formatter)
	if err != nil {
		return err
	}
	dbPath := cfg.Audit.Database
	if opts.Database != "" {
		dbPath = opts.Database
	}

	// Open would create an empty database.
	if _, err := os.Stat(dbPath); err != nil {
		return fail(formatter, ErrCodeStore, "audit database not available", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fail(formatter, ErrCodeStore, "failed to open audit database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	switch {
	case opts.RunID != "":
		return showRun(formatter, st, opts.RunID, cmd)
	case opts.User != "":
		actions, err := st.UserActions(ctx, source.CanonicalUserID(opts.User))
		if err != nil {
			return fail(formatter, ErrCodeStore, "failed to read actions", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(actionViews(actions))
		}
		if len(actions) == 0 {
			fmt.Fprintf(formatter.Writer, "No actions recorded for %s\n", opts.User)
			return nil
		}
		writeActions(formatter.Writer, actions)
		return nil
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return fail(formatter, ErrCodeStore, "failed to list runs", err)
	}
	if formatter.Format == "json" {
		views := make([]RunView, len(runs))
		for i, r := range runs {
			views[i] = runView(r)
		}
		return formatter.Success(views)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return nil
	}
	for _, r := range runs {
		line := fmt.Sprintf("%s  %s  %-9s  as of %s  %d users  %d flagged",
			r.StartedAt.Local().Format(audit.ActionsTimeLayout), r.ID, r.Status, r.AsOf, r.TotalUsers, r.FlaggedUsers)
		if r.DryRun {
			line += "  (dry run)"
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}

func showRun(f *OutputFormatter, st *store.Store, runID string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return fail(f, ErrCodeStore, "failed to read run", err)
	}
	reports, err := st.ReadReports(ctx, runID)
	if err != nil {
		return fail(f, ErrCodeStore, "failed to read reports", err)
	}
	actions, err := st.ListActions(ctx, runID)
	if err != nil {
		return fail(f, ErrCodeStore, "failed to read actions", err)
	}

	detail := RunDetail{Run: runView(run), Flagged: []string{}, Actions: actionViews(actions)}
	for _, r := range reports {
		if r.Flagged {
			detail.Flagged = append(detail.Flagged, r.UserID)
		}
	}

	if f.Format == "json" {
		return f.Success(detail)
	}

	w := f.Writer
	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Status: %s\n", run.Status)
	fmt.Fprintf(w, "Source: %s\n", run.Source)
	fmt.Fprintf(w, "Window: %s to %s\n", run.WindowStart, run.AsOf)
	fmt.Fprintf(w, "Threshold: %d days\n", run.Threshold)
	fmt.Fprintf(w, "Users: %d analyzed, %d flagged\n", run.TotalUsers, run.FlaggedUsers)
	if run.DryRun {
		fmt.Fprintln(w, "Dry run: yes")
	}
	if run.Digest != "" {
		fmt.Fprintf(w, "Digest: %s\n", run.Digest)
	}
	if run.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", run.Error)
	}
	if len(actions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Actions:")
		writeActions(w, actions)
	}
	return nil
}

// writeActions prints actions in the actions log format.
func writeActions(w io.Writer, actions []store.ActionRecord) {
	for _, a := range actions {
		fmt.Fprintf(w, "%s | %s | %s | %s | %s | %s\n",
			a.CreatedAt.Local().Format(audit.ActionsTimeLayout), a.Status, a.Action, a.UserID, a.GroupName, a.Details)
	}
}

func runView(r store.Run) RunView {
	v := RunView{
		ID:           r.ID,
		StartedAt:    r.StartedAt.UTC().Format(time.RFC3339),
		Status:       r.Status,
		Source:       r.Source,
		AsOf:         r.AsOf.String(),
		WindowStart:  r.WindowStart.String(),
		Threshold:    r.Threshold,
		DryRun:       r.DryRun,
		GroupName:    r.GroupName,
		TotalUsers:   r.TotalUsers,
		FlaggedUsers: r.FlaggedUsers,
		Digest:       r.Digest,
		Error:        r.Error,
	}
	if !r.FinishedAt.IsZero() {
		v.FinishedAt = r.FinishedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func actionViews(actions []store.ActionRecord) []ActionView {
	views := make([]ActionView, len(actions))
	for i, a := range actions {
		views[i] = ActionView{
			RunID:     a.RunID,
			Seq:       a.Seq,
			CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
			Status:    a.Status,
			Action:    a.Action,
			UserID:    a.UserID,
			GroupName: a.GroupName,
			Details:   a.Details,
		}
	}
	return views
}
