package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/actuator"
	"github.com/steven-giang-van/scripts-central/internal/audit"
	"github.com/steven-giang-van/scripts-central/internal/config"
	"github.com/steven-giang-van/scripts-central/internal/engine"
	"github.com/steven-giang-van/scripts-central/internal/httpx/upstream/cursor"
	"github.com/steven-giang-van/scripts-central/internal/report"
	"github.com/steven-giang-van/scripts-central/internal/sink"
	"github.com/steven-giang-van/scripts-central/internal/source"
	"github.com/steven-giang-van/scripts-central/internal/store"
)

// ManageOptions holds flags for the manage command.
type ManageOptions struct {
	*RootOptions
	DryRun   bool
	AsOf     string
	Database string
	CSV      string
}

// NewManageCommand creates the manage command.
func NewManageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ManageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "manage",
		Short: "Run the automated user management pass",
		Long: `Fetch team members and daily usage from the Cursor Admin API over the
last analysis_days business days, flag members whose inactive streak meets
the threshold and record every decision in the audit trail.

The Admin API cannot remove members, so flagged members are listed with the
manual steps to remove them from the dashboard. With --csv the usage comes
from an analytics export instead of the API.

Example:
  idlecheck manage --config config.yaml --dry-run
  idlecheck manage --as-of 2025-07-31 --db ./idlecheck.db
  idlecheck manage --csv export.csv --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManage(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "flag users without taking any action")
	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "last day of the analysis window (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "audit database (default audit.database)")
	cmd.Flags().StringVar(&opts.CSV, "csv", "", "read usage from an analytics export instead of the API")

	return cmd
}

// managerRun carries the resolved inputs of one pass.
type managerRun struct {
	cfg         config.Config
	loc         *time.Location
	sentinel    activity.Date
	asOf        activity.Date
	windowStart activity.Date
	client      *cursor.Client
	log         *slog.Logger
}

func runManage(opts *ManageOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(formatter)
	if err != nil {
		return err
	}
	if opts.Database != "" {
		cfg.Audit.Database = opts.Database
	}

	run := &managerRun{cfg: cfg}
	run.loc, _ = cfg.Location()
	run.sentinel, _ = cfg.Sentinel()

	run.asOf, err = resolveDate(opts.AsOf, "as-of", opts.now().In(run.loc))
	if err != nil {
		return fail(formatter, ErrCodeGeneric, "invalid as-of date", err)
	}
	run.windowStart, err = engine.ComputeBusinessDayStart(run.asOf, cfg.AnalysisDays, cfg.Policy())
	if err != nil {
		return fail(formatter, ErrCodeConfig, "failed to compute analysis window", err)
	}

	// The API is optional for CSV runs.
	run.client, err = newCursorClient(cfg)
	if err != nil && opts.CSV == "" {
		return fail(formatter, ErrCodeConfig, "cannot reach the Cursor Admin API", err)
	}

	// Audit trail
	logFile, err := openOptional(cfg.Audit.LogFile)
	if err != nil {
		return fail(formatter, ErrCodeGeneric, "failed to open audit log", err)
	}
	defer closeQuietly(logFile)
	actionsFile, err := openOptional(cfg.Audit.ActionsFile)
	if err != nil {
		return fail(formatter, ErrCodeGeneric, "failed to open actions log", err)
	}
	defer closeQuietly(actionsFile)

	run.log = audit.NewLogger(opts.Verbose, formatter.GetErrWriter(), writerOrNil(logFile))

	auditOpts := []audit.Option{audit.WithClock(opts.now)}
	if actionsFile != nil {
		auditOpts = append(auditOpts, audit.WithActionsLog(audit.NewActionsLog(actionsFile)))
	}
	if opts.RunIDs != nil {
		auditOpts = append(auditOpts, audit.WithRunIDGenerator(opts.RunIDs))
	}
	if cfg.Audit.Database != "" {
		run.log.Debug("opening audit database", "path", cfg.Audit.Database)
		st, err := store.Open(cfg.Audit.Database)
		if err != nil {
			return fail(formatter, ErrCodeStore, "failed to open audit database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				run.log.Error("error closing audit database", "error", closeErr)
			}
		}()
		auditOpts = append(auditOpts, audit.WithStore(st))
	}
	auditor := audit.New(run.log, auditOpts...)

	// Setup signal handling for graceful shutdown
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sourceName := "api"
	if opts.CSV != "" {
		sourceName = opts.CSV
	}
	session, err := auditor.Begin(ctx, audit.RunInfo{
		Source:      sourceName,
		AsOf:        run.asOf,
		WindowStart: run.windowStart,
		Threshold:   cfg.InactiveThreshold,
		DryRun:      opts.DryRun,
		GroupName:   cfg.GroupName,
	})
	if err != nil {
		return fail(formatter, ErrCodeStore, "failed to start session", err)
	}

	res, actions, runErr := run.execute(ctx, session, opts)
	digest, finishErr := session.Finish(ctx, res, len(actions), runErr)
	if runErr != nil {
		return fail(formatter, ErrCodeGeneric, "user management failed", runErr)
	}
	if finishErr != nil {
		return fail(formatter, ErrCodeStore, "failed to record session", finishErr)
	}

	view := report.NewManagerView(session.RunID, run.asOf, run.windowStart, opts.DryRun, digest, res, actions)
	exportErr := run.export(ctx, session.RunID, opts.now(), view, actions, res)

	if formatter.Format == "json" {
		err = formatter.Success(view)
	} else {
		err = report.WriteManagerSummary(formatter.Writer, report.ManagerRun{
			RunID:         session.RunID,
			TotalUsers:    res.Summary.TotalUsers,
			InactiveUsers: len(res.Flags),
			Actions:       actions,
			DryRun:        opts.DryRun,
			LogFile:       cfg.Audit.LogFile,
			ActionsFile:   cfg.Audit.ActionsFile,
			Database:      cfg.Audit.Database,
		})
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	if exportErr != nil {
		// The JSON response is already written; text output gets a trailer.
		if formatter.Format != "json" {
			_ = formatter.Error(ErrCodeExport, "export failed", exportErr.Error())
		}
		return WrapExitError(ExitCommandError, "export failed", exportErr)
	}
	return nil
}

// execute loads usage, analyzes it and routes the flags through the session.
func (r *managerRun) execute(ctx context.Context, session *audit.Session, opts *ManageOptions) (*engine.Result, []actuator.Action, error) {
	records, err := r.records(ctx, opts.CSV)
	if err != nil {
		return nil, nil, err
	}
	r.log.Debug("records loaded", "run_id", session.RunID, "records", len(records))

	res, err := engine.Analyze(records, engine.Config{
		Policy:      r.cfg.Policy(),
		Threshold:   r.cfg.InactiveThreshold,
		WindowStart: r.windowStart,
	}, engine.WithSentinel(r.sentinel))
	if err != nil {
		return nil, nil, fmt.Errorf("analyze: %w", err)
	}
	if err := session.LogAnalysis(ctx, res); err != nil {
		return res, nil, fmt.Errorf("record analysis: %w", err)
	}

	var remover actuator.Remover = manualRemover{}
	if r.client != nil {
		remover = r.client
	}
	act := actuator.New(remover,
		actuator.WithDryRun(opts.DryRun),
		actuator.WithRecorder(session),
		actuator.WithGroup(r.cfg.GroupName),
		actuator.WithLogger(r.log),
	)
	actions, err := act.Route(ctx, res.Flags)
	if err != nil {
		return res, actions, err
	}
	return res, actions, nil
}

// records returns the window's records from the export at csvPath, or from
// the API when csvPath is empty. API usage is restricted to team members
// whose role is not protected.
func (r *managerRun) records(ctx context.Context, csvPath string) ([]activity.Record, error) {
	if csvPath != "" {
		opts := source.DefaultCSVOptions()
		opts.Location = r.loc
		records, err := source.ReadCSVFile(csvPath, opts)
		if err != nil {
			return nil, err
		}
		return source.FilterWindow(records, r.windowStart, r.asOf, r.sentinel), nil
	}

	r.log.Info("fetching team members")
	members, err := r.client.TeamMembers(ctx, r.cfg.ProtectedRoles)
	if err != nil {
		return nil, err
	}
	emails := make([]string, len(members))
	for i, m := range members {
		emails[i] = m.Email
	}

	start := r.windowStart.In(r.loc)
	end := r.asOf.AddDays(1).In(r.loc).Add(-time.Millisecond)
	r.log.Info("fetching user activity data",
		"start", r.windowStart.String(),
		"end", r.asOf.String(),
		"members", len(members),
	)
	rows, err := r.client.DailyUsage(ctx, start, end)
	if err != nil {
		return nil, err
	}

	records, err := source.FromDailyUsage(rows, source.UsageOptions{Location: r.loc, Sentinel: r.sentinel})
	if err != nil {
		return nil, err
	}
	return source.FilterUsers(records, source.NewUserSet(emails...)), nil
}

// export archives the run to S3 and publishes its flags to Kafka when enabled.
// Every enabled sink is attempted; failures are joined.
func (r *managerRun) export(ctx context.Context, runID string, at time.Time, view report.ManagerView, actions []actuator.Action, res *engine.Result) error {
	var errs []error

	if s3cfg := r.cfg.Export.S3; s3cfg.Enabled {
		archiver := sink.NewS3Archiver(sink.S3Config{
			Endpoint:        s3cfg.Endpoint,
			Region:          s3cfg.Region,
			Bucket:          s3cfg.Bucket,
			Prefix:          s3cfg.Prefix,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
		})
		key, err := archiver.Archive(ctx, runID, at, view)
		if err != nil {
			r.log.Error("s3 archive failed", "run_id", runID, "error", err)
			errs = append(errs, err)
		} else {
			r.log.Info("run archived", "run_id", runID, "bucket", s3cfg.Bucket, "key", key)
		}
	}

	if kcfg := r.cfg.Export.Kafka; kcfg.Enabled {
		if err := publishFlags(ctx, kcfg, sink.FlagEvents(runID, res.Flags, actions, at)); err != nil {
			r.log.Error("kafka publish failed", "run_id", runID, "error", err)
			errs = append(errs, err)
		} else {
			r.log.Info("flags published", "run_id", runID, "topic", kcfg.Topic, "count", len(res.Flags))
		}
	}

	return errors.Join(errs...)
}

func publishFlags(ctx context.Context, cfg config.Kafka, events []sink.FlagEvent) (err error) {
	pub, err := sink.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := pub.Close(); err == nil {
			err = closeErr
		}
	}()
	return pub.Publish(ctx, events)
}

// manualRemover is used when no API client is configured.
type manualRemover struct{}

func (manualRemover) RemoveMember(_ context.Context, email string) error {
	return fmt.Errorf("remove %s: %w", email, cursor.ErrRemovalUnsupported)
}

// openOptional opens path for appending, or returns nil when path is empty.
func openOptional(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	return audit.OpenAppend(path)
}

// writerOrNil avoids passing a typed nil *os.File as an io.Writer.
func writerOrNil(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	return f
}

func closeQuietly(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}
