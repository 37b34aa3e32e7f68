package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.Status == "" {
		run.Status = RunRunning
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, status, source, as_of, window_start, threshold, dry_run, group_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		marshalTime(run.StartedAt),
		run.Status,
		run.Source,
		marshalDate(run.AsOf),
		marshalDate(run.WindowStart),
		run.Threshold,
		boolToInt(run.DryRun),
		run.GroupName,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	return nil
}

// WriteReports stores the user reports of a run in one transaction. flags
// marks which users were flagged; their inactive-since date is kept too.
func (s *Store) WriteReports(ctx context.Context, runID string, reports []activity.UserReport, flags []activity.InactivityFlag) error {
	flagged := make(map[string]activity.InactivityFlag, len(flags))
	for _, f := range flags {
		flagged[f.UserID] = f
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write reports: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO user_reports
		(run_id, user_id, total_days, active_days, inactive_days,
		 current_consecutive_inactive, max_consecutive_inactive, activity_rate,
		 range_from, range_to, last_active_date, never_active, flagged, inactive_since)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write reports: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		f, isFlagged := flagged[r.UserID]
		_, err := stmt.ExecContext(ctx,
			runID,
			r.UserID,
			r.TotalDays,
			r.ActiveDays,
			r.InactiveDays,
			r.CurrentConsecutiveInactive,
			r.MaxConsecutiveInactive,
			r.ActivityRate,
			marshalDate(r.DateRange.From),
			marshalDate(r.DateRange.To),
			marshalDate(r.LastActiveDate),
			boolToInt(r.NeverActive),
			boolToInt(isFlagged),
			marshalDate(f.InactiveSince),
		)
		if err != nil {
			return fmt.Errorf("write report %s: %w", r.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}
	return nil
}

// WriteAction appends an action to a run and returns its sequence number.
// Sequence numbers start at 1 per run.
func (s *Store) WriteAction(ctx context.Context, a ActionRecord) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM actions WHERE run_id = ?`, a.RunID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("write action: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO actions
		(run_id, seq, created_at, status, action, user_id, group_name, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.RunID,
		seq,
		marshalTime(a.CreatedAt),
		a.Status,
		a.Action,
		a.UserID,
		a.GroupName,
		a.Details,
	)
	if err != nil {
		return 0, fmt.Errorf("write action: %w", err)
	}

	return seq, nil
}

// FinishRun records the outcome of a run. Returns ErrRunNotFound if the run
// was never begun.
func (s *Store) FinishRun(ctx context.Context, runID string, out RunOutcome) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, status = ?, total_users = ?, flagged_users = ?, digest = ?, error = ?
		WHERE id = ?
	`,
		marshalTime(out.FinishedAt),
		out.Status,
		out.TotalUsers,
		out.FlaggedUsers,
		out.Digest,
		out.Error,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	return requireRow(res, runID)
}

func requireRow(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}
