package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = `id, started_at, finished_at, status, source, as_of, window_start,
	threshold, dry_run, group_name, total_users, flagged_users, digest, error`

// GetRun returns a run by id, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id COLLATE BINARY DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// ReadReports returns the user reports of a run ordered by user id.
func (s *Store) ReadReports(ctx context.Context, runID string) ([]StoredReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, total_days, active_days, inactive_days,
		       current_consecutive_inactive, max_consecutive_inactive, activity_rate,
		       range_from, range_to, last_active_date, never_active, flagged, inactive_since
		FROM user_reports
		WHERE run_id = ?
		ORDER BY user_id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := []StoredReport{}
	for rows.Next() {
		var (
			r                                   StoredReport
			from, to, lastActive, inactiveSince string
			neverActive, flagged                int
		)
		err := rows.Scan(
			&r.UserID, &r.TotalDays, &r.ActiveDays, &r.InactiveDays,
			&r.CurrentConsecutiveInactive, &r.MaxConsecutiveInactive, &r.ActivityRate,
			&from, &to, &lastActive, &neverActive, &flagged, &inactiveSince,
		)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if r.DateRange.From, err = unmarshalDate(from); err != nil {
			return nil, err
		}
		if r.DateRange.To, err = unmarshalDate(to); err != nil {
			return nil, err
		}
		if r.LastActiveDate, err = unmarshalDate(lastActive); err != nil {
			return nil, err
		}
		if r.InactiveSince, err = unmarshalDate(inactiveSince); err != nil {
			return nil, err
		}
		r.NeverActive = neverActive != 0
		r.Flagged = flagged != 0
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	return reports, nil
}

// ListActions returns the actions of a run in routing order.
func (s *Store) ListActions(ctx context.Context, runID string) ([]ActionRecord, error) {
	return s.queryActions(ctx, `
		SELECT run_id, seq, created_at, status, action, user_id, group_name, details
		FROM actions
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// UserActions returns every action recorded for a user across runs, oldest
// first.
func (s *Store) UserActions(ctx context.Context, userID string) ([]ActionRecord, error) {
	return s.queryActions(ctx, `
		SELECT run_id, seq, created_at, status, action, user_id, group_name, details
		FROM actions
		WHERE user_id = ?
		ORDER BY created_at ASC, run_id COLLATE BINARY ASC, seq ASC
	`, userID)
}

func (s *Store) queryActions(ctx context.Context, query string, arg any) ([]ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	actions := []ActionRecord{}
	for rows.Next() {
		var (
			a         ActionRecord
			createdAt string
		)
		if err := rows.Scan(&a.RunID, &a.Seq, &createdAt, &a.Status, &a.Action, &a.UserID, &a.GroupName, &a.Details); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if a.CreatedAt, err = unmarshalTime(createdAt); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}

	return actions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run                                  Run
		startedAt, finishedAt, asOf, winFrom string
		dryRun                               int
	)
	err := row.Scan(
		&run.ID, &startedAt, &finishedAt, &run.Status, &run.Source, &asOf, &winFrom,
		&run.Threshold, &dryRun, &run.GroupName, &run.TotalUsers, &run.FlaggedUsers,
		&run.Digest, &run.Error,
	)
	if err != nil {
		return Run{}, err
	}

	if run.StartedAt, err = unmarshalTime(startedAt); err != nil {
		return Run{}, err
	}
	if run.FinishedAt, err = unmarshalTime(finishedAt); err != nil {
		return Run{}, err
	}
	if run.AsOf, err = unmarshalDate(asOf); err != nil {
		return Run{}, err
	}
	if run.WindowStart, err = unmarshalDate(winFrom); err != nil {
		return Run{}, err
	}
	run.DryRun = dryRun != 0

	return run, nil
}
