package engine

import (
	"sort"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

// Config holds the parameters of one analysis run.
type Config struct {
	Policy    activity.ExclusionPolicy
	Threshold int

	// WindowStart is the first day of the analysis window, if known.
	WindowStart activity.Date
}

// Summary aggregates a run across all users.
type Summary struct {
	TotalUsers        int             `json:"total_users"`
	UsersWithActivity int             `json:"users_with_activity"`
	AvgActivityRate   float64         `json:"avg_activity_rate"`
	InactiveThreshold int             `json:"inactive_threshold"`
	FlaggedUsers      int             `json:"inactive_users_count"`
	ExcludeWeekends   bool            `json:"exclude_weekends"`
	ExcludedDates     []activity.Date `json:"excluded_dates"`
	WindowStart       activity.Date   `json:"window_start"`
}

// Result is the output of Analyze. Reports and Flags are ordered by user id.
type Result struct {
	Reports []activity.UserReport     `json:"user_reports"`
	Flags   []activity.InactivityFlag `json:"inactive_users"`
	Summary Summary                   `json:"summary"`
}

// Analyze partitions records by user and runs ComputeUserReport for each.
//
// The first invalid user aborts the run; partial results are not returned.
func Analyze(records []activity.Record, cfg Config, opts ...Option) (*Result, error) {
	byUser := make(map[string][]activity.Record)
	for _, rec := range records {
		if rec.UserID == "" {
			return nil, &activity.InputValidationError{
				Code:    activity.CodeMissingField,
				Field:   "user_id",
				Message: "record dated " + rec.Date.String() + " has no user",
			}
		}
		byUser[rec.UserID] = append(byUser[rec.UserID], rec)
	}

	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)

	result := &Result{
		Reports: make([]activity.UserReport, 0, len(users)),
		Flags:   []activity.InactivityFlag{},
		Summary: Summary{
			InactiveThreshold: cfg.Threshold,
			ExcludeWeekends:   cfg.Policy.ExcludeWeekends,
			ExcludedDates:     cfg.Policy.ExcludedDates(),
			WindowStart:       cfg.WindowStart,
		},
	}

	var rateSum float64
	for _, u := range users {
		report, flag, err := ComputeUserReport(byUser[u], cfg.Policy, cfg.Threshold, cfg.WindowStart, opts...)
		if err != nil {
			return nil, err
		}
		result.Reports = append(result.Reports, report)
		if flag != nil {
			result.Flags = append(result.Flags, *flag)
		}
		if report.ActiveDays > 0 {
			result.Summary.UsersWithActivity++
		}
		rateSum += report.ActivityRate
	}

	result.Summary.TotalUsers = len(result.Reports)
	result.Summary.FlaggedUsers = len(result.Flags)
	if result.Summary.TotalUsers > 0 {
		result.Summary.AvgActivityRate = rateSum / float64(result.Summary.TotalUsers)
	}

	return result, nil
}

// FlaggedUserIDs returns the ids of flagged users in result order.
func (r *Result) FlaggedUserIDs() []string {
	ids := make([]string, len(r.Flags))
	for i, f := range r.Flags {
		ids[i] = f.UserID
	}
	return ids
}
