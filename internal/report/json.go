package report

import (
	"encoding/json"
	"io"
	"math"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/actuator"
	"github.com/steven-giang-van/scripts-central/internal/engine"
)

// FlagView is a flagged user with printable dates.
type FlagView struct {
	Email                   string `json:"email"`
	ConsecutiveInactiveDays int    `json:"consecutive_inactive_days"`
	InactiveSince           string `json:"inactive_since"`
	LastActiveDate          string `json:"last_active_date"`
	MaxConsecutiveInactive  int    `json:"max_consecutive_inactive"`
}

// UserView is a user report with printable dates and rate.
type UserView struct {
	Email                      string `json:"email"`
	TotalDays                  int    `json:"total_days"`
	ActiveDays                 int    `json:"active_days"`
	InactiveDays               int    `json:"inactive_days"`
	CurrentConsecutiveInactive int    `json:"current_consecutive_inactive"`
	MaxConsecutiveInactive     int    `json:"max_consecutive_inactive"`
	ActivityRate               string `json:"activity_rate"`
	DateRange                  string `json:"date_range"`
	LastActiveDate             string `json:"last_active_date"`
	NeverActive                bool   `json:"never_active,omitempty"`
}

// SummaryView is engine.Summary with the average rate as a percentage.
type SummaryView struct {
	TotalUsers         int      `json:"total_users"`
	UsersWithActivity  int      `json:"users_with_activity"`
	AvgActivityRate    float64  `json:"avg_activity_rate"`
	InactiveThreshold  int      `json:"inactive_threshold"`
	InactiveUsersCount int      `json:"inactive_users_count"`
	ExcludeWeekends    bool     `json:"exclude_weekends"`
	ExcludedDates      []string `json:"excluded_dates"`
	WindowStart        string   `json:"window_start,omitempty"`
}

// AnalysisView is the JSON form of an analysis result.
type AnalysisView struct {
	InactiveUsers []FlagView  `json:"inactive_users"`
	UserReports   []UserView  `json:"user_reports"`
	Summary       SummaryView `json:"summary"`
}

// NewAnalysisView converts res. Slices are never nil.
func NewAnalysisView(res *engine.Result) AnalysisView {
	v := AnalysisView{
		InactiveUsers: make([]FlagView, 0, len(res.Flags)),
		UserReports:   make([]UserView, 0, len(res.Reports)),
	}

	for _, f := range res.Flags {
		v.InactiveUsers = append(v.InactiveUsers, FlagView{
			Email:                   f.UserID,
			ConsecutiveInactiveDays: f.ConsecutiveInactiveDays,
			InactiveSince:           f.InactiveSinceLabel(),
			LastActiveDate:          f.LastActiveLabel(),
			MaxConsecutiveInactive:  f.MaxConsecutiveInactive,
		})
	}
	for _, r := range res.Reports {
		v.UserReports = append(v.UserReports, UserView{
			Email:                      r.UserID,
			TotalDays:                  r.TotalDays,
			ActiveDays:                 r.ActiveDays,
			InactiveDays:               r.InactiveDays,
			CurrentConsecutiveInactive: r.CurrentConsecutiveInactive,
			MaxConsecutiveInactive:     r.MaxConsecutiveInactive,
			ActivityRate:               percent(r.ActivityRate),
			DateRange:                  dateRangeLabel(r.DateRange),
			LastActiveDate:             r.LastActiveLabel(),
			NeverActive:                r.NeverActive,
		})
	}

	s := res.Summary
	v.Summary = SummaryView{
		TotalUsers:         s.TotalUsers,
		UsersWithActivity:  s.UsersWithActivity,
		AvgActivityRate:    math.Round(s.AvgActivityRate*1000) / 10,
		InactiveThreshold:  s.InactiveThreshold,
		InactiveUsersCount: s.FlaggedUsers,
		ExcludeWeekends:    s.ExcludeWeekends,
		ExcludedDates:      dateStrings(s.ExcludedDates),
		WindowStart:        s.WindowStart.String(),
	}
	return v
}

func dateStrings(dates []activity.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}

// ManagerView is the JSON form of a manager run.
type ManagerView struct {
	RunID       string            `json:"run_id"`
	AsOf        string            `json:"as_of"`
	WindowStart string            `json:"window_start"`
	DryRun      bool              `json:"dry_run"`
	Digest      string            `json:"digest,omitempty"`
	Analysis    AnalysisView      `json:"analysis"`
	Actions     []actuator.Action `json:"actions"`
}

// NewManagerView assembles the JSON form of a manager run.
func NewManagerView(runID string, asOf, windowStart activity.Date, dryRun bool, digest string, res *engine.Result, actions []actuator.Action) ManagerView {
	if actions == nil {
		actions = []actuator.Action{}
	}
	return ManagerView{
		RunID:       runID,
		AsOf:        asOf.String(),
		WindowStart: windowStart.String(),
		DryRun:      dryRun,
		Digest:      digest,
		Analysis:    NewAnalysisView(res),
		Actions:     actions,
	}
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
