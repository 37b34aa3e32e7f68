package report

import (
	"io"
	"sort"
	"strings"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/engine"
)

// WatchThreshold is the streak length from which users are listed at the
// end of the detailed report, whether or not they were flagged.
const WatchThreshold = 7

// WriteSummary renders the flagged users and the summary statistics.
func WriteSummary(w io.Writer, res *engine.Result) error {
	p := &printer{w: w}
	s := res.Summary

	p.line("User Inactivity Analysis Results")
	p.rule("=", 60)
	if ex := exclusions(s); ex != "" {
		p.printf("Excluded from counting: %s\n", ex)
	}
	p.printf("Looking for users inactive for %d+ consecutive days...\n", s.InactiveThreshold)
	p.rule("-", 60)
	p.line("")

	if len(res.Flags) == 0 {
		p.printf("No users found with %d+ consecutive inactive days.\n", s.InactiveThreshold)
	} else {
		p.printf("Found %d users inactive for %d+ consecutive days:\n", len(res.Flags), s.InactiveThreshold)
		for i, f := range res.Flags {
			p.line("")
			p.printf("%d. %s\n", i+1, f.UserID)
			p.printf("   Current consecutive inactive days: %d\n", f.ConsecutiveInactiveDays)
			p.printf("   Inactive since: %s\n", f.InactiveSinceLabel())
			p.printf("   Last active date: %s\n", f.LastActiveLabel())
			p.printf("   Max consecutive inactive period: %d days\n", f.MaxConsecutiveInactive)
		}
	}

	p.line("")
	p.line("Summary Statistics:")
	p.printf("Total users: %d\n", s.TotalUsers)
	p.printf("Users with any activity: %d\n", s.UsersWithActivity)
	p.printf("Average activity rate: %s\n", percent(s.AvgActivityRate))
	p.printf("Users inactive for %d+ days: %d\n", s.InactiveThreshold, len(res.Flags))

	return p.err
}

func exclusions(s engine.Summary) string {
	var parts []string
	if s.ExcludeWeekends {
		parts = append(parts, "weekends")
	}
	if len(s.ExcludedDates) > 0 {
		days := make([]string, len(s.ExcludedDates))
		for i, d := range s.ExcludedDates {
			days[i] = d.Time().Format("01/02")
		}
		parts = append(parts, "holidays ("+strings.Join(days, ", ")+")")
	}
	return strings.Join(parts, ", ")
}

// ByCurrentStreak returns a copy of reports sorted by current streak,
// longest first, ties by user id.
func ByCurrentStreak(reports []activity.UserReport) []activity.UserReport {
	sorted := make([]activity.UserReport, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.CurrentConsecutiveInactive != b.CurrentConsecutiveInactive {
			return a.CurrentConsecutiveInactive > b.CurrentConsecutiveInactive
		}
		return a.UserID < b.UserID
	})
	return sorted
}

// WriteDetailed renders every user report, longest current streak first,
// followed by the users at or above WatchThreshold.
func WriteDetailed(w io.Writer, res *engine.Result) error {
	p := &printer{w: w}
	reports := ByCurrentStreak(res.Reports)

	p.line("Detailed User Activity Report")
	p.rule("=", 80)
	p.line("Users sorted by current consecutive inactive days:")

	for i, r := range reports {
		p.line("")
		p.printf("%2d. %s\n", i+1, r.UserID)
		p.printf("     Date Range: %s\n", dateRangeLabel(r.DateRange))
		p.printf("     Total Days: %d, Active: %d, Inactive: %d\n", r.TotalDays, r.ActiveDays, r.InactiveDays)
		p.printf("     Activity Rate: %s\n", percent(r.ActivityRate))
		p.printf("     Last Active Date: %s\n", r.LastActiveLabel())
		p.printf("     Current Consecutive Inactive: %d days\n", r.CurrentConsecutiveInactive)
		p.printf("     Max Consecutive Inactive: %d days\n", r.MaxConsecutiveInactive)
	}

	p.line("")
	var watch []activity.UserReport
	for _, r := range reports {
		if r.CurrentConsecutiveInactive >= WatchThreshold {
			watch = append(watch, r)
		}
	}
	if len(watch) == 0 {
		p.printf("No users with %d+ consecutive inactive days found.\n", WatchThreshold)
		return p.err
	}
	p.printf("Users with %d+ consecutive inactive days:\n", WatchThreshold)
	p.rule("-", 50)
	for _, r := range watch {
		p.printf("- %s: %d days\n", r.UserID, r.CurrentConsecutiveInactive)
	}

	return p.err
}

func dateRangeLabel(r activity.DateRange) string {
	if r.IsZero() {
		return activity.UnknownLabel
	}
	return r.String()
}
