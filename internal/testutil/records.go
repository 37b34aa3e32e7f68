package testutil

import "github.com/steven-giang-van/scripts-central/internal/activity"

// Days returns n consecutive calendar days starting at start.
func Days(start activity.Date, n int) []activity.Date {
	dates := make([]activity.Date, n)
	for i := range dates {
		dates[i] = start.AddDays(i)
	}
	return dates
}

// Weekdays returns the first n Monday-to-Friday dates on or after start.
func Weekdays(start activity.Date, n int) []activity.Date {
	dates := make([]activity.Date, 0, n)
	for d := start; len(dates) < n; d = d.AddDays(1) {
		if !d.IsWeekend() {
			dates = append(dates, d)
		}
	}
	return dates
}

// Records builds one record per date for user with the same activity value.
func Records(user string, active bool, dates ...activity.Date) []activity.Record {
	recs := make([]activity.Record, len(dates))
	for i, d := range dates {
		recs[i] = activity.Record{UserID: user, Date: d, Active: active}
	}
	return recs
}

// Inactive is Records(user, false, dates...).
func Inactive(user string, dates ...activity.Date) []activity.Record {
	return Records(user, false, dates...)
}

// Active is Records(user, true, dates...).
func Active(user string, dates ...activity.Date) []activity.Record {
	return Records(user, true, dates...)
}

// Concat joins record slices into a new slice.
func Concat(parts ...[]activity.Record) []activity.Record {
	var out []activity.Record
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
