package engine

import (
	"fmt"
	"sort"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

// Options tunes how a user's records are interpreted.
type Options struct {
	// Sentinel is the date a source uses to mean "this user never had any
	// activity". The zero Date disables sentinel detection.
	Sentinel activity.Date
}

// Option configures Options.
type Option func(*Options)

// WithSentinel overrides the never-active sentinel date.
func WithSentinel(d activity.Date) Option {
	return func(o *Options) {
		o.Sentinel = d
	}
}

// WithoutSentinel disables never-active detection; every date is real.
func WithoutSentinel() Option {
	return WithSentinel(activity.Date{})
}

func buildOptions(opts []Option) Options {
	o := Options{Sentinel: activity.UnixEpoch}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IsFlagged reports whether a current streak meets the threshold.
// It is monotonic: raising threshold never flags more users.
func IsFlagged(currentConsecutiveInactive, threshold int) bool {
	return currentConsecutiveInactive >= threshold
}

// ComputeUserReport runs the streak scan over one user's records.
//
// records may arrive in any order; they are sorted by date before the scan.
// They must all belong to the same user and contain at most one record per
// date. windowStart is the first day of the analysis window; it becomes the
// reported streak start for users who were never active. Pass the zero Date
// when the window is unknown.
//
// A flag is returned when the current streak meets threshold. With
// threshold <= 0 every user with at least one counted day (or marked never
// active) is flagged; a user with nothing to count is not.
func ComputeUserReport(records []activity.Record, policy activity.ExclusionPolicy, threshold int, windowStart activity.Date, opts ...Option) (activity.UserReport, *activity.InactivityFlag, error) {
	o := buildOptions(opts)

	in, err := prepare(records, o.Sentinel, windowStart)
	if err != nil {
		return activity.UserReport{}, nil, err
	}

	res := scan(in.records, policy)

	report := activity.UserReport{
		UserID:                     in.userID,
		TotalDays:                  len(in.records),
		CurrentConsecutiveInactive: res.streak.consecutive,
		MaxConsecutiveInactive:     res.streak.max,
		LastActiveDate:             res.streak.lastActive,
		NeverActive:                in.neverActive,
	}
	for _, rec := range in.records {
		if rec.Active {
			report.ActiveDays++
		}
		report.DateRange = report.DateRange.Extend(rec.Date)
	}
	report.InactiveDays = report.TotalDays - report.ActiveDays
	if report.TotalDays > 0 {
		report.ActivityRate = float64(report.ActiveDays) / float64(report.TotalDays)
	}

	if !IsFlagged(res.streak.consecutive, threshold) {
		return report, nil, nil
	}
	if threshold <= 0 && res.counted == 0 && !in.neverActive {
		return report, nil, nil
	}

	flag := &activity.InactivityFlag{
		UserID:                  in.userID,
		ConsecutiveInactiveDays: res.streak.consecutive,
		MaxConsecutiveInactive:  res.streak.max,
		InactiveSince:           inactiveSince(res.streak, in.neverActive, windowStart),
		LastActiveDate:          res.streak.lastActive,
	}
	return report, flag, nil
}

// inactiveSince resolves the reported start of the current streak.
// Never-active users take precedence over any recorded start.
func inactiveSince(s streak, neverActive bool, windowStart activity.Date) activity.Date {
	if neverActive {
		return windowStart
	}
	if s.start.IsZero() && s.lastActive.IsZero() {
		return windowStart
	}
	return s.start
}

// prepared is a validated, date-ordered copy of one user's records.
type prepared struct {
	userID      string
	records     []activity.Record
	neverActive bool
}

// prepare validates records, strips sentinel records and sorts the rest.
func prepare(records []activity.Record, sentinel, windowStart activity.Date) (prepared, error) {
	var p prepared
	p.records = make([]activity.Record, 0, len(records))

	for _, rec := range records {
		if rec.UserID == "" {
			return prepared{}, &activity.InputValidationError{
				Code:    activity.CodeMissingField,
				Field:   "user_id",
				Message: fmt.Sprintf("record dated %s has no user", rec.Date),
			}
		}
		if p.userID == "" {
			p.userID = rec.UserID
		} else if rec.UserID != p.userID {
			return prepared{}, &activity.InputValidationError{
				Code:    activity.CodeMixedUsers,
				UserID:  p.userID,
				Message: fmt.Sprintf("sequence also contains user %q", rec.UserID),
			}
		}
		if rec.Date.IsZero() {
			return prepared{}, &activity.InputValidationError{
				Code:    activity.CodeMissingField,
				Field:   "date",
				UserID:  rec.UserID,
				Message: "record has no date",
			}
		}

		if !sentinel.IsZero() && rec.Date == sentinel {
			if rec.Active {
				return prepared{}, &activity.InputValidationError{
					Code:    activity.CodeSentinelCollision,
					UserID:  rec.UserID,
					Message: fmt.Sprintf("record on never-active sentinel %s is marked active", sentinel),
				}
			}
			if !windowStart.IsZero() && !sentinel.Before(windowStart) {
				return prepared{}, &activity.InputValidationError{
					Code:    activity.CodeSentinelCollision,
					UserID:  rec.UserID,
					Message: fmt.Sprintf("never-active sentinel %s falls inside the analysis window starting %s", sentinel, windowStart),
				}
			}
			p.neverActive = true
			continue
		}

		p.records = append(p.records, rec)
	}

	sort.SliceStable(p.records, func(i, j int) bool {
		return p.records[i].Date.Before(p.records[j].Date)
	})

	for i := 1; i < len(p.records); i++ {
		if p.records[i].Date == p.records[i-1].Date {
			return prepared{}, &activity.InputValidationError{
				Code:    activity.CodeDuplicateRecord,
				UserID:  p.userID,
				Message: fmt.Sprintf("more than one record for %s", p.records[i].Date),
			}
		}
	}

	return p, nil
}
