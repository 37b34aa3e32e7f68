package engine

import (
	"fmt"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

// ComputeBusinessDayStart returns the latest date start such that exactly
// targetBusinessDays non-excluded days lie in [start, end].
//
// The walk goes backward one day at a time from end and stops on the day
// that brings the count to the target, so start is itself a counted day.
func ComputeBusinessDayStart(end activity.Date, targetBusinessDays int, policy activity.ExclusionPolicy) (activity.Date, error) {
	if end.IsZero() {
		return activity.Date{}, activity.NewValidationError(activity.CodeMissingField, "end_date", "end date is required")
	}
	if targetBusinessDays < 1 {
		return activity.Date{}, activity.NewValidationError(activity.CodeInvalidArgument, "target_business_days",
			fmt.Sprintf("must be at least 1, got %d", targetBusinessDays))
	}

	// Every 7-day span holds at least one weekday, and each holiday removes
	// at most one counted day.
	horizon := 7 * (targetBusinessDays + len(policy.ExcludedDates()) + 1)

	counted := 0
	current := end
	for i := 0; i < horizon; i++ {
		if !policy.IsExcluded(current) {
			counted++
			if counted == targetBusinessDays {
				return current, nil
			}
		}
		current = current.AddDays(-1)
	}

	return activity.Date{}, activity.NewValidationError(activity.CodeInvalidArgument, "target_business_days",
		fmt.Sprintf("found only %d of %d business days within %d days before %s", counted, targetBusinessDays, horizon, end))
}
