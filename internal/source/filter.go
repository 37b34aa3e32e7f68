package source

import "github.com/steven-giang-van/scripts-central/internal/activity"

// FilterUsers keeps the records whose user is in allowed.
func FilterUsers(records []activity.Record, allowed UserSet) []activity.Record {
	kept := make([]activity.Record, 0, len(records))
	for _, rec := range records {
		if allowed.Contains(rec.UserID) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// FilterWindow keeps the records dated within [start, end] and those
// carrying the never-active sentinel, which lie outside every window.
func FilterWindow(records []activity.Record, start, end, sentinel activity.Date) []activity.Record {
	kept := make([]activity.Record, 0, len(records))
	for _, rec := range records {
		if rec.Date == sentinel || (!rec.Date.Before(start) && !rec.Date.After(end)) {
			kept = append(kept, rec)
		}
	}
	return kept
}
