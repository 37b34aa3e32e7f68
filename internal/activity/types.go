package activity

// Record is one normalized observation: whether a user was active on a date.
//
// Invariant: at most one Record per (UserID, Date). The engine rejects
// duplicates rather than guessing which one wins.
type Record struct {
	UserID string `json:"user_id"`
	Date   Date   `json:"date"`
	Active bool   `json:"is_active"`
}

// UserReport summarizes one user's activity over the observed window.
//
// TotalDays, ActiveDays and InactiveDays count every observed record,
// excluded days included. The streak fields only reflect counted days.
type UserReport struct {
	UserID                     string    `json:"user_id"`
	TotalDays                  int       `json:"total_days"`
	ActiveDays                 int       `json:"active_days"`
	InactiveDays               int       `json:"inactive_days"`
	CurrentConsecutiveInactive int       `json:"current_consecutive_inactive"`
	MaxConsecutiveInactive     int       `json:"max_consecutive_inactive"`
	ActivityRate               float64   `json:"activity_rate"`
	DateRange                  DateRange `json:"date_range"`

	// LastActiveDate is zero when the user was never seen active.
	LastActiveDate Date `json:"last_active_date"`

	// NeverActive is set when the source marked the user with the
	// never-active sentinel.
	NeverActive bool `json:"never_active,omitempty"`
}

// InactivityFlag marks a user whose current streak met the threshold.
type InactivityFlag struct {
	UserID                  string `json:"user_id"`
	ConsecutiveInactiveDays int    `json:"consecutive_inactive_days"`
	MaxConsecutiveInactive  int    `json:"max_consecutive_inactive"`

	// InactiveSince is zero when the streak start is unknown.
	InactiveSince Date `json:"inactive_since"`

	// LastActiveDate is zero when the user was never seen active.
	LastActiveDate Date `json:"last_active_date"`
}

// Placeholders used when a date is absent.
const (
	NeverLabel   = "Never"
	UnknownLabel = "Unknown"
)

// LastActiveLabel renders LastActiveDate, or "Never".
func (r UserReport) LastActiveLabel() string {
	return labelOr(r.LastActiveDate, NeverLabel)
}

// InactiveSinceLabel renders InactiveSince, or "Unknown".
func (f InactivityFlag) InactiveSinceLabel() string {
	return labelOr(f.InactiveSince, UnknownLabel)
}

// LastActiveLabel renders LastActiveDate, or "Never".
func (f InactivityFlag) LastActiveLabel() string {
	return labelOr(f.LastActiveDate, NeverLabel)
}

func labelOr(d Date, fallback string) string {
	if d.IsZero() {
		return fallback
	}
	return d.String()
}
