package store

import (
	"errors"
	"time"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Run is one invocation of the manager.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time // zero while running
	Status      string
	Source      string // "api" or the path of a CSV export
	AsOf        activity.Date
	WindowStart activity.Date
	Threshold   int
	DryRun      bool
	GroupName   string

	TotalUsers   int
	FlaggedUsers int
	Digest       string
	Error        string
}

// RunOutcome is recorded when a run ends.
type RunOutcome struct {
	FinishedAt   time.Time
	Status       string
	TotalUsers   int
	FlaggedUsers int
	Digest       string
	Error        string
}

// StoredReport is a user report as kept for a run.
type StoredReport struct {
	activity.UserReport
	Flagged bool

	// InactiveSince is only set for flagged users.
	InactiveSince activity.Date
}

// ActionRecord is an action routed for a flagged user.
type ActionRecord struct {
	RunID     string
	Seq       int64
	CreatedAt time.Time
	Status    string
	Action    string
	UserID    string
	GroupName string
	Details   string
}
