package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/actuator"
	"github.com/steven-giang-van/scripts-central/internal/engine"
	"github.com/steven-giang-van/scripts-central/internal/store"
)

// RunStore persists runs. *store.Store implements it.
type RunStore interface {
	BeginRun(ctx context.Context, run store.Run) error
	WriteReports(ctx context.Context, runID string, reports []activity.UserReport, flags []activity.InactivityFlag) error
	WriteAction(ctx context.Context, a store.ActionRecord) (int64, error)
	FinishRun(ctx context.Context, runID string, out store.RunOutcome) error
}

// Auditor starts audited sessions.
type Auditor struct {
	log     *slog.Logger
	actions *ActionsLog
	store   RunStore
	ids     RunIDGenerator
	now     func() time.Time
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithActionsLog sets the actions log.
func WithActionsLog(l *ActionsLog) Option {
	return func(a *Auditor) { a.actions = l }
}

// WithStore persists runs to s.
func WithStore(s RunStore) Option {
	return func(a *Auditor) { a.store = s }
}

// WithRunIDGenerator replaces the UUIDv7 generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(a *Auditor) { a.ids = g }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Auditor) { a.now = now }
}

// New creates an Auditor logging to log.
func New(log *slog.Logger, opts ...Option) *Auditor {
	a := &Auditor{
		log: log,
		ids: UUIDv7Generator{},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunInfo describes a run as it starts.
type RunInfo struct {
	Source      string
	AsOf        activity.Date
	WindowStart activity.Date
	Threshold   int
	DryRun      bool
	GroupName   string
}

// Session is one audited run. It implements actuator.Recorder.
type Session struct {
	a     *Auditor
	RunID string
	info  RunInfo
}

// Begin starts a session and logs the opening banner.
func (a *Auditor) Begin(ctx context.Context, info RunInfo) (*Session, error) {
	s := &Session{a: a, RunID: a.ids.Generate(), info: info}

	if a.store != nil {
		err := a.store.BeginRun(ctx, store.Run{
			ID:          s.RunID,
			StartedAt:   a.now(),
			Source:      info.Source,
			AsOf:        info.AsOf,
			WindowStart: info.WindowStart,
			Threshold:   info.Threshold,
			DryRun:      info.DryRun,
			GroupName:   info.GroupName,
		})
		if err != nil {
			return nil, err
		}
	}

	a.log.Info("automated user management session started",
		"run_id", s.RunID,
		"source", info.Source,
		"as_of", info.AsOf.String(),
		"window_start", info.WindowStart.String(),
		"dry_run", info.DryRun,
	)
	return s, nil
}

// LogAnalysis logs the analysis results block and stores the reports.
func (s *Session) LogAnalysis(ctx context.Context, res *engine.Result) error {
	log := s.a.log.With("run_id", s.RunID)

	log.Info("analysis results",
		"total_users", res.Summary.TotalUsers,
		"inactive_threshold", res.Summary.InactiveThreshold,
		"users_meeting_threshold", len(res.Flags),
	)
	if len(res.Flags) == 0 {
		log.Info("no users found meeting the inactivity threshold")
	}
	for _, f := range res.Flags {
		log.Info("inactive user",
			"user", f.UserID,
			"consecutive_inactive_days", f.ConsecutiveInactiveDays,
			"last_active", f.LastActiveLabel(),
			"inactive_since", f.InactiveSinceLabel(),
		)
	}

	if s.a.store != nil {
		if err := s.a.store.WriteReports(ctx, s.RunID, res.Reports, res.Flags); err != nil {
			return err
		}
	}
	return nil
}

// RecordAction logs a, appends it to the actions log and stores it.
func (s *Session) RecordAction(ctx context.Context, a actuator.Action) error {
	at := s.a.now()

	s.a.log.Info("user action",
		"run_id", s.RunID,
		"status", string(a.Status),
		"action", string(a.Type),
		"user", a.UserID,
		"group", a.Group,
		"details", a.Details,
	)

	if s.a.actions != nil {
		if err := s.a.actions.Append(at, a); err != nil {
			return err
		}
	}

	if s.a.store != nil {
		_, err := s.a.store.WriteAction(ctx, store.ActionRecord{
			RunID:     s.RunID,
			CreatedAt: at,
			Status:    string(a.Status),
			Action:    string(a.Type),
			UserID:    a.UserID,
			GroupName: a.Group,
			Details:   a.Details,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Finish records the outcome of the session and logs the closing banner.
// res may be nil when runErr is set. The digest of res is returned.
func (s *Session) Finish(ctx context.Context, res *engine.Result, actions int, runErr error) (string, error) {
	out := store.RunOutcome{
		FinishedAt: s.a.now(),
		Status:     store.RunCompleted,
	}
	if res != nil {
		digest, err := Digest(res)
		if err != nil {
			return "", err
		}
		out.Digest = digest
		out.TotalUsers = res.Summary.TotalUsers
		out.FlaggedUsers = len(res.Flags)
	}
	if runErr != nil {
		out.Status = store.RunFailed
		out.Error = runErr.Error()
	}

	if s.a.store != nil {
		if err := s.a.store.FinishRun(ctx, s.RunID, out); err != nil {
			return "", fmt.Errorf("finish session: %w", err)
		}
	}

	if runErr != nil {
		s.a.log.Error("automated user management session failed", "run_id", s.RunID, "error", runErr)
	} else {
		s.a.log.Info("automated user management session completed",
			"run_id", s.RunID,
			"actions_taken", actions,
			"digest", out.Digest,
		)
	}
	return out.Digest, nil
}
