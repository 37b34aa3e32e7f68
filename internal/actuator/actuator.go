// Package actuator routes inactivity flags to membership actions.
//
// The Cursor Admin API cannot remove members, so in practice every executed
// flag becomes a MANUAL_REMOVAL_REQUIRED action for an administrator to carry
// out in the dashboard. A Remover that can remove members yields
// FLAG_FOR_REMOVAL actions with status EXECUTED instead.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/httpx/upstream/cursor"
)

// ActionType names what was done for a flagged user.
type ActionType string

const (
	FlagForRemoval        ActionType = "FLAG_FOR_REMOVAL"
	ManualRemovalRequired ActionType = "MANUAL_REMOVAL_REQUIRED"
)

// Status tells whether an action was simulated.
type Status string

const (
	StatusDryRun   Status = "DRY_RUN"
	StatusExecuted Status = "EXECUTED"
)

// Action is the outcome of routing one flag.
type Action struct {
	Type    ActionType `json:"action"`
	Status  Status     `json:"status"`
	UserID  string     `json:"user_id"`
	Group   string     `json:"group_name"`
	Reason  string     `json:"reason"`
	Details string     `json:"details"`

	ConsecutiveInactiveDays int `json:"consecutive_inactive_days"`
}

// Remover removes a member from the team.
type Remover interface {
	RemoveMember(ctx context.Context, email string) error
}

// Recorder is told about every routed action, in routing order.
type Recorder interface {
	RecordAction(ctx context.Context, a Action) error
}

// Actuator routes flags through a Remover.
type Actuator struct {
	remover  Remover
	recorder Recorder
	group    string
	dryRun   bool
	log      *slog.Logger
}

// Option configures an Actuator.
type Option func(*Actuator)

// WithDryRun makes Route simulate every action without calling the Remover.
func WithDryRun(dryRun bool) Option {
	return func(a *Actuator) { a.dryRun = dryRun }
}

// WithRecorder registers a Recorder for routed actions.
func WithRecorder(r Recorder) Option {
	return func(a *Actuator) { a.recorder = r }
}

// WithGroup sets the group name carried on actions.
func WithGroup(name string) Option {
	return func(a *Actuator) { a.group = name }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(a *Actuator) { a.log = l }
}

// New creates an Actuator.
func New(remover Remover, opts ...Option) *Actuator {
	a := &Actuator{
		remover: remover,
		group:   "Cursor Team",
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Reason is the human-readable justification of a flag.
func Reason(days int) string {
	return fmt.Sprintf("Inactive for %d days", days)
}

// Route produces one action per flag, in flag order. A Remover error other
// than cursor.ErrRemovalUnsupported stops routing and is returned together
// with the actions routed so far.
func (a *Actuator) Route(ctx context.Context, flags []activity.InactivityFlag) ([]Action, error) {
	actions := make([]Action, 0, len(flags))
	for _, flag := range flags {
		if err := ctx.Err(); err != nil {
			return actions, err
		}

		action, err := a.route(ctx, flag)
		if err != nil {
			return actions, err
		}

		if a.recorder != nil {
			if err := a.recorder.RecordAction(ctx, action); err != nil {
				return actions, fmt.Errorf("record action for %s: %w", flag.UserID, err)
			}
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func (a *Actuator) route(ctx context.Context, flag activity.InactivityFlag) (Action, error) {
	reason := Reason(flag.ConsecutiveInactiveDays)
	action := Action{
		Type:                    FlagForRemoval,
		Status:                  StatusExecuted,
		UserID:                  flag.UserID,
		Group:                   a.group,
		Reason:                  reason,
		Details:                 reason,
		ConsecutiveInactiveDays: flag.ConsecutiveInactiveDays,
	}

	if a.dryRun {
		action.Status = StatusDryRun
		a.log.Info("dry run: would remove member", "user", flag.UserID, "reason", reason)
		return action, nil
	}

	err := a.remover.RemoveMember(ctx, flag.UserID)
	switch {
	case err == nil:
		a.log.Info("member removed", "user", flag.UserID, "reason", reason)
	case errors.Is(err, cursor.ErrRemovalUnsupported):
		action.Type = ManualRemovalRequired
		action.Details = reason + " - Remove via dashboard"
		a.log.Warn("manual removal required", "user", flag.UserID, "reason", reason)
	default:
		return Action{}, fmt.Errorf("remove %s: %w", flag.UserID, err)
	}
	return action, nil
}
