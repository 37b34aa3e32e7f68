package audit

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/steven-giang-van/scripts-central/internal/actuator"
)

// ActionsTimeLayout is the timestamp format of the actions log.
const ActionsTimeLayout = "2006-01-02 15:04:05"

// ActionsLog appends one line per action:
//
//	2025-07-31 09:00:00 | DRY_RUN | FLAG_FOR_REMOVAL | bob@example.com | Cursor Team | Inactive for 14 days
type ActionsLog struct {
	mu sync.Mutex
	w  io.Writer
}

// NewActionsLog writes lines to w.
func NewActionsLog(w io.Writer) *ActionsLog {
	return &ActionsLog{w: w}
}

// Append writes the line for a.
func (l *ActionsLog) Append(at time.Time, a actuator.Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := fmt.Fprintf(l.w, "%s | %s | %s | %s | %s | %s\n",
		at.Format(ActionsTimeLayout), a.Status, a.Type, a.UserID, a.Group, a.Details)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	return nil
}
