package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testStart = time.Date(2025, time.July, 31, 9, 0, 0, 0, time.UTC)

// createTestRun creates a run with minimal required fields.
func createTestRun(id string, startedAt time.Time) Run {
	return Run{
		ID:          id,
		StartedAt:   startedAt,
		Source:      "api",
		AsOf:        activity.MustParseDate("2025-07-31"),
		WindowStart: activity.MustParseDate("2025-06-12"),
		Threshold:   14,
		GroupName:   "Cursor Team",
	}
}
