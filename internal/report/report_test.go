package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/actuator"
	"github.com/steven-giang-van/scripts-central/internal/engine"
	"github.com/steven-giang-van/scripts-central/internal/testutil"
)

// fixture covers 2025-07-01 (Tue) to 2025-07-10 (Thu) with weekends and
// Jul 4 excluded, so seven days are counted.
func fixture(t *testing.T) *engine.Result {
	t.Helper()
	start := activity.MustParseDate("2025-07-01")
	days := testutil.Days(start, 10)

	records := testutil.Concat(
		testutil.Active("alice@example.com", days...),
		testutil.Inactive("bob@example.com", days...),
		testutil.Active("carol@example.com", days[:3]...),
		testutil.Inactive("carol@example.com", days[3:]...),
		testutil.Inactive("dave@example.com", activity.UnixEpoch),
		testutil.Inactive("dave@example.com", days...),
		testutil.Inactive("erin@example.com", days[:6]...),
		testutil.Active("erin@example.com", days[6]),
		testutil.Inactive("erin@example.com", days[7:]...),
	)

	res, err := engine.Analyze(records, engine.Config{
		Policy:      activity.NewExclusionPolicy(true, activity.MustParseDate("2025-07-04")),
		Threshold:   5,
		WindowStart: start,
	})
	require.NoError(t, err)
	return res
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestWriteSummary_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, fixture(t)))
	newGoldie(t).Assert(t, "summary", buf.Bytes())
}

func TestWriteDetailed_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDetailed(&buf, fixture(t)))
	newGoldie(t).Assert(t, "detailed", buf.Bytes())
}

func TestWriteManagerSummary_Golden(t *testing.T) {
	res := fixture(t)
	actions, err := actuator.New(nil, actuator.WithDryRun(true)).Route(context.Background(), res.Flags)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteManagerSummary(&buf, ManagerRun{
		RunID:         "run-1",
		TotalUsers:    res.Summary.TotalUsers,
		InactiveUsers: len(res.Flags),
		Actions:       actions,
		DryRun:        true,
		LogFile:       "user_management_audit.log",
		ActionsFile:   "user_actions.log",
		Database:      "idlecheck.db",
	}))
	newGoldie(t).Assert(t, "manager_summary", buf.Bytes())
}

func TestWriteManagerSummary_NothingFlagged(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteManagerSummary(&buf, ManagerRun{RunID: "run-2", TotalUsers: 3}))
	newGoldie(t).Assert(t, "manager_summary_empty", buf.Bytes())
}

func TestAnalysisView_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewAnalysisView(fixture(t))))
	newGoldie(t).Assert(t, "analysis_json", buf.Bytes())
}

func TestWriteSummary_NoFlags(t *testing.T) {
	res, err := engine.Analyze(
		testutil.Active("alice@example.com", testutil.Days(activity.MustParseDate("2025-07-01"), 3)...),
		engine.Config{Threshold: 14},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, res))
	out := buf.String()
	assert.Contains(t, out, "No users found with 14+ consecutive inactive days.")
	assert.NotContains(t, out, "Excluded from counting")
	assert.Contains(t, out, "Average activity rate: 100.0%")
}

func TestWriteDetailed_NoWatchList(t *testing.T) {
	res, err := engine.Analyze(
		testutil.Inactive("bob@example.com", testutil.Days(activity.MustParseDate("2025-07-01"), 2)...),
		engine.Config{Threshold: 14},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDetailed(&buf, res))
	assert.True(t, strings.HasSuffix(buf.String(), "No users with 7+ consecutive inactive days found.\n"))
}

func TestByCurrentStreak_DoesNotMutate(t *testing.T) {
	reports := []activity.UserReport{
		{UserID: "b", CurrentConsecutiveInactive: 1},
		{UserID: "a", CurrentConsecutiveInactive: 1},
		{UserID: "c", CurrentConsecutiveInactive: 9},
	}

	sorted := ByCurrentStreak(reports)
	assert.Equal(t, []string{"c", "a", "b"}, []string{sorted[0].UserID, sorted[1].UserID, sorted[2].UserID})
	assert.Equal(t, "b", reports[0].UserID)
}

func TestNewAnalysisView_EmptyResult(t *testing.T) {
	res, err := engine.Analyze(nil, engine.Config{Threshold: 14})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewAnalysisView(res)))
	assert.Contains(t, buf.String(), `"inactive_users": []`)
	assert.Contains(t, buf.String(), `"user_reports": []`)
	assert.Contains(t, buf.String(), `"excluded_dates": []`)
	assert.NotContains(t, buf.String(), "window_start")
}

func TestNewManagerView(t *testing.T) {
	res := fixture(t)
	v := NewManagerView("run-1", activity.MustParseDate("2025-07-10"), activity.MustParseDate("2025-07-01"), true, "abc", res, nil)

	assert.Equal(t, "2025-07-10", v.AsOf)
	assert.NotNil(t, v.Actions)
	assert.Len(t, v.Analysis.InactiveUsers, 2)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestRenderers_PropagateWriteErrors(t *testing.T) {
	res := fixture(t)
	assert.Error(t, WriteSummary(failingWriter{}, res))
	assert.Error(t, WriteDetailed(failingWriter{}, res))
	assert.Error(t, WriteManagerSummary(failingWriter{}, ManagerRun{}))
}
