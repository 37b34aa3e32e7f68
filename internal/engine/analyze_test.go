package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/testutil"
)

func sampleRecords() []activity.Record {
	days := testutil.Weekdays(july1, 14)
	return testutil.Concat(
		testutil.Inactive("carol@example.com", days...),
		testutil.Active("alice@example.com", days...),
		testutil.Inactive("bob@example.com", days[:10]...),
		testutil.Active("bob@example.com", days[10:]...),
		testutil.Inactive("dave@example.com", activity.UnixEpoch),
		testutil.Inactive("dave@example.com", days...),
	)
}

func TestAnalyze_PartitionsAndOrdersByUser(t *testing.T) {
	windowStart := activity.MustParseDate("2025-06-20")
	result, err := Analyze(sampleRecords(), Config{Policy: weekendsOnly, Threshold: 14, WindowStart: windowStart})
	require.NoError(t, err)

	require.Len(t, result.Reports, 4)
	assert.Equal(t, "alice@example.com", result.Reports[0].UserID)
	assert.Equal(t, "bob@example.com", result.Reports[1].UserID)
	assert.Equal(t, "carol@example.com", result.Reports[2].UserID)
	assert.Equal(t, "dave@example.com", result.Reports[3].UserID)

	assert.Equal(t, []string{"carol@example.com", "dave@example.com"}, result.FlaggedUserIDs())
	assert.Equal(t, "2025-07-01", result.Flags[0].InactiveSince.String())
	assert.Equal(t, windowStart, result.Flags[1].InactiveSince)

	s := result.Summary
	assert.Equal(t, 4, s.TotalUsers)
	assert.Equal(t, 2, s.UsersWithActivity)
	assert.Equal(t, 2, s.FlaggedUsers)
	assert.Equal(t, 14, s.InactiveThreshold)
	assert.True(t, s.ExcludeWeekends)
	assert.InDelta(t, (1.0+4.0/14.0)/4, s.AvgActivityRate, 1e-9)
}

func TestAnalyze_MonotonicFlagging(t *testing.T) {
	records := sampleRecords()

	previous := map[string]bool{}
	for i, threshold := range []int{20, 14, 10, 4, 1, 0, -1} {
		result, err := Analyze(records, Config{Policy: weekendsOnly, Threshold: threshold})
		require.NoError(t, err)

		current := map[string]bool{}
		for _, id := range result.FlaggedUserIDs() {
			current[id] = true
		}
		if i > 0 {
			for id := range previous {
				assert.True(t, current[id], "%s flagged at higher threshold but not at %d", id, threshold)
			}
		}
		previous = current
	}
	assert.Len(t, previous, 4, "every user with counted days is flagged at threshold <= 0")
}

func TestAnalyze_Idempotent(t *testing.T) {
	cfg := Config{Policy: activity.NewExclusionPolicy(true, activity.MustParseDate("2025-07-04")), Threshold: 5}

	first, err := Analyze(sampleRecords(), cfg)
	require.NoError(t, err)
	second, err := Analyze(sampleRecords(), cfg)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAnalyze_Empty(t *testing.T) {
	result, err := Analyze(nil, Config{Threshold: 14})
	require.NoError(t, err)
	assert.Empty(t, result.Reports)
	assert.NotNil(t, result.Flags)
	assert.Equal(t, 0.0, result.Summary.AvgActivityRate)
}

func TestAnalyze_RejectsInvalidUser(t *testing.T) {
	records := testutil.Concat(sampleRecords(), testutil.Active("alice@example.com", july1))

	_, err := Analyze(records, Config{Policy: weekendsOnly, Threshold: 14})
	require.Error(t, err)

	var ve *activity.InputValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, activity.CodeDuplicateRecord, ve.Code)
	assert.Equal(t, "alice@example.com", ve.UserID)
}

func TestAnalyze_RejectsMissingUser(t *testing.T) {
	_, err := Analyze(testutil.Inactive("", july1), Config{Threshold: 1})
	require.Error(t, err)
	assert.True(t, activity.IsValidationError(err))
}
