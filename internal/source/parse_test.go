package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

func TestParseDateValue(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
		loc   *time.Location
		want  string
	}{
		{"iso date", "2025-07-04", nil, "2025-07-04"},
		{"us date", "7/4/2025", nil, "2025-07-04"},
		{"padded us date", "07/04/2025", nil, "2025-07-04"},
		{"utc timestamp", "2025-07-04T23:30:00Z", nil, "2025-07-04"},
		{"timestamp converted to location", "2025-07-05T03:00:00Z", la, "2025-07-04"},
		{"naive timestamp", "2025-07-04 10:00:00", la, "2025-07-04"},
		{"fractional seconds", "2025-07-14T00:00:00.000Z", nil, "2025-07-14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateValue(tt.value, tt.loc)
			require.NoError(t, err)
			assert.Equal(t, activity.MustParseDate(tt.want), got)
		})
	}
}

func TestParseDateValue_Invalid(t *testing.T) {
	for _, v := range []string{"", "yesterday", "2025-13-01", "04.07.2025"} {
		_, err := ParseDateValue(v, nil)
		assert.Error(t, err, v)
	}
}

func TestParseBoolValue(t *testing.T) {
	for _, v := range []string{"true", "TRUE", "t", "1", "yes", " Y "} {
		got, err := ParseBoolValue(v)
		require.NoError(t, err, v)
		assert.True(t, got, v)
	}
	for _, v := range []string{"false", "False", "f", "0", "no", "n"} {
		got, err := ParseBoolValue(v)
		require.NoError(t, err, v)
		assert.False(t, got, v)
	}
	for _, v := range []string{"", "maybe", "2"} {
		_, err := ParseBoolValue(v)
		assert.Error(t, err, v)
	}
}

func TestCanonicalUserID(t *testing.T) {
	assert.Equal(t, "alice@example.com", CanonicalUserID("  Alice@Example.COM "))
	// Composed and decomposed forms of é collapse to the same id.
	assert.Equal(t, CanonicalUserID("jos\u00e9@example.com"), CanonicalUserID("jose\u0301@example.com"))
	assert.Equal(t, "", CanonicalUserID("   "))
}

func TestFilterUsers(t *testing.T) {
	d := activity.MustParseDate("2025-07-01")
	records := []activity.Record{
		{UserID: "alice@example.com", Date: d},
		{UserID: "bob@example.com", Date: d},
		{UserID: "carol@example.com", Date: d, Active: true},
	}

	kept := FilterUsers(records, NewUserSet("ALICE@example.com", "carol@example.com", ""))
	require.Len(t, kept, 2)
	assert.Equal(t, "alice@example.com", kept[0].UserID)
	assert.Equal(t, "carol@example.com", kept[1].UserID)

	assert.Empty(t, FilterUsers(records, NewUserSet()))
}

func TestFilterWindow(t *testing.T) {
	sentinel := activity.UnixEpoch
	records := []activity.Record{
		{UserID: "alice@example.com", Date: activity.MustParseDate("2025-06-30")},
		{UserID: "alice@example.com", Date: activity.MustParseDate("2025-07-01")},
		{UserID: "alice@example.com", Date: activity.MustParseDate("2025-07-03")},
		{UserID: "alice@example.com", Date: activity.MustParseDate("2025-07-04")},
		{UserID: "bob@example.com", Date: sentinel},
	}

	kept := FilterWindow(records, activity.MustParseDate("2025-07-01"), activity.MustParseDate("2025-07-03"), sentinel)
	require.Len(t, kept, 3)
	assert.Equal(t, "2025-07-01", kept[0].Date.String())
	assert.Equal(t, "2025-07-03", kept[1].Date.String())
	assert.Equal(t, sentinel, kept[2].Date)
}
