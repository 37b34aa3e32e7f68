package activity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-07-04 ")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.July, 4), d)
	assert.Equal(t, "2025-07-04", d.String())

	_, err = ParseDate("07/04/2025")
	require.Error(t, err)
}

func TestDate_ZeroValue(t *testing.T) {
	var d Date
	assert.True(t, d.IsZero())
	assert.Equal(t, "", d.String())
	assert.False(t, UnixEpoch.IsZero())
}

func TestDate_Weekend(t *testing.T) {
	tests := []struct {
		date    string
		weekend bool
	}{
		{"2025-07-04", false}, // Friday
		{"2025-07-05", true},  // Saturday
		{"2025-07-06", true},  // Sunday
		{"2025-07-07", false}, // Monday
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.weekend, MustParseDate(tt.date).IsWeekend())
		})
	}
}

func TestDate_AddDaysAcrossMonths(t *testing.T) {
	d := MustParseDate("2025-07-31")
	assert.Equal(t, MustParseDate("2025-08-01"), d.AddDays(1))
	assert.Equal(t, MustParseDate("2025-06-30"), d.AddDays(-31))
}

func TestDate_Compare(t *testing.T) {
	a := MustParseDate("2025-07-01")
	b := MustParseDate("2025-07-02")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(NewDate(2025, time.July, 1)))
}

func TestDateOf_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*60*60)
	ts := time.Date(2025, time.July, 2, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, MustParseDate("2025-07-01"), DateOf(ts.In(loc)))
	assert.Equal(t, MustParseDate("2025-07-02"), DateOf(ts))
}

func TestDate_JSON(t *testing.T) {
	rec := Record{UserID: "a@example.com", Date: MustParseDate("2025-07-01"), Active: true}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":"a@example.com","date":"2025-07-01","is_active":true}`, string(data))

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}

func TestDateRange_Extend(t *testing.T) {
	var r DateRange
	assert.True(t, r.IsZero())

	r = r.Extend(MustParseDate("2025-07-03"))
	r = r.Extend(MustParseDate("2025-07-01"))
	r = r.Extend(MustParseDate("2025-07-02"))

	assert.Equal(t, "2025-07-01 to 2025-07-03", r.String())
}

func TestDate_Fields(t *testing.T) {
	d := MustParseDate("2025-07-04")
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.July, d.Month())
	assert.Equal(t, 4, d.Day())
}
