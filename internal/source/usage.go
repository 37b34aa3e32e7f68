package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/httpx/upstream/cursor"
)

// UsageOptions controls how API usage rows become records.
type UsageOptions struct {
	// Location converts epoch timestamps to calendar dates. nil means UTC.
	Location *time.Location

	// Sentinel is assigned to rows that carry no date (0, null, missing or
	// a 1970-01-01 string). The engine must be configured with the same
	// sentinel.
	Sentinel activity.Date
}

// FromDailyUsage converts Admin API usage rows into records.
func FromDailyUsage(rows []cursor.DailyUsage, opts UsageOptions) ([]activity.Record, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Sentinel.IsZero() {
		opts.Sentinel = activity.UnixEpoch
	}

	records := make([]activity.Record, 0, len(rows))
	for i, row := range rows {
		user := CanonicalUserID(row.Email)
		if user == "" {
			return nil, &activity.InputValidationError{
				Code: activity.CodeMissingField, Field: "email", Message: fmt.Sprintf("usage row %d has no email", i),
			}
		}
		if row.IsActive == nil {
			return nil, &activity.InputValidationError{
				Code: activity.CodeMissingField, Field: "isActive", UserID: user, Message: fmt.Sprintf("usage row %d has no activity value", i),
			}
		}

		date, err := usageDate(row.Date, opts)
		if err != nil {
			return nil, &activity.InputValidationError{
				Code: activity.CodeInvalidDate, Field: "date", UserID: user, Message: err.Error(),
			}
		}

		records = append(records, activity.Record{UserID: user, Date: date, Active: *row.IsActive})
	}
	return records, nil
}

// usageDate decodes the raw date of a usage row.
func usageDate(raw json.RawMessage, opts UsageOptions) (activity.Date, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return opts.Sentinel, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return activity.Date{}, fmt.Errorf("decode date: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" || s == "0" || strings.HasPrefix(s, "1970-01-01") {
			return opts.Sentinel, nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromMillis(ms, opts), nil
		}
		return ParseDateValue(s, opts.Location)
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return activity.Date{}, fmt.Errorf("unrecognized date %s", raw)
	}
	return fromMillis(int64(f), opts), nil
}

func fromMillis(ms int64, opts UsageOptions) activity.Date {
	if ms == 0 {
		return opts.Sentinel
	}
	return activity.DateOf(time.UnixMilli(ms).In(opts.Location))
}
