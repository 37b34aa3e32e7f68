package store

import (
	"fmt"
	"time"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

// Column encodings. Timestamps are stored as RFC 3339 UTC text so that
// lexical order matches chronological order; an unset time or date is ''.

// timeLayout keeps a fixed number of fractional digits so that stored
// timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func marshalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func unmarshalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal time: %w", err)
	}
	return t, nil
}

func marshalDate(d activity.Date) string {
	return d.String()
}

func unmarshalDate(s string) (activity.Date, error) {
	if s == "" {
		return activity.Date{}, nil
	}
	d, err := activity.ParseDate(s)
	if err != nil {
		return activity.Date{}, fmt.Errorf("unmarshal date: %w", err)
	}
	return d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
