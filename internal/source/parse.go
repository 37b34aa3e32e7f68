package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

// timestampLayouts are tried after the plain YYYY-MM-DD form. Values with a
// time component are converted to the configured location before the
// calendar date is taken.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var dateOnlyLayouts = []string{
	activity.DateLayout,
	"1/2/2006",
	"01/02/2006",
}

// ParseDateValue parses a date cell. loc is used for values with a time
// component; nil means UTC.
func ParseDateValue(value string, loc *time.Location) (activity.Date, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)

	for _, layout := range dateOnlyLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return activity.DateOf(t), nil
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return activity.DateOf(t.In(loc)), nil
		}
	}
	return activity.Date{}, fmt.Errorf("unrecognized date %q", value)
}

// ParseBoolValue parses an activity flag. Only explicit spellings are
// accepted; an empty cell is an error, not false.
func ParseBoolValue(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "t", "1", "yes", "y":
		return true, nil
	case "false", "f", "0", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("cannot parse %q as a boolean", value)
}
