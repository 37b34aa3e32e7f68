package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

// CSVOptions names the columns of an activity export.
type CSVOptions struct {
	DateColumn   string
	UserColumn   string
	ActiveColumn string

	// Location converts timestamps to calendar dates. nil means UTC.
	Location *time.Location
}

// DefaultCSVOptions matches the Cursor analytics dashboard export.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		DateColumn:   "Date",
		UserColumn:   "Email",
		ActiveColumn: "Is Active",
		Location:     time.UTC,
	}
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string, opts CSVOptions) ([]activity.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open activity export: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

// ReadCSV parses an activity export. The header row must contain the three
// configured columns; other columns are ignored. Rows are returned in file
// order.
func ReadCSV(r io.Reader, opts CSVOptions) ([]activity.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, activity.NewValidationError(activity.CodeMissingField, "header", "activity export is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := locateColumns(header, opts)
	if err != nil {
		return nil, err
	}

	var records []activity.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if isBlank(row) {
			continue
		}
		rec, err := parseRow(row, cols, opts, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

type columns struct {
	date, user, active int
}

func locateColumns(header []string, opts CSVOptions) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		// Exports written by spreadsheet tools may start with a BOM.
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		index[h] = i
	}

	var missing []string
	find := func(name string) int {
		i, ok := index[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	cols := columns{
		date:   find(opts.DateColumn),
		user:   find(opts.UserColumn),
		active: find(opts.ActiveColumn),
	}
	if len(missing) > 0 {
		return columns{}, activity.NewValidationError(activity.CodeMissingField, "header",
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}
	return cols, nil
}

func parseRow(row []string, cols columns, opts CSVOptions, line int) (activity.Record, error) {
	cell := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	user := CanonicalUserID(cell(cols.user))
	if user == "" {
		return activity.Record{}, &activity.InputValidationError{
			Code: activity.CodeMissingField, Field: opts.UserColumn, Line: line, Message: "empty user",
		}
	}

	rawDate := cell(cols.date)
	if rawDate == "" {
		return activity.Record{}, &activity.InputValidationError{
			Code: activity.CodeMissingField, Field: opts.DateColumn, UserID: user, Line: line, Message: "empty date",
		}
	}
	date, err := ParseDateValue(rawDate, opts.Location)
	if err != nil {
		return activity.Record{}, &activity.InputValidationError{
			Code: activity.CodeInvalidDate, Field: opts.DateColumn, UserID: user, Line: line, Message: err.Error(),
		}
	}

	rawActive := cell(cols.active)
	if rawActive == "" {
		return activity.Record{}, &activity.InputValidationError{
			Code: activity.CodeMissingField, Field: opts.ActiveColumn, UserID: user, Line: line, Message: "empty activity value",
		}
	}
	active, err := ParseBoolValue(rawActive)
	if err != nil {
		return activity.Record{}, &activity.InputValidationError{
			Code: activity.CodeInvalidBool, Field: opts.ActiveColumn, UserID: user, Line: line, Message: err.Error(),
		}
	}

	return activity.Record{UserID: user, Date: date, Active: active}, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
