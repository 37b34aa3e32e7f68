package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/steven-giang-van/scripts-central/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes the flagged users to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Flagged  []string // Flagged users for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "\nFlagged users: %v\n", e.Flagged)

	return buf.String()
}

// assertFlagged checks the exact flagged list, in order.
func assertFlagged(res *engine.Result, assertion Assertion) error {
	actual := res.FlaggedUserIDs()
	expected := assertion.Users
	if expected == nil {
		expected = []string{}
	}
	if !reflect.DeepEqual(actual, expected) {
		return &AssertionError{
			Type:     AssertFlagged,
			Expected: fmt.Sprintf("%v", expected),
			Actual:   fmt.Sprintf("%v", actual),
			Flagged:  actual,
		}
	}
	return nil
}

func assertNotFlagged(res *engine.Result, assertion Assertion) error {
	for _, f := range res.Flags {
		if f.UserID == assertion.User {
			return &AssertionError{
				Type:     AssertNotFlagged,
				Expected: fmt.Sprintf("%s not flagged", assertion.User),
				Actual:   fmt.Sprintf("flagged with %d consecutive days", f.ConsecutiveInactiveDays),
				Flagged:  res.FlaggedUserIDs(),
			}
		}
	}
	return nil
}

func assertUserReport(res *engine.Result, assertion Assertion) error {
	for _, r := range res.Reports {
		if r.UserID == assertion.User {
			return matchFields(AssertUserReport, r, assertion.Expect, res)
		}
	}
	return &AssertionError{
		Type:     AssertUserReport,
		Expected: fmt.Sprintf("report for %s", assertion.User),
		Actual:   "user not analyzed",
		Flagged:  res.FlaggedUserIDs(),
	}
}

func assertFlag(res *engine.Result, assertion Assertion) error {
	for _, f := range res.Flags {
		if f.UserID == assertion.User {
			return matchFields(AssertFlag, f, assertion.Expect, res)
		}
	}
	return &AssertionError{
		Type:     AssertFlag,
		Expected: fmt.Sprintf("%s flagged", assertion.User),
		Actual:   "not flagged",
		Flagged:  res.FlaggedUserIDs(),
	}
}

// matchFields compares expected against the JSON form of v (subset match).
func matchFields(kind string, v any, expected map[string]interface{}, res *engine.Result) error {
	actual, err := toMap(v)
	if err != nil {
		return err
	}
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   "field not present",
				Flagged:  res.FlaggedUserIDs(),
			}
		}
		if !valuesEqual(got, want) {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q = %v", key, want),
				Actual:   fmt.Sprintf("field %q = %v", key, got),
				Flagged:  res.FlaggedUserIDs(),
			}
		}
	}
	return nil
}

func toMap(v any) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// valuesEqual compares a decoded JSON value with a YAML value.
// Numbers compare by value; sequences compare element-wise.
func valuesEqual(actual, expected interface{}) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	if a, ok := toFloat(actual); ok {
		e, ok := toFloat(expected)
		return ok && a == e
	}

	if a, ok := actual.([]interface{}); ok {
		e, ok := expected.([]interface{})
		if !ok || len(a) != len(e) {
			return false
		}
		for i := range a {
			if !valuesEqual(a[i], e[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(actual, expected)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// EvaluateAssertions evaluates all assertions against the analysis.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(res *engine.Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFlagged:
			err = assertFlagged(res, assertion)
		case AssertNotFlagged:
			err = assertNotFlagged(res, assertion)
		case AssertUserReport:
			err = assertUserReport(res, assertion)
		case AssertFlag:
			err = assertFlag(res, assertion)
		case AssertSummary:
			err = matchFields(AssertSummary, res.Summary, assertion.Expect, res)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
