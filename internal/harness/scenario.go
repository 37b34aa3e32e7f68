package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

// Scenario defines one analysis scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains which rule the scenario pins down.
	Description string `yaml:"description"`

	Policy    PolicySpec `yaml:"policy"`
	Threshold int        `yaml:"threshold"`

	// WindowStart is the first day of the analysis window. Optional.
	WindowStart string `yaml:"window_start,omitempty"`

	// Sentinel overrides the never-active date. "none" disables detection;
	// empty keeps the engine default.
	Sentinel string `yaml:"sentinel,omitempty"`

	Users   []UserSpec   `yaml:"users,omitempty"`
	Records []RecordSpec `yaml:"records,omitempty"`

	// ExpectError is the validation code Analyze must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// PolicySpec is the exclusion policy of a scenario.
type PolicySpec struct {
	ExcludeWeekends bool     `yaml:"exclude_weekends"`
	ExcludedDates   []string `yaml:"excluded_dates,omitempty"`
}

// UserSpec is a compact day-by-day activity sequence for one user.
type UserSpec struct {
	User        string `yaml:"user"`
	Start       string `yaml:"start"`
	Days        string `yaml:"days"`
	NeverActive bool   `yaml:"never_active,omitempty"`
}

// RecordSpec is a single raw record.
type RecordSpec struct {
	User   string `yaml:"user"`
	Date   string `yaml:"date"`
	Active bool   `yaml:"active"`
}

// Assertion validates the analysis result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// User is the subject of not_flagged, user_report and flag.
	User string `yaml:"user,omitempty"`

	// Users is the expected flagged list (flagged).
	Users []string `yaml:"users,omitempty"`

	// Expect holds the fields to match (user_report, flag, summary).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertFlagged    = "flagged"
	AssertNotFlagged = "not_flagged"
	AssertUserReport = "user_report"
	AssertFlag       = "flag"
	AssertSummary    = "summary"
)

// SentinelNone disables never-active detection in a scenario.
const SentinelNone = "none"

// Day codes of UserSpec.Days.
const (
	dayActive   = 'A'
	dayInactive = 'I'
	dayMissing  = '.'
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(path), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(path)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Users) == 0 && len(s.Records) == 0 {
		return fmt.Errorf("users or records are required")
	}

	if s.ExpectError == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}

	for i, d := range s.Policy.ExcludedDates {
		if _, err := activity.ParseDate(d); err != nil {
			return fmt.Errorf("policy.excluded_dates[%d]: %w", i, err)
		}
	}
	if s.WindowStart != "" {
		if _, err := activity.ParseDate(s.WindowStart); err != nil {
			return fmt.Errorf("window_start: %w", err)
		}
	}
	if s.Sentinel != "" && s.Sentinel != SentinelNone {
		if _, err := activity.ParseDate(s.Sentinel); err != nil {
			return fmt.Errorf("sentinel: %w", err)
		}
	}

	for i, u := range s.Users {
		if u.User == "" {
			return fmt.Errorf("users[%d]: user is required", i)
		}
		if u.Days == "" && !u.NeverActive {
			return fmt.Errorf("users[%d]: days is required unless never_active is set", i)
		}
		if u.Days != "" {
			if _, err := activity.ParseDate(u.Start); err != nil {
				return fmt.Errorf("users[%d].start: %w", i, err)
			}
		}
		for j, c := range u.Days {
			if c != dayActive && c != dayInactive && c != dayMissing {
				return fmt.Errorf("users[%d].days[%d]: unknown day code %q", i, j, c)
			}
		}
	}

	for i, r := range s.Records {
		if _, err := activity.ParseDate(r.Date); err != nil {
			return fmt.Errorf("records[%d].date: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFlagged:
		// An empty list asserts that nobody is flagged.
	case AssertNotFlagged:
		if a.User == "" {
			return fmt.Errorf("assertions[%d]: user is required for not_flagged", index)
		}
	case AssertUserReport, AssertFlag:
		if a.User == "" {
			return fmt.Errorf("assertions[%d]: user is required for %s", index, a.Type)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
		}
	case AssertSummary:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for summary", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
