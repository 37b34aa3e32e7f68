package harness

import (
	"errors"
	"fmt"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/engine"
)

// Run executes a scenario and evaluates its assertions.
//
// A scenario with expect_error passes when Analyze fails with that
// validation code. The returned error is reserved for scenarios that cannot
// be built at all.
func Run(scenario *Scenario) (*Result, error) {
	records, err := BuildRecords(scenario)
	if err != nil {
		return nil, err
	}
	cfg, opts, err := buildConfig(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	res, err := engine.Analyze(records, cfg, opts...)
	if err != nil {
		result.Err = err
		checkExpectedError(scenario, err, result)
		return result, nil
	}
	result.Analysis = res

	if scenario.ExpectError != "" {
		result.AddError(fmt.Sprintf("expected validation error %s, analysis succeeded", scenario.ExpectError))
		return result, nil
	}

	for _, msg := range EvaluateAssertions(res, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func checkExpectedError(scenario *Scenario, err error, result *Result) {
	if scenario.ExpectError == "" {
		result.AddError(fmt.Sprintf("analysis failed: %v", err))
		return
	}
	var ve *activity.InputValidationError
	if !errors.As(err, &ve) {
		result.AddError(fmt.Sprintf("expected validation error %s, got %v", scenario.ExpectError, err))
		return
	}
	if string(ve.Code) != scenario.ExpectError {
		result.AddError(fmt.Sprintf("expected validation error %s, got %s", scenario.ExpectError, ve.Code))
	}
}

// BuildRecords expands the scenario's users and records into activity
// records, in declaration order.
func BuildRecords(scenario *Scenario) ([]activity.Record, error) {
	sentinel, err := scenarioSentinel(scenario)
	if err != nil {
		return nil, err
	}

	var records []activity.Record
	for i, u := range scenario.Users {
		if u.NeverActive {
			if sentinel.IsZero() {
				return nil, fmt.Errorf("users[%d]: never_active needs a sentinel", i)
			}
			records = append(records, activity.Record{UserID: u.User, Date: sentinel})
		}
		if u.Days == "" {
			continue
		}
		start, err := activity.ParseDate(u.Start)
		if err != nil {
			return nil, fmt.Errorf("users[%d].start: %w", i, err)
		}
		for j, c := range u.Days {
			switch c {
			case dayActive, dayInactive:
				records = append(records, activity.Record{
					UserID: u.User,
					Date:   start.AddDays(j),
					Active: c == dayActive,
				})
			case dayMissing:
			default:
				return nil, fmt.Errorf("users[%d].days[%d]: unknown day code %q", i, j, c)
			}
		}
	}

	for i, r := range scenario.Records {
		d, err := activity.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("records[%d].date: %w", i, err)
		}
		records = append(records, activity.Record{UserID: r.User, Date: d, Active: r.Active})
	}
	return records, nil
}

func buildConfig(scenario *Scenario) (engine.Config, []engine.Option, error) {
	holidays := make([]activity.Date, 0, len(scenario.Policy.ExcludedDates))
	for i, s := range scenario.Policy.ExcludedDates {
		d, err := activity.ParseDate(s)
		if err != nil {
			return engine.Config{}, nil, fmt.Errorf("policy.excluded_dates[%d]: %w", i, err)
		}
		holidays = append(holidays, d)
	}

	cfg := engine.Config{
		Policy:    activity.NewExclusionPolicy(scenario.Policy.ExcludeWeekends, holidays...),
		Threshold: scenario.Threshold,
	}
	if scenario.WindowStart != "" {
		d, err := activity.ParseDate(scenario.WindowStart)
		if err != nil {
			return engine.Config{}, nil, fmt.Errorf("window_start: %w", err)
		}
		cfg.WindowStart = d
	}

	sentinel, err := scenarioSentinel(scenario)
	if err != nil {
		return engine.Config{}, nil, err
	}
	return cfg, []engine.Option{engine.WithSentinel(sentinel)}, nil
}

// scenarioSentinel resolves the sentinel date; zero means disabled.
func scenarioSentinel(scenario *Scenario) (activity.Date, error) {
	switch scenario.Sentinel {
	case "":
		return activity.UnixEpoch, nil
	case SentinelNone:
		return activity.Date{}, nil
	}
	d, err := activity.ParseDate(scenario.Sentinel)
	if err != nil {
		return activity.Date{}, fmt.Errorf("sentinel: %w", err)
	}
	return d, nil
}
