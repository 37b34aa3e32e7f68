// Package harness runs inactivity-analysis scenarios described in YAML.
//
// A scenario pins an exclusion policy, a threshold and a set of per-user
// activity sequences, then asserts on what engine.Analyze reports. Scenarios
// are executable documentation of the streak rules: weekend bridging,
// holidays, never-active users and the validation failures.
//
// # Scenario Format
//
//	name: weekend_bridge
//	description: "Weekends neither break nor extend a streak"
//	policy:
//	  exclude_weekends: true
//	  excluded_dates: ["2025-07-04"]
//	threshold: 3
//	window_start: "2025-07-01"   # optional
//	sentinel: "1970-01-01"       # optional, "none" disables detection
//	users:
//	  - user: bob@example.com
//	    start: "2025-07-02"
//	    days: "AIIII.I"
//	    never_active: false
//	records:                      # optional, appended verbatim
//	  - { user: eve@example.com, date: "2025-07-03", active: true }
//	expect_error: DUPLICATE_RECORD # optional
//	assertions:
//	  - type: flagged
//	    users: [bob@example.com]
//	  - type: user_report
//	    user: bob@example.com
//	    expect: { current_consecutive_inactive: 4 }
//
// In days strings each character covers one calendar day starting at start:
// A is an active record, I an inactive one and "." no record at all.
// never_active adds an inactive record on the sentinel date.
//
// # Assertion Types
//
//   - flagged: the exact flagged users, in report order
//   - not_flagged: user has no flag
//   - user_report: subset match on the user's report JSON
//   - flag: subset match on the user's flag JSON
//   - summary: subset match on the summary JSON
//
// # Golden Snapshots
//
// RunWithGolden renders every report as one line and compares it with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
