package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/steven-giang-van/scripts-central/internal/engine"
)

// Snapshot renders an analysis as stable text: a header, the summary
// counters and one line per user report.
func Snapshot(name string, res *engine.Result) []byte {
	flags := make(map[string]string, len(res.Flags))
	for _, f := range res.Flags {
		flags[f.UserID] = f.InactiveSinceLabel()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", name)
	fmt.Fprintf(&b, "threshold=%d users=%d with_activity=%d flagged=%d\n",
		res.Summary.InactiveThreshold, res.Summary.TotalUsers,
		res.Summary.UsersWithActivity, res.Summary.FlaggedUsers)
	for _, r := range res.Reports {
		fmt.Fprintf(&b, "%s total=%d active=%d current=%d max=%d last_active=%s",
			r.UserID, r.TotalDays, r.ActiveDays,
			r.CurrentConsecutiveInactive, r.MaxConsecutiveInactive, r.LastActiveLabel())
		if r.NeverActive {
			b.WriteString(" never_active")
		}
		if since, ok := flags[r.UserID]; ok {
			fmt.Fprintf(&b, " flagged since=%s", since)
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Scenarios that expect an error have no snapshot; their result is
// returned without a golden comparison.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if result.Analysis == nil {
		return result, nil
	}

	AssertGolden(t, scenario.Name, result.Analysis)
	return result, nil
}

// AssertGolden compares an analysis snapshot against a golden file without
// running a scenario.
func AssertGolden(t *testing.T, name string, res *engine.Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, res))
}
