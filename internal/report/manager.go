package report

import (
	"io"

	"github.com/steven-giang-van/scripts-central/internal/actuator"
)

// DashboardURL is where flagged members are removed by hand.
const DashboardURL = "https://cursor.com/dashboard"

// ManagerRun is what the manager summary reports on.
type ManagerRun struct {
	RunID         string
	TotalUsers    int
	InactiveUsers int
	Actions       []actuator.Action
	DryRun        bool

	// Audit locations; empty ones are omitted.
	LogFile     string
	ActionsFile string
	Database    string
}

// WriteManagerSummary renders the end-of-run summary with the manual steps
// an administrator has to take.
func WriteManagerSummary(w io.Writer, run ManagerRun) error {
	p := &printer{w: w}

	p.rule("=", 60)
	p.line("AUTOMATED USER MANAGEMENT SUMMARY")
	p.rule("=", 60)
	p.printf("Total Users Analyzed: %d\n", run.TotalUsers)
	p.printf("Inactive Users Found: %d\n", run.InactiveUsers)
	p.printf("Actions Taken: %d\n", len(run.Actions))

	if run.DryRun {
		p.line("")
		p.line("DRY RUN MODE - No actual changes were made")
	}

	if len(run.Actions) > 0 {
		p.line("")
		p.line("USERS FLAGGED FOR REMOVAL:")
		p.rule("-", 50)
		for _, a := range run.Actions {
			p.printf("- %s\n", a.UserID)
			p.printf("  Reason: %s\n", a.Reason)
			p.printf("  Action: %s\n", a.Type)
		}

		p.line("")
		p.line("MANUAL ACTIONS REQUIRED:")
		p.rule("-", 50)
		p.printf("1. Log into Cursor Dashboard: %s\n", DashboardURL)
		p.line("2. Go to Settings > Team Members")
		p.line("3. Remove the flagged users listed above")
		p.line("4. Consider reaching out to users before removal")
	}

	p.line("")
	p.line("LOGGING INFORMATION:")
	p.rule("-", 50)
	p.printf("Run ID: %s\n", run.RunID)
	if run.LogFile != "" {
		p.printf("Main log file: %s\n", run.LogFile)
	}
	if run.ActionsFile != "" {
		p.printf("Actions log file: %s\n", run.ActionsFile)
	}
	if run.Database != "" {
		p.printf("Audit database: %s\n", run.Database)
	}

	return p.err
}
