package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/steven-giang-van/scripts-central/internal/testutil"
)

// testNow is a Thursday; its date is the as-of date of manager runs.
var testNow = time.Date(2025, time.July, 10, 18, 30, 0, 0, time.UTC)

const testRunID = "0197f5a0-0000-7000-8000-000000000001"

func testOptions() *RootOptions {
	clock := testutil.NewFixedClock(testNow)
	return &RootOptions{
		Now:    clock.Now,
		RunIDs: testutil.NewFixedRunIDGenerator(testRunID),
	}
}

// execute runs the root command with args and returns stdout, stderr and the error.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand(opts)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// jsonResponse is CLIResponse with the payload left raw.
type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decodeResponse(t *testing.T, out string) jsonResponse {
	t.Helper()
	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// isolateEnv clears the environment keys config.Load reads.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CURSOR_API_KEY", "CURSOR_API_BASE_URL", "CURSOR_API_TIMEOUT",
		"IDLECHECK_INACTIVE_THRESHOLD", "IDLECHECK_ANALYSIS_DAYS", "IDLECHECK_EXCLUDE_WEEKENDS",
		"IDLECHECK_EXCLUDED_DATES", "IDLECHECK_AUDIT_DATABASE", "IDLECHECK_AUDIT_LOG_FILE",
		"IDLECHECK_AUDIT_ACTIONS_FILE", "IDLECHECK_S3_ENABLED", "IDLECHECK_KAFKA_ENABLED",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// auditPaths returns the audit locations of a test config rooted at dir.
type auditPaths struct {
	Database string
	LogFile  string
	Actions  string
}

func newAuditPaths(dir string) auditPaths {
	return auditPaths{
		Database: filepath.Join(dir, "audit.db"),
		LogFile:  filepath.Join(dir, "audit.log"),
		Actions:  filepath.Join(dir, "actions.log"),
	}
}

// writeConfig writes a YAML config for a team API at baseURL.
func writeConfig(t *testing.T, dir, baseURL string, paths auditPaths) string {
	t.Helper()
	return writeFile(t, dir, "config.yaml", `inactive_threshold: 3
analysis_days: 5
exclude_weekends: true
excluded_dates:
  - "2025-07-04"
group_name: "Cursor Team"
cursor_api:
  api_key: key_test
  base_url: "`+baseURL+`"
  timeout: 5s
audit:
  database: "`+paths.Database+`"
  log_file: "`+paths.LogFile+`"
  actions_file: "`+paths.Actions+`"
`)
}

// Epoch milliseconds of the business days in the test window (2025-07-03
// to 2025-07-10, with 07-04 a holiday).
var windowMillis = []int64{
	1751500800000, // 07-03
	1751846400000, // 07-07
	1751932800000, // 07-08
	1752019200000, // 07-09
	1752105600000, // 07-10
}

type usageRow struct {
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
	Date     int64  `json:"date"`
}

func usageRows(email string, active bool) []usageRow {
	rows := make([]usageRow, len(windowMillis))
	for i, ms := range windowMillis {
		rows[i] = usageRow{Email: email, IsActive: active, Date: ms}
	}
	return rows
}

// fakeTeamAPI serves the two Admin API endpoints the manager calls.
//
// alice is always active, bob and dave never are (dave also has a row
// without a date), the owner is protected and outsider is not a team member.
func fakeTeamAPI(t *testing.T) *httptest.Server {
	t.Helper()

	var rows []usageRow
	rows = append(rows, usageRows("alice@example.com", true)...)
	rows = append(rows, usageRows("Bob@Example.com", false)...)
	rows = append(rows, usageRows("dave@example.com", false)...)
	rows = append(rows, usageRow{Email: "dave@example.com", Date: 0})
	rows = append(rows, usageRows("owner@example.com", false)...)
	rows = append(rows, usageRows("outsider@example.com", false)...)

	mux := http.NewServeMux()
	mux.HandleFunc("/teams/members", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"teamMembers": []map[string]string{
			{"name": "Owner", "email": "owner@example.com", "role": "owner"},
			{"name": "Alice", "email": "alice@example.com", "role": "member"},
			{"name": "Bob", "email": "bob@example.com", "role": "member"},
			{"name": "Dave", "email": "dave@example.com", "role": "member"},
			{"name": "Erin", "email": "erin@example.com", "role": "free-owner"},
		}})
	})
	mux.HandleFunc("/teams/daily-usage-data", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": rows})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, _, _ := r.BasicAuth(); user != "key_test" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid API key"}`))
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}
