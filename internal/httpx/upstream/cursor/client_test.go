package cursor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("key_test", WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
}

func TestDailyUsage_SendsEpochMillisAndAuth(t *testing.T) {
	start := time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.July, 31, 0, 0, 0, 0, time.UTC)

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/teams/daily-usage-data", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_test", user)
		assert.Equal(t, "", pass)

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var req map[string]int64
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, start.UnixMilli(), req["startDate"])
		assert.Equal(t, end.UnixMilli(), req["endDate"])

		_, _ = w.Write([]byte(`{"data":[
			{"email":"a@example.com","isActive":true,"date":1751328000000},
			{"email":"b@example.com","isActive":false,"date":0},
			{"email":"c@example.com","date":1751328000000}
		]}`))
	})

	rows, err := client.DailyUsage(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "a@example.com", rows[0].Email)
	require.NotNil(t, rows[0].IsActive)
	assert.True(t, *rows[0].IsActive)
	assert.Equal(t, "1751328000000", string(rows[0].Date))
	assert.Equal(t, "0", string(rows[1].Date))
	assert.Nil(t, rows[2].IsActive, "missing isActive is preserved, not defaulted")
}

func TestTeamMembers_FiltersOwners(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/teams/members", r.URL.Path)
		_, _ = w.Write([]byte(`{"teamMembers":[
			{"name":"Olive","email":"olive@example.com","role":"owner"},
			{"name":"Fred","email":"fred@example.com","role":"free-owner"},
			{"name":"Mia","email":"mia@example.com","role":"member"}
		]}`))
	})

	all, err := client.AllMembers(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	members, err := client.TeamMembers(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "mia@example.com", members[0].Email)
}

func TestDo_APIError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	})

	_, err := client.AllMembers(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestDo_NonJSONError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.DailyUsage(context.Background(), time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestRemoveMember_Unsupported(t *testing.T) {
	client := New("key")
	err := client.RemoveMember(context.Background(), "a@example.com")
	assert.True(t, errors.Is(err, ErrRemovalUnsupported))
}

func TestFilterRolesAndCounts(t *testing.T) {
	members := []Member{
		{Email: "a", Role: "Owner"},
		{Email: "b", Role: "member"},
		{Email: "c"},
	}

	kept := FilterRoles(members, []string{"owner"})
	assert.Len(t, kept, 2)

	counts := RoleCounts(members)
	assert.Equal(t, map[string]int{"Owner": 1, "member": 1, "unknown": 1}, counts)
}
