package cursor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.cursor.com"
	defaultTimeout = 30 * time.Second
)

// ErrRemovalUnsupported is returned by RemoveMember: the Admin API has no
// endpoint for removing team members, so removal is a manual dashboard step.
var ErrRemovalUnsupported = errors.New("member removal is not supported by the Cursor Admin API")

// DefaultProtectedRoles are never considered for removal.
var DefaultProtectedRoles = []string{"owner", "free-owner"}

// Client is a Cursor Admin API client for team usage and membership
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// New creates a new Cursor Admin API client authenticated with apiKey
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-2xx response from the API
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Body       string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cursor API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("cursor API error (status %d): %s", e.StatusCode, e.Body)
}

// DailyUsage is one row of POST /teams/daily-usage-data.
//
// Date is kept raw: the API sends epoch milliseconds, but users without
// history come back with 0, null or an epoch string.
type DailyUsage struct {
	Email    string          `json:"email"`
	IsActive *bool           `json:"isActive"`
	Date     json.RawMessage `json:"date"`
}

type dailyUsageRequest struct {
	StartDate int64 `json:"startDate"`
	EndDate   int64 `json:"endDate"`
}

type dailyUsageResponse struct {
	Data []DailyUsage `json:"data"`
}

// Member is a team member from GET /teams/members
type Member struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type membersResponse struct {
	TeamMembers []Member `json:"teamMembers"`
}

// DailyUsage fetches per-user daily activity between start and end.
func (c *Client) DailyUsage(ctx context.Context, start, end time.Time) ([]DailyUsage, error) {
	payload, err := json.Marshal(dailyUsageRequest{
		StartDate: start.UnixMilli(),
		EndDate:   end.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/teams/daily-usage-data", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var out dailyUsageResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("fetching daily usage: %w", err)
	}
	return out.Data, nil
}

// AllMembers fetches every team member, owners included.
func (c *Client) AllMembers(ctx context.Context) ([]Member, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/teams/members", nil)
	if err != nil {
		return nil, err
	}

	var out membersResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("fetching team members: %w", err)
	}
	return out.TeamMembers, nil
}

// TeamMembers fetches team members whose role is not protected.
// A nil protectedRoles uses DefaultProtectedRoles.
func (c *Client) TeamMembers(ctx context.Context, protectedRoles []string) ([]Member, error) {
	all, err := c.AllMembers(ctx)
	if err != nil {
		return nil, err
	}
	return FilterRoles(all, protectedRoles), nil
}

// RemoveMember always fails with ErrRemovalUnsupported.
func (c *Client) RemoveMember(ctx context.Context, email string) error {
	return fmt.Errorf("remove %s: %w", email, ErrRemovalUnsupported)
}

// FilterRoles drops members whose role is in protectedRoles.
// A nil protectedRoles uses DefaultProtectedRoles.
func FilterRoles(members []Member, protectedRoles []string) []Member {
	if protectedRoles == nil {
		protectedRoles = DefaultProtectedRoles
	}
	protected := make(map[string]bool, len(protectedRoles))
	for _, r := range protectedRoles {
		protected[strings.ToLower(r)] = true
	}

	kept := make([]Member, 0, len(members))
	for _, m := range members {
		if protected[strings.ToLower(m.Role)] {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// RoleCounts tallies members per role. Missing roles count as "unknown".
func RoleCounts(members []Member) map[string]int {
	counts := make(map[string]int)
	for _, m := range members {
		role := m.Role
		if role == "" {
			role = "unknown"
		}
		counts[role]++
	}
	return counts
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	// The Admin API takes the key as the basic-auth user name.
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
