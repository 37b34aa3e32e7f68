package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/steven-giang-van/scripts-central/internal/config"
	"github.com/steven-giang-van/scripts-central/internal/httpx/upstream/cursor"
)

// MembersResult is the JSON payload of the members command.
type MembersResult struct {
	Total      int             `json:"total"`
	Roles      map[string]int  `json:"roles"`
	Excluded   int             `json:"excluded"`
	Considered []cursor.Member `json:"considered"`
}

// NewMembersCommand creates the members command.
func NewMembersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Show team members by role",
		Long: `Fetch the team from the Cursor Admin API, print the role breakdown and
list the members considered for inactivity checks. Members with a
protected role (owners by default) are never considered.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMembers(rootOpts, cmd)
		},
	}

	return cmd
}

func runMembers(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(formatter)
	if err != nil {
		return err
	}
	client, err := newCursorClient(cfg)
	if err != nil {
		return fail(formatter, ErrCodeConfig, "cannot reach the Cursor Admin API", err)
	}

	all, err := client.AllMembers(cmd.Context())
	if err != nil {
		return fail(formatter, ErrCodeUpstream, "failed to fetch team members", err)
	}
	considered := cursor.FilterRoles(all, cfg.ProtectedRoles)

	result := MembersResult{
		Total:      len(all),
		Roles:      cursor.RoleCounts(all),
		Excluded:   len(all) - len(considered),
		Considered: considered,
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return writeMembers(formatter.Writer, result)
}

func writeMembers(w io.Writer, r MembersResult) error {
	roles := make([]string, 0, len(r.Roles))
	for role := range r.Roles {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	fmt.Fprintf(w, "Total members: %d\n\n", r.Total)
	for _, role := range roles {
		fmt.Fprintf(w, "%-15s : %3d members\n", role, r.Roles[role])
	}
	fmt.Fprintf(w, "\nConsidered members: %d\n", len(r.Considered))
	fmt.Fprintf(w, "Excluded (protected roles): %d\n", r.Excluded)
	for _, m := range r.Considered {
		role := m.Role
		if role == "" {
			role = "unknown"
		}
		fmt.Fprintf(w, "  - %s (%s)\n", m.Email, role)
	}
	return nil
}

// newCursorClient builds an Admin API client from cfg.
func newCursorClient(cfg config.Config) (*cursor.Client, error) {
	if cfg.CursorAPI.APIKey == "" {
		return nil, errors.New("cursor_api.api_key is not set (use CURSOR_API_KEY)")
	}
	timeout, err := cfg.APITimeout()
	if err != nil {
		return nil, err
	}

	opts := []cursor.ClientOption{cursor.WithBaseURL(cfg.CursorAPI.BaseURL)}
	if timeout > 0 {
		opts = append(opts, cursor.WithTimeout(timeout))
	}
	return cursor.New(cfg.CursorAPI.APIKey, opts...), nil
}
