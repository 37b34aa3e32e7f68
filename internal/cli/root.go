package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/steven-giang-van/scripts-central/internal/audit"
	"github.com/steven-giang-van/scripts-central/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to config file, empty for defaults

	// Now and RunIDs replace the wall clock and the UUIDv7 generator (for testing).
	Now    func() time.Time
	RunIDs audit.RunIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the idlecheck CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idlecheck",
		Short: "idlecheck - Cursor seat inactivity checks",
		Long: `Detect team members who have been inactive for too many consecutive
business days, flag them for removal and keep an audit trail of every run.

Weekends and configured holidays are excluded from every streak.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "config file (.yaml or .cue)")

	// Add subcommands
	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewManageCommand(opts))
	cmd.AddCommand(NewWindowCommand(opts))
	cmd.AddCommand(NewMembersCommand(opts))
	cmd.AddCommand(NewLogsCommand(opts))
	cmd.AddCommand(NewScenariosCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// loadConfig loads the --config file, reporting failures through f.
func (o *RootOptions) loadConfig(f *OutputFormatter) (config.Config, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		// An invalid key is a config error, not rejected input.
		code := errorCode(err, ErrCodeConfig)
		if code == ErrCodeValidation {
			code = ErrCodeConfig
		}
		_ = f.Error(code, fmt.Sprintf("failed to load config: %v", err), errorDetails(err))
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	f.VerboseLog("Loaded config %q (threshold %d, analysis days %d)", o.Config, cfg.InactiveThreshold, cfg.AnalysisDays)
	return cfg, nil
}
