// Package config loads the idlecheck configuration.
//
// A config file (YAML, or CUE when the extension is .cue) is decoded over
// Default(). A .env file in the working directory is loaded if present, and
// environment variables then override individual keys.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/steven-giang-van/scripts-central/internal/activity"
)

// Config holds all idlecheck configuration.
type Config struct {
	InactiveThreshold   int       `yaml:"inactive_threshold" json:"inactive_threshold" env:"IDLECHECK_INACTIVE_THRESHOLD"`
	AnalysisDays        int       `yaml:"analysis_days" json:"analysis_days" env:"IDLECHECK_ANALYSIS_DAYS"`
	ExcludeWeekends     bool      `yaml:"exclude_weekends" json:"exclude_weekends" env:"IDLECHECK_EXCLUDE_WEEKENDS"`
	ExcludedDates       []string  `yaml:"excluded_dates" json:"excluded_dates" env:"IDLECHECK_EXCLUDED_DATES" env-separator:","`
	NeverActiveSentinel string    `yaml:"never_active_sentinel" json:"never_active_sentinel" env:"IDLECHECK_NEVER_ACTIVE_SENTINEL"`
	Timezone            string    `yaml:"timezone" json:"timezone" env:"IDLECHECK_TIMEZONE"`
	GroupName           string    `yaml:"group_name" json:"group_name" env:"IDLECHECK_GROUP_NAME"`
	ProtectedRoles      []string  `yaml:"protected_roles" json:"protected_roles" env:"IDLECHECK_PROTECTED_ROLES" env-separator:","`
	CursorAPI           CursorAPI `yaml:"cursor_api" json:"cursor_api"`
	Audit               Audit     `yaml:"audit" json:"audit"`
	Export              Export    `yaml:"export" json:"export"`
}

// CursorAPI holds Admin API settings.
type CursorAPI struct {
	APIKey  string `yaml:"api_key" json:"api_key" env:"CURSOR_API_KEY"`
	BaseURL string `yaml:"base_url" json:"base_url" env:"CURSOR_API_BASE_URL"`
	Timeout string `yaml:"timeout" json:"timeout" env:"CURSOR_API_TIMEOUT"`
}

// Audit holds the locations of the audit trail.
type Audit struct {
	Database    string `yaml:"database" json:"database" env:"IDLECHECK_AUDIT_DATABASE"`
	LogFile     string `yaml:"log_file" json:"log_file" env:"IDLECHECK_AUDIT_LOG_FILE"`
	ActionsFile string `yaml:"actions_file" json:"actions_file" env:"IDLECHECK_AUDIT_ACTIONS_FILE"`
}

// Export holds the optional sinks for run results.
type Export struct {
	S3    S3    `yaml:"s3" json:"s3"`
	Kafka Kafka `yaml:"kafka" json:"kafka"`
}

// S3 holds S3/MinIO archive configuration.
type S3 struct {
	Enabled         bool   `yaml:"enabled" json:"enabled" env:"IDLECHECK_S3_ENABLED"`
	Endpoint        string `yaml:"endpoint" json:"endpoint" env:"S3_ENDPOINT"`
	Region          string `yaml:"region" json:"region" env:"S3_REGION"`
	Bucket          string `yaml:"bucket" json:"bucket" env:"S3_BUCKET"`
	Prefix          string `yaml:"prefix" json:"prefix" env:"S3_PREFIX"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id" env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key" env:"S3_SECRET_ACCESS_KEY"`
}

// Kafka holds the flag topic configuration.
type Kafka struct {
	Enabled bool     `yaml:"enabled" json:"enabled" env:"IDLECHECK_KAFKA_ENABLED"`
	Brokers []string `yaml:"brokers" json:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" json:"topic" env:"KAFKA_TOPIC"`
}

// Default returns the configuration used when no file overrides a key.
func Default() Config {
	return Config{
		InactiveThreshold:   14,
		AnalysisDays:        35,
		ExcludeWeekends:     true,
		ExcludedDates:       []string{},
		NeverActiveSentinel: activity.UnixEpoch.String(),
		Timezone:            "UTC",
		GroupName:           "Cursor Team",
		ProtectedRoles:      []string{"owner", "free-owner"},
		CursorAPI: CursorAPI{
			BaseURL: "https://api.cursor.com",
			Timeout: "30s",
		},
		Audit: Audit{
			Database:    "idlecheck.db",
			LogFile:     "user_management_audit.log",
			ActionsFile: "user_actions.log",
		},
		Export: Export{
			S3: S3{
				Region: "us-east-1",
				Prefix: "idlecheck",
			},
			Kafka: Kafka{
				Topic: "idlecheck.flags",
			},
		},
	}
}

// Load reads the file at path over Default, applies environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return decodeCUE(path, data, cfg)
	case ".yaml", ".yml", "":
		return decodeYAML(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// decodeYAML rejects unknown keys so that a misspelled setting is an error
// rather than a silent default.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func decodeCUE(path string, data []byte, cfg *Config) error {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := v.Decode(cfg); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// Validate checks every key that has a constrained value.
func (c Config) Validate() error {
	if c.InactiveThreshold < 0 {
		return invalid("inactive_threshold", fmt.Sprintf("must not be negative, got %d", c.InactiveThreshold))
	}
	if c.AnalysisDays < 1 {
		return invalid("analysis_days", fmt.Sprintf("must be at least 1, got %d", c.AnalysisDays))
	}
	if _, err := c.Holidays(); err != nil {
		return err
	}
	if _, err := c.Sentinel(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.APITimeout(); err != nil {
		return err
	}
	if c.Export.S3.Enabled && c.Export.S3.Bucket == "" {
		return invalid("export.s3.bucket", "required when the S3 export is enabled")
	}
	if c.Export.Kafka.Enabled {
		if len(c.Export.Kafka.Brokers) == 0 {
			return invalid("export.kafka.brokers", "required when the Kafka export is enabled")
		}
		if c.Export.Kafka.Topic == "" {
			return invalid("export.kafka.topic", "required when the Kafka export is enabled")
		}
	}
	return nil
}

// Holidays parses excluded_dates.
func (c Config) Holidays() ([]activity.Date, error) {
	dates := make([]activity.Date, 0, len(c.ExcludedDates))
	for _, s := range c.ExcludedDates {
		if strings.TrimSpace(s) == "" {
			continue
		}
		d, err := activity.ParseDate(s)
		if err != nil {
			return nil, &activity.InputValidationError{
				Code:    activity.CodeInvalidDate,
				Field:   "excluded_dates",
				Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", s),
			}
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// Policy builds the exclusion policy. Validate must have succeeded.
func (c Config) Policy() activity.ExclusionPolicy {
	holidays, _ := c.Holidays()
	return activity.NewExclusionPolicy(c.ExcludeWeekends, holidays...)
}

// Sentinel parses never_active_sentinel.
func (c Config) Sentinel() (activity.Date, error) {
	d, err := activity.ParseDate(c.NeverActiveSentinel)
	if err != nil {
		return activity.Date{}, &activity.InputValidationError{
			Code:    activity.CodeInvalidDate,
			Field:   "never_active_sentinel",
			Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", c.NeverActiveSentinel),
		}
	}
	return d, nil
}

// Location loads the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, invalid("timezone", err.Error())
	}
	return loc, nil
}

// APITimeout parses cursor_api.timeout. An empty value means no timeout.
func (c Config) APITimeout() (time.Duration, error) {
	if c.CursorAPI.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.CursorAPI.Timeout)
	if err != nil || d < 0 {
		return 0, invalid("cursor_api.timeout", fmt.Sprintf("%q is not a duration", c.CursorAPI.Timeout))
	}
	return d, nil
}

func invalid(field, msg string) error {
	return activity.NewValidationError(activity.CodeInvalidArgument, field, msg)
}
