package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/steven-giang-van/scripts-central/internal/activity"
	"github.com/steven-giang-van/scripts-central/internal/httpx/upstream/cursor"
	"github.com/steven-giang-van/scripts-central/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Users flagged, or input rejected by validation
	ExitCommandError = 2 // Command error (bad config, missing files, API or database failure)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeConfig     = "E002" // Config could not be loaded or is invalid
	ErrCodeValidation = "E003" // Input records rejected
	ErrCodeUpstream   = "E004" // Cursor Admin API failure
	ErrCodeNotFound   = "E005" // Path or run not found
	ErrCodeStore      = "E006" // Audit database failure
	ErrCodeExport     = "E007" // S3 or Kafka export failure
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// errorCode picks the error code for err, falling back to fallback.
func errorCode(err error, fallback string) string {
	var apiErr *cursor.APIError
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, store.ErrRunNotFound):
		return ErrCodeNotFound
	case activity.IsValidationError(err):
		return ErrCodeValidation
	case errors.As(err, &apiErr):
		return ErrCodeUpstream
	}
	return fallback
}

// errorDetails exposes the position of a validation error.
func errorDetails(err error) interface{} {
	var ve *activity.InputValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	details := map[string]interface{}{"validation_code": string(ve.Code)}
	if ve.Field != "" {
		details["field"] = ve.Field
	}
	if ve.UserID != "" {
		details["user"] = ve.UserID
	}
	if ve.Line > 0 {
		details["line"] = ve.Line
	}
	return details
}

// fail reports err through f and returns the matching ExitError.
// Validation errors exit with ExitFailure, everything else with ExitCommandError.
func fail(f *OutputFormatter, fallback, message string, err error) error {
	code := errorCode(err, fallback)
	exit := ExitCommandError
	if code == ErrCodeValidation {
		exit = ExitFailure
	}
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), errorDetails(err))
	return WrapExitError(exit, message, err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string      `json:"status"`            // "ok" or "error"
	Data    interface{} `json:"data,omitempty"`    // success payload
	Error   *CLIError   `json:"error,omitempty"`   // error details
	TraceID string      `json:"trace_id,omitempty"` // optional trace correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E002", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
