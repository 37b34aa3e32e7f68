package activity

import (
	"errors"
	"fmt"
)

// ValidationCode categorizes input validation failures.
type ValidationCode string

const (
	// CodeMissingField indicates a required field (user, date, is_active) was absent.
	CodeMissingField ValidationCode = "MISSING_FIELD"

	// CodeInvalidDate indicates a date that could not be parsed.
	CodeInvalidDate ValidationCode = "INVALID_DATE"

	// CodeInvalidBool indicates an is_active value that is not a boolean.
	CodeInvalidBool ValidationCode = "INVALID_BOOL"

	// CodeDuplicateRecord indicates two records for the same user and date.
	CodeDuplicateRecord ValidationCode = "DUPLICATE_RECORD"

	// CodeMixedUsers indicates a per-user sequence containing several users.
	CodeMixedUsers ValidationCode = "MIXED_USERS"

	// CodeSentinelCollision indicates the never-active sentinel cannot be
	// told apart from a real observation.
	CodeSentinelCollision ValidationCode = "SENTINEL_COLLISION"

	// CodeInvalidArgument indicates a bad parameter (target, threshold, window).
	CodeInvalidArgument ValidationCode = "INVALID_ARGUMENT"
)

// InputValidationError reports input the pipeline refuses to interpret.
//
// Line is the 1-based source line when the record came from a file, 0 otherwise.
type InputValidationError struct {
	Code    ValidationCode
	Field   string
	UserID  string
	Line    int
	Message string
}

// Error implements the error interface.
func (e *InputValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	switch {
	case e.UserID != "" && e.Line > 0:
		return fmt.Sprintf("%s (user=%s, line=%d)", msg, e.UserID, e.Line)
	case e.UserID != "":
		return fmt.Sprintf("%s (user=%s)", msg, e.UserID)
	case e.Line > 0:
		return fmt.Sprintf("%s (line=%d)", msg, e.Line)
	}
	return msg
}

// IsValidationError reports whether err wraps an *InputValidationError.
func IsValidationError(err error) bool {
	var ve *InputValidationError
	return errors.As(err, &ve)
}

// NewValidationError creates an InputValidationError without position info.
func NewValidationError(code ValidationCode, field, message string) *InputValidationError {
	return &InputValidationError{Code: code, Field: field, Message: message}
}
