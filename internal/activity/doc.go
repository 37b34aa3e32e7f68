// Package activity defines the data model shared by every stage of the
// inactivity pipeline.
//
// Records flow in one direction:
//
//	source (CSV, Cursor API) → []Record → engine → UserReport / InactivityFlag → report, actuator
//
// All dates are calendar dates (Date). Nothing in this package knows about
// wall-clock time or time zones; conversion from timestamps happens in the
// normalizers, once, using the configured location.
//
// Validation failures anywhere in the pipeline are reported as
// *InputValidationError so callers can distinguish bad input from
// infrastructure failures with IsValidationError.
package activity
