// Package source normalizes activity feeds into []activity.Record.
//
// Two feeds are supported: the CSV export of the Cursor analytics dashboard
// (ReadCSV) and the Cursor Admin API daily usage rows (FromDailyUsage). Both
// canonicalize user ids the same way so records from either feed can be
// matched against team membership.
//
// Normalizers validate; they never guess. A row without an activity value
// or with an unparseable date is an *activity.InputValidationError.
package source
