// Package store provides the SQLite audit trail for idlecheck runs.
//
// Three tables are kept:
//   - runs: one row per invocation of the manager, with its parameters,
//     outcome and a digest of the analysis result
//   - user_reports: the per-user report of each run, flagged or not
//   - actions: the actions routed for flagged users, in routing order
//
// Reads are deterministic: runs are listed newest first by start time then
// id, reports by user id and actions by their per-run sequence number.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
