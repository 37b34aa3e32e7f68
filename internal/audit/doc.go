// Package audit keeps the record of what a manager run saw and did.
//
// Every run writes to three places: the structured log (stderr and the
// audit log file), the actions log (one pipe-separated line per action, for
// people reading it with grep) and, when configured, the SQLite store.
package audit
