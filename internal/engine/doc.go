// Package engine implements the consecutive-inactivity counting algorithm.
//
// The engine is pure: no I/O, no logging, no wall clock. Given the same
// records, policy and threshold it returns identical results.
//
// ARCHITECTURE:
//
// Per-user streak scan:
// Each user's records are sorted by date and folded through a two-state
// machine (no-streak, in-streak). Every record is classified into one event:
//
//	excluded-active    reset the streak, remember the date as last active
//	excluded-inactive  ignored entirely
//	counted-active     reset the streak, remember the date as last active
//	counted-inactive   open a streak if none is running, extend it
//
// Activity on an excluded day still resets the streak even though the day
// never counts toward it. Inactivity on an excluded day is transparent.
//
// Business-day window:
// ComputeBusinessDayStart walks backward over the same exclusion predicate so
// the window fetched from a source matches the days the scan will count.
//
// Never-active users:
// Sources mark users without any history with a sentinel date (the Unix
// epoch by default, see WithSentinel). Sentinel records carry no information
// for the streak; they only mark the user as never active, which moves the
// reported streak start to the analysis window start.
//
// Users are independent. Analyze processes them sequentially in user-id
// order so output order is deterministic.
package engine
