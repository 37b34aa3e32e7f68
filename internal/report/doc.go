// Package report renders analysis results for people (text) and for other
// programs (JSON views with string dates).
package report
