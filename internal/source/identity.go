package source

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// CanonicalUserID returns the form of a user id (an email address in
// practice) used for grouping and membership checks: trimmed, NFC
// normalized and case folded.
func CanonicalUserID(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return cases.Fold().String(s)
}

// UserSet is a set of canonical user ids.
type UserSet map[string]struct{}

// NewUserSet builds a set from raw ids, canonicalizing each one.
func NewUserSet(ids ...string) UserSet {
	set := make(UserSet, len(ids))
	for _, id := range ids {
		if c := CanonicalUserID(id); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

// Contains reports whether id (raw or canonical) is in the set.
func (s UserSet) Contains(id string) bool {
	_, ok := s[CanonicalUserID(id)]
	return ok
}
