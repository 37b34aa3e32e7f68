package activity

import "sort"

// ExclusionPolicy decides which dates are skipped by streak counting.
//
// A date is excluded when it is listed explicitly (holidays) or when
// weekends are excluded and the date falls on a Saturday or Sunday. The zero
// value excludes nothing.
type ExclusionPolicy struct {
	ExcludeWeekends bool
	excluded        map[Date]struct{}
}

// NewExclusionPolicy builds a policy from the weekend switch and a list of
// holidays. Zero dates are ignored.
func NewExclusionPolicy(excludeWeekends bool, holidays ...Date) ExclusionPolicy {
	p := ExclusionPolicy{ExcludeWeekends: excludeWeekends}
	for _, d := range holidays {
		if d.IsZero() {
			continue
		}
		if p.excluded == nil {
			p.excluded = make(map[Date]struct{}, len(holidays))
		}
		p.excluded[d] = struct{}{}
	}
	return p
}

// IsExcluded reports whether d is skipped by streak counting.
//
// The engine and the business-day back-counter both go through this method;
// the window fetched from a source and the streak counted over it must agree.
func (p ExclusionPolicy) IsExcluded(d Date) bool {
	if _, ok := p.excluded[d]; ok {
		return true
	}
	return p.ExcludeWeekends && d.IsWeekend()
}

// ExcludedDates returns the explicit holidays in ascending order.
func (p ExclusionPolicy) ExcludedDates() []Date {
	dates := make([]Date, 0, len(p.excluded))
	for d := range p.excluded {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
