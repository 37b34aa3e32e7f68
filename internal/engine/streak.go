package engine

import "github.com/steven-giang-van/scripts-central/internal/activity"

type streakState int

const (
	noStreak streakState = iota
	inStreak
)

// streakEvent is the classification of one record against the policy.
type streakEvent int

const (
	eventExcludedActive streakEvent = iota
	eventExcludedInactive
	eventCountedActive
	eventCountedInactive
)

func (e streakEvent) String() string {
	switch e {
	case eventExcludedActive:
		return "excluded-active"
	case eventExcludedInactive:
		return "excluded-inactive"
	case eventCountedActive:
		return "counted-active"
	case eventCountedInactive:
		return "counted-inactive"
	}
	return "unknown"
}

// counted reports whether the event falls on a counted (non-excluded) day.
func (e streakEvent) counted() bool {
	return e == eventCountedActive || e == eventCountedInactive
}

func classify(rec activity.Record, policy activity.ExclusionPolicy) streakEvent {
	excluded := policy.IsExcluded(rec.Date)
	switch {
	case excluded && rec.Active:
		return eventExcludedActive
	case excluded:
		return eventExcludedInactive
	case rec.Active:
		return eventCountedActive
	default:
		return eventCountedInactive
	}
}

// streak is the per-user scan state.
type streak struct {
	state       streakState
	consecutive int
	max         int
	start       activity.Date
	lastActive  activity.Date
}

// step applies one event observed on date and returns the next state.
func (s streak) step(ev streakEvent, date activity.Date) streak {
	switch ev {
	case eventExcludedInactive:
		// Neither advances nor resets.
	case eventExcludedActive, eventCountedActive:
		s.state = noStreak
		s.consecutive = 0
		s.start = activity.Date{}
		s.lastActive = date
	case eventCountedInactive:
		if s.state == noStreak {
			s.state = inStreak
			s.start = date
		}
		s.consecutive++
		if s.consecutive > s.max {
			s.max = s.consecutive
		}
	}
	return s
}

// scanResult is the outcome of folding a user's records.
type scanResult struct {
	streak  streak
	counted int
}

// scan folds date-ordered records through step.
func scan(records []activity.Record, policy activity.ExclusionPolicy) scanResult {
	var res scanResult
	for _, rec := range records {
		ev := classify(rec, policy)
		if ev.counted() {
			res.counted++
		}
		res.streak = res.streak.step(ev, rec.Date)
	}
	return res
}
