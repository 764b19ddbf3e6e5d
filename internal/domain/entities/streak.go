package entities

import (
	"errors"
	"time"
)

// ErrOutOfOrderEvent is returned when an activity is dated before the
// user's last recorded activity. The caller must not mutate any state.
var ErrOutOfOrderEvent = errors.New("activity date precedes last recorded activity")

// DayOf truncates a timestamp to its calendar date in the given location.
// All streak arithmetic expects dates produced by this function with a
// single location for the whole deployment.
func DayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ComputeStreak returns the streak value after an activity on today's date.
//
// A nil last date means this is the user's first activity and starts a
// streak of 1. Repeated activity on the same day leaves the streak
// unchanged. Activity on the following day extends it by one. A gap of two
// or more days resets the streak to 1 and reports broke = true.
func ComputeStreak(last *time.Time, today time.Time, current int) (streak int, broke bool, err error) {
	if last == nil {
		return 1, false, nil
	}

	switch gap := dayOrdinal(today) - dayOrdinal(*last); {
	case gap < 0:
		return 0, false, ErrOutOfOrderEvent
	case gap == 0:
		return current, false, nil
	case gap == 1:
		return current + 1, false, nil
	default:
		return 1, true, nil
	}
}

// dayOrdinal maps a timestamp to a day number that is stable across DST
// shifts by reading the calendar date in the timestamp's own location.
func dayOrdinal(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
