// Package clinichours enforces booking hours at the presentation boundary.
// The appointment store deliberately knows nothing about clinic hours: they
// are policy, not a data invariant, and every create/move/resize is gated
// here before a store call is made.
package clinichours

import (
	"errors"
	"time"
)

// ErrOutsideHours rejects an interval that falls outside clinic hours.
var ErrOutsideHours = errors.New("the selected time is outside clinic hours")

// Gate holds the clinic day as minutes since midnight, applied to all seven
// weekdays. The default is 07:00-22:00.
type Gate struct {
	OpenMinute  int
	CloseMinute int
}

func Default() Gate {
	return Gate{OpenMinute: 7 * 60, CloseMinute: 22 * 60}
}

// Check accepts an interval only when both the start instant and the instant
// one tick before the end fall within [open, close) of the clinic day, in the
// local time of the instants. An appointment ending exactly at closing time
// passes.
func (g Gate) Check(start, end time.Time) error {
	if !end.After(start) {
		return ErrOutsideHours
	}
	if !g.contains(start) || !g.contains(end.Add(-time.Nanosecond)) {
		return ErrOutsideHours
	}
	return nil
}

func (g Gate) contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= g.OpenMinute && m < g.CloseMinute
}
