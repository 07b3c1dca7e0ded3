// Package reminder is the scheduling and dispatch core.
//
// Every tick of the worker runs the same pipeline:
//
//	Selector  — which habits are due within the lookahead window?
//	Dispatcher — claim the per-day notified marker, format, send
//
// Trigger times are stored as wall-clock values in the reference timezone
// (UTC) with no date. This file resolves them to absolute instants; all due
// decisions are then plain instant comparisons, which makes a window that
// crosses midnight behave exactly like any other window.
package reminder

import (
	"time"

	"github.com/sakif/habit-tracker/internal/model"
)

// NextOccurrence resolves a trigger time against now: today at that time (in
// UTC) if that instant is not yet past, otherwise tomorrow at that time.
//
// Pure function. An occurrence exactly equal to now counts as today — a habit
// whose trigger time matches the tick instant is due in this tick, not
// tomorrow.
func NextOccurrence(t model.TimeOfDay, now time.Time) time.Time {
	now = now.UTC()

	occurrence := time.Date(now.Year(), now.Month(), now.Day(),
		t.Hour, t.Minute, t.Second, 0, time.UTC)

	if occurrence.Before(now) {
		occurrence = occurrence.AddDate(0, 0, 1)
	}
	return occurrence
}

// daysBetween returns the whole calendar days from one DateLayout date to
// another. Used by the frequency gate; malformed stored dates count as "never
// reminded" rather than wedging the selector.
func daysBetween(from, to string) (int, bool) {
	a, err := time.Parse(model.DateLayout, from)
	if err != nil {
		return 0, false
	}
	b, err := time.Parse(model.DateLayout, to)
	if err != nil {
		return 0, false
	}
	return int(b.Sub(a).Hours() / 24), true
}
