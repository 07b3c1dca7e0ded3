package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sakif/habit-tracker/internal/apperror"
)

// TimeOfDay is a wall-clock time with no date component, e.g. "07:30:00".
//
// Habit trigger times are stored in this form, always interpreted in the
// store's reference timezone (UTC). time.Time is deliberately not used here:
// it always carries a date, and a trigger time has none until the reminder
// core resolves it against "today" (see internal/reminder).
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" (24-hour clock).
// Malformed input is rejected with apperror.ErrInvalidTime.
//
// Parsing is strict: the whole string must match one of the two layouts, so
// trailing garbage like "07:30abc" or out-of-range values like "24:00" are
// errors, not silently truncated times.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		parsed, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute(), Second: parsed.Second()}, nil
	}
	return TimeOfDay{}, apperror.InvalidTime(fmt.Sprintf("invalid time of day %q, expected HH:MM or HH:MM:SS", s))
}

// String formats the time as "HH:MM:SS" — the canonical storage form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// SecondsFromMidnight returns the offset into the day, used for ordering and
// coarse range filtering at the store level.
func (t TimeOfDay) SecondsFromMidnight() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// MarshalJSON encodes the time as its canonical string form.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "HH:MM" or "HH:MM:SS".
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return apperror.InvalidTime("time of day must be a JSON string")
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
