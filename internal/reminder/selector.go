package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository"
)

// DueHabit is a habit the current tick should remind, with its resolved
// occurrence instant and delivery target.
type DueHabit struct {
	Habit    model.Habit
	ChatID   int64
	OccursAt time.Time
}

// Selector computes the set of habits due within the lookahead window.
// It is a pure query — it never mutates state.
type Selector struct {
	habits repository.HabitRepository
	logger *slog.Logger
}

// NewSelector creates a Selector.
func NewSelector(habits repository.HabitRepository, logger *slog.Logger) *Selector {
	return &Selector{habits: habits, logger: logger}
}

// SelectDue returns every habit whose next occurrence falls inside
// [now, now+lookahead).
//
// The store pre-filters by flags only (not pleasant, notifications enabled,
// chat linked); the window test happens here on absolute instants resolved by
// NextOccurrence. Comparing instants instead of raw times of day is what
// keeps a window like 23:59+2m working: the 00:00:30 habit resolves to
// tomorrow's instant, which lands inside the window like any other.
//
// A habit with frequency N days is skipped until N days have passed since its
// last logged reminder. Result order is unspecified.
func (s *Selector) SelectDue(ctx context.Context, now time.Time, lookahead time.Duration) ([]DueHabit, error) {
	if lookahead < 0 {
		return nil, fmt.Errorf("reminder: lookahead must not be negative, got %s", lookahead)
	}
	now = now.UTC()
	windowEnd := now.Add(lookahead)

	targets, err := s.habits.ListReminderTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("reminder: loading reminder targets: %w", err)
	}

	var due []DueHabit
	for _, target := range targets {
		occurrence := NextOccurrence(target.Habit.TriggerTime, now)

		// Half-open window: an occurrence exactly at now is due, one
		// exactly at now+lookahead belongs to a later tick.
		if occurrence.Before(now) || !occurrence.Before(windowEnd) {
			continue
		}

		if !s.frequencyElapsed(target, occurrence) {
			continue
		}

		due = append(due, DueHabit{
			Habit:    target.Habit,
			ChatID:   target.ChatID,
			OccursAt: occurrence,
		})
	}

	s.logger.Debug("due-window selection",
		slog.Time("now", now),
		slog.Duration("lookahead", lookahead),
		slog.Int("candidates", len(targets)),
		slog.Int("due", len(due)),
	)
	return due, nil
}

// frequencyElapsed applies the recurrence gate: a habit reminded on day D and
// carrying frequency N is next due on day D+N.
func (s *Selector) frequencyElapsed(target model.ReminderTarget, occurrence time.Time) bool {
	if target.LastRemindedDate == "" {
		return true
	}

	days, ok := daysBetween(target.LastRemindedDate, model.DateOf(occurrence))
	if !ok {
		s.logger.Warn("unparseable last-reminded date, treating habit as due",
			slog.String("habitID", target.Habit.ID),
			slog.String("date", target.LastRemindedDate),
		)
		return true
	}
	return days >= target.Habit.Frequency
}
