package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository"
)

// compile-time check that *DB implements repository.HabitRepository
var _ repository.HabitRepository = (*DB)(nil)

const habitColumns = `id, user_id, place, trigger_time, action, is_pleasant,
	related_habit_id, frequency, reward, duration_seconds, is_public,
	created_at, updated_at`

// Create inserts a new habit. The ID and timestamps are generated here and
// written back onto the passed struct.
func (db *DB) Create(ctx context.Context, habit *model.Habit) error {
	habit.ID = xid.New().String()

	now := time.Now()
	habit.CreatedAt = now
	habit.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO habits (`+habitColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID,
		habit.UserID,
		habit.Place,
		habit.TriggerTime.String(),
		habit.Action,
		habit.IsPleasant,
		nullableString(habit.RelatedHabitID),
		habit.Frequency,
		habit.Reward,
		habit.DurationSeconds,
		habit.IsPublic,
		habit.CreatedAt,
		habit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating habit: %w", err)
	}

	return nil
}

// GetByID retrieves a single habit by its ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Habit, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)

	habit, err := scanHabit(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("habit", id)
		}
		return nil, fmt.Errorf("sqlite: getting habit %s: %w", id, err)
	}

	return habit, nil
}

// ListByOwner retrieves the given user's habits, newest first.
func (db *DB) ListByOwner(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Habit, error) {
	return db.listHabits(ctx,
		`SELECT `+habitColumns+` FROM habits
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, clampLimit(opts.Limit), clampOffset(opts.Offset))
}

// ListPublic retrieves habits shared publicly, newest first. No owner filter —
// this backs the unauthenticated public listing.
func (db *DB) ListPublic(ctx context.Context, opts repository.ListOptions) ([]model.Habit, error) {
	return db.listHabits(ctx,
		`SELECT `+habitColumns+` FROM habits
		 WHERE is_public = 1
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		clampLimit(opts.Limit), clampOffset(opts.Offset))
}

// Update modifies an existing habit. RowsAffected detects "not found" without
// a separate SELECT.
func (db *DB) Update(ctx context.Context, habit *model.Habit) error {
	habit.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE habits
		 SET place = ?, trigger_time = ?, action = ?, is_pleasant = ?,
		     related_habit_id = ?, frequency = ?, reward = ?,
		     duration_seconds = ?, is_public = ?, updated_at = ?
		 WHERE id = ?`,
		habit.Place,
		habit.TriggerTime.String(),
		habit.Action,
		habit.IsPleasant,
		nullableString(habit.RelatedHabitID),
		habit.Frequency,
		habit.Reward,
		habit.DurationSeconds,
		habit.IsPublic,
		habit.UpdatedAt,
		habit.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating habit %s: %w", habit.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("habit", habit.ID)
	}

	return nil
}

// Delete removes a habit. Completion records and reminder-log rows go with it
// via ON DELETE CASCADE.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting habit %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("habit", id)
	}

	return nil
}

// ListReminderTargets returns every habit eligible for reminders, joined with
// the owner's chat id and the habit's most recent reminder-log date.
//
// Eligibility here is flags only (not pleasant, notifications enabled, chat
// linked). The due-window comparison happens in the reminder core against
// absolute instants, so a lookahead window crossing midnight still works —
// a naive trigger_time BETWEEN filter would silently match nothing there.
func (db *DB) ListReminderTargets(ctx context.Context) ([]model.ReminderTarget, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT h.id, h.user_id, h.place, h.trigger_time, h.action, h.is_pleasant,
		        h.related_habit_id, h.frequency, h.reward, h.duration_seconds,
		        h.is_public, h.created_at, h.updated_at,
		        p.telegram_chat_id,
		        COALESCE((SELECT MAX(reminder_date) FROM reminder_log r WHERE r.habit_id = h.id), '')
		 FROM habits h
		 JOIN notification_profiles p ON p.user_id = h.user_id
		 WHERE h.is_pleasant = 0
		   AND p.notifications_enabled = 1
		   AND p.telegram_chat_id IS NOT NULL
		 ORDER BY h.trigger_time`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reminder targets: %w", err)
	}
	defer rows.Close()

	var targets []model.ReminderTarget
	for rows.Next() {
		var (
			t           model.ReminderTarget
			triggerTime string
			relatedID   sql.NullString
		)
		if err := rows.Scan(
			&t.Habit.ID, &t.Habit.UserID, &t.Habit.Place, &triggerTime,
			&t.Habit.Action, &t.Habit.IsPleasant, &relatedID,
			&t.Habit.Frequency, &t.Habit.Reward, &t.Habit.DurationSeconds,
			&t.Habit.IsPublic, &t.Habit.CreatedAt, &t.Habit.UpdatedAt,
			&t.ChatID, &t.LastRemindedDate,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning reminder target: %w", err)
		}
		t.Habit.RelatedHabitID = relatedID.String
		if t.Habit.TriggerTime, err = model.ParseTimeOfDay(triggerTime); err != nil {
			return nil, fmt.Errorf("sqlite: habit %s has corrupt trigger_time %q: %w", t.Habit.ID, triggerTime, err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reminder targets: %w", err)
	}

	return targets, nil
}

// ---------------------------------------------------------------------------
// helpers

// scanTarget abstracts over *sql.Row and *sql.Rows.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanHabit(row scanTarget) (*model.Habit, error) {
	var (
		h           model.Habit
		triggerTime string
		relatedID   sql.NullString
	)
	err := row.Scan(
		&h.ID, &h.UserID, &h.Place, &triggerTime, &h.Action, &h.IsPleasant,
		&relatedID, &h.Frequency, &h.Reward, &h.DurationSeconds, &h.IsPublic,
		&h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	h.RelatedHabitID = relatedID.String
	if h.TriggerTime, err = model.ParseTimeOfDay(triggerTime); err != nil {
		return nil, fmt.Errorf("habit %s has corrupt trigger_time %q: %w", h.ID, triggerTime, err)
	}
	return &h, nil
}

func (db *DB) listHabits(ctx context.Context, query string, args ...any) ([]model.Habit, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning habit row: %w", err)
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating habits: %w", err)
	}

	if habits == nil {
		habits = []model.Habit{}
	}
	return habits, nil
}

// nullableString maps "" to NULL so the related_habit_id foreign key and the
// telegram_chat_id uniqueness constraint behave (NULLs never conflict).
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
