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

// compile-time checks
var (
	_ repository.CompletionRepository  = (*DB)(nil)
	_ repository.ReminderLogRepository = (*DB)(nil)
)

// MarkComplete upserts the (habit, date) completion record to completed state.
//
// The single INSERT ... ON CONFLICT is what makes concurrent marks from
// simultaneous API calls safe: the unique (habit_id, completion_date) pair
// can only ever produce one row, and the CASE keeps the original completed_at
// when the record was already completed — calling this twice is a no-op the
// second time.
func (db *DB) MarkComplete(ctx context.Context, habitID, date string, now time.Time) (*model.HabitCompletion, error) {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO habit_completions (id, habit_id, completion_date, is_completed, completed_at, created_at)
		 VALUES (?, ?, ?, 1, ?, ?)
		 ON CONFLICT(habit_id, completion_date) DO UPDATE SET
		     is_completed = 1,
		     completed_at = CASE
		         WHEN habit_completions.is_completed = 1 THEN habit_completions.completed_at
		         ELSE excluded.completed_at
		     END`,
		xid.New().String(), habitID, date, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: marking habit %s complete for %s: %w", habitID, date, err)
	}

	return db.Get(ctx, habitID, date)
}

// Unmark upserts the (habit, date) record to not-completed state and clears
// the completion timestamp.
func (db *DB) Unmark(ctx context.Context, habitID, date string) (*model.HabitCompletion, error) {
	now := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO habit_completions (id, habit_id, completion_date, is_completed, completed_at, created_at)
		 VALUES (?, ?, ?, 0, NULL, ?)
		 ON CONFLICT(habit_id, completion_date) DO UPDATE SET
		     is_completed = 0,
		     completed_at = NULL`,
		xid.New().String(), habitID, date, now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: unmarking habit %s for %s: %w", habitID, date, err)
	}

	return db.Get(ctx, habitID, date)
}

// Get reads the completion record for (habit, date).
func (db *DB) Get(ctx context.Context, habitID, date string) (*model.HabitCompletion, error) {
	c, err := scanCompletion(db.conn.QueryRowContext(ctx,
		`SELECT id, habit_id, completion_date, is_completed, completed_at, created_at
		 FROM habit_completions
		 WHERE habit_id = ? AND completion_date = ?`,
		habitID, date,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("completion", habitID+"/"+date)
		}
		return nil, fmt.Errorf("sqlite: getting completion for habit %s on %s: %w", habitID, date, err)
	}
	return c, nil
}

// ListByHabit returns a habit's completion history, newest day first.
func (db *DB) ListByHabit(ctx context.Context, habitID string, opts repository.ListOptions) ([]model.HabitCompletion, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, habit_id, completion_date, is_completed, completed_at, created_at
		 FROM habit_completions
		 WHERE habit_id = ?
		 ORDER BY completion_date DESC
		 LIMIT ? OFFSET ?`,
		habitID, clampLimit(opts.Limit), clampOffset(opts.Offset),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing completions for habit %s: %w", habitID, err)
	}
	defer rows.Close()

	completions := []model.HabitCompletion{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning completion row: %w", err)
		}
		completions = append(completions, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating completions: %w", err)
	}

	return completions, nil
}

func scanCompletion(row scanTarget) (*model.HabitCompletion, error) {
	var (
		c           model.HabitCompletion
		completedAt sql.NullTime
	)
	err := row.Scan(&c.ID, &c.HabitID, &c.CompletionDate, &c.IsCompleted, &completedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		c.CompletedAt = &t
	}
	return &c, nil
}

// ---------------------------------------------------------------------------
// reminder log (notified marker)

// Claim records that a reminder for (habit, date) is being sent. INSERT OR
// IGNORE against the unique pair means exactly one tick wins even if two
// overlap; everyone else gets false and skips the send.
func (db *DB) Claim(ctx context.Context, habitID, date string, now time.Time) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO reminder_log (habit_id, reminder_date, sent_at)
		 VALUES (?, ?, ?)`,
		habitID, date, now,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: claiming reminder for habit %s on %s: %w", habitID, date, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// Release drops a claim after a failed send. The habit stays due for the rest
// of its window, so the next tick re-claims and retries.
func (db *DB) Release(ctx context.Context, habitID, date string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM reminder_log WHERE habit_id = ? AND reminder_date = ?`,
		habitID, date,
	)
	if err != nil {
		return fmt.Errorf("sqlite: releasing reminder claim for habit %s on %s: %w", habitID, date, err)
	}
	return nil
}
