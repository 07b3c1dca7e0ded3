// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite — no CGo, no C
// compiler, works everywhere Go works. Tests open ":memory:" databases.
//
// Trigger times are stored as "HH:MM:SS" TEXT in UTC, completion and reminder
// dates as "YYYY-MM-DD" TEXT. Both forms sort lexicographically in time order,
// which is what the range filters and MAX() aggregates below rely on.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath (":memory:" for tests) and runs
// migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path surfaces here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while the reminder worker or an API write
	// holds the write lock.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. The completion and reminder
	// tables rely on ON DELETE CASCADE from habits.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates all tables. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// telegram_chat_id is UNIQUE: one chat maps to at most one account.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS notification_profiles (
			user_id                 TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			telegram_chat_id        INTEGER UNIQUE,
			telegram_username       TEXT NOT NULL DEFAULT '',
			notifications_enabled   INTEGER NOT NULL DEFAULT 1,
			daily_notification_time TEXT NOT NULL DEFAULT '09:00:00',
			created_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating notification_profiles table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS habits (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			place            TEXT NOT NULL,
			trigger_time     TEXT NOT NULL,
			action           TEXT NOT NULL,
			is_pleasant      INTEGER NOT NULL DEFAULT 0,
			related_habit_id TEXT REFERENCES habits(id) ON DELETE SET NULL,
			frequency        INTEGER NOT NULL DEFAULT 1,
			reward           TEXT NOT NULL DEFAULT '',
			duration_seconds INTEGER NOT NULL DEFAULT 60,
			is_public        INTEGER NOT NULL DEFAULT 0,
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_habits_user_id ON habits(user_id);
		CREATE INDEX IF NOT EXISTS idx_habits_trigger_time ON habits(trigger_time, is_pleasant);
		CREATE INDEX IF NOT EXISTS idx_habits_is_public ON habits(is_public);
	`)
	if err != nil {
		return fmt.Errorf("creating habits table: %w", err)
	}

	// UNIQUE(habit_id, completion_date) is the at-most-one-record-per-day
	// invariant; MarkComplete/Unmark upsert against it.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS habit_completions (
			id              TEXT PRIMARY KEY,
			habit_id        TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
			completion_date TEXT NOT NULL,
			is_completed    INTEGER NOT NULL DEFAULT 0,
			completed_at    DATETIME,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(habit_id, completion_date)
		);
		CREATE INDEX IF NOT EXISTS idx_completions_habit ON habit_completions(habit_id, completion_date);
	`)
	if err != nil {
		return fmt.Errorf("creating habit_completions table: %w", err)
	}

	// The notified marker. A row here means a reminder for that occurrence
	// was sent (or is being sent right now); the UNIQUE pair is what makes
	// Claim atomic across overlapping ticks.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS reminder_log (
			habit_id      TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
			reminder_date TEXT NOT NULL,
			sent_at       DATETIME NOT NULL,
			UNIQUE(habit_id, reminder_date)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating reminder_log table: %w", err)
	}

	return nil
}
