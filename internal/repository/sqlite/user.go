package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateWithProfile inserts the user and their notification profile in one
// transaction. Either both rows exist afterwards or neither does — a user
// without a profile is an invalid state the reminder core never has to
// consider.
func (db *DB) CreateWithProfile(ctx context.Context, user *model.User, profile *model.NotificationProfile) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	profile.UserID = user.ID
	profile.CreatedAt = now
	profile.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notification_profiles
		     (user_id, telegram_chat_id, telegram_username, notifications_enabled,
		      daily_notification_time, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		profile.UserID,
		nullableChatID(profile.TelegramChatID),
		profile.TelegramUsername,
		profile.NotificationsEnabled,
		profile.DailyNotificationTime.String(),
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting notification profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing registration: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email — the login lookup.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, created_at, updated_at
		 FROM users `+where, arg,
	).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", arg)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", arg, err)
	}

	return &u, nil
}

// GetProfile retrieves a user's notification profile.
func (db *DB) GetProfile(ctx context.Context, userID string) (*model.NotificationProfile, error) {
	var (
		p         model.NotificationProfile
		chatID    sql.NullInt64
		dailyTime string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, telegram_chat_id, telegram_username, notifications_enabled,
		        daily_notification_time, created_at, updated_at
		 FROM notification_profiles WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &chatID, &p.TelegramUsername, &p.NotificationsEnabled,
		&dailyTime, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile for user %s: %w", userID, err)
	}

	p.TelegramChatID = chatID.Int64
	if p.DailyNotificationTime, err = model.ParseTimeOfDay(dailyTime); err != nil {
		return nil, fmt.Errorf("sqlite: profile %s has corrupt daily_notification_time %q: %w", userID, dailyTime, err)
	}

	return &p, nil
}

// UpdateProfile writes the mutable profile fields. The chat id's UNIQUE
// constraint rejects linking one Telegram chat to two accounts.
func (db *DB) UpdateProfile(ctx context.Context, profile *model.NotificationProfile) error {
	profile.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE notification_profiles
		 SET telegram_chat_id = ?, telegram_username = ?, notifications_enabled = ?,
		     daily_notification_time = ?, updated_at = ?
		 WHERE user_id = ?`,
		nullableChatID(profile.TelegramChatID),
		profile.TelegramUsername,
		profile.NotificationsEnabled,
		profile.DailyNotificationTime.String(),
		profile.UpdatedAt,
		profile.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("telegram chat", fmt.Sprintf("%d", profile.TelegramChatID))
		}
		return fmt.Errorf("sqlite: updating profile for user %s: %w", profile.UserID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("profile", profile.UserID)
	}

	return nil
}

// nullableChatID maps 0 to NULL: the UNIQUE constraint must not fire for the
// many users who simply have no linked chat.
func nullableChatID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// isUniqueViolation detects SQLite's constraint errors without depending on
// driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
