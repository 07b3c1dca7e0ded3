// Package repository defines the storage interfaces consumed by the service
// and reminder layers. The sqlite subpackage provides the implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/sakif/habit-tracker/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type HabitRepository interface {
	Create(ctx context.Context, habit *model.Habit) error
	GetByID(ctx context.Context, id string) (*model.Habit, error)
	ListByOwner(ctx context.Context, userID string, opts ListOptions) ([]model.Habit, error)
	ListPublic(ctx context.Context, opts ListOptions) ([]model.Habit, error)
	Update(ctx context.Context, habit *model.Habit) error
	Delete(ctx context.Context, id string) error

	// ListReminderTargets returns, in one round trip, every habit eligible
	// for reminders: not pleasant, owner has notifications enabled and a
	// linked chat, joined with the chat id and the habit's last reminded
	// date. Time-window filtering happens in the reminder core, not here.
	ListReminderTargets(ctx context.Context) ([]model.ReminderTarget, error)
}

type CompletionRepository interface {
	// MarkComplete upserts the (habit, date) record to completed state.
	// Absent → created completed with completedAt=now. Present and already
	// completed → untouched (completedAt keeps its original value). Present
	// and not completed → flipped, completedAt=now.
	MarkComplete(ctx context.Context, habitID, date string, now time.Time) (*model.HabitCompletion, error)

	// Unmark upserts the (habit, date) record to not-completed state,
	// clearing completedAt.
	Unmark(ctx context.Context, habitID, date string) (*model.HabitCompletion, error)

	Get(ctx context.Context, habitID, date string) (*model.HabitCompletion, error)
	ListByHabit(ctx context.Context, habitID string, opts ListOptions) ([]model.HabitCompletion, error)
}

// ReminderLogRepository is the notified-marker store that makes dispatch
// effectively-once per (habit, occurrence date).
type ReminderLogRepository interface {
	// Claim atomically records that a reminder for (habit, date) is being
	// sent. Returns false if another tick already claimed it.
	Claim(ctx context.Context, habitID, date string, now time.Time) (bool, error)

	// Release drops the claim after a failed send so the next tick retries.
	Release(ctx context.Context, habitID, date string) error
}

type UserRepository interface {
	// CreateWithProfile inserts the user and their notification profile in a
	// single transaction: every identity gets exactly one profile, atomically.
	CreateWithProfile(ctx context.Context, user *model.User, profile *model.NotificationProfile) error

	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetProfile(ctx context.Context, userID string) (*model.NotificationProfile, error)
	UpdateProfile(ctx context.Context, profile *model.NotificationProfile) error
}
