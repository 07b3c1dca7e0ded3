// Package model defines the data structures used throughout the application.
package model

import "time"

// DateLayout is the canonical form of a calendar day, e.g. "2026-08-27".
// Completion records and reminder-log markers are keyed by dates in this form.
const DateLayout = "2006-01-02"

// DateOf returns t's calendar day in the reference timezone (UTC).
func DateOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Owned is the capability interface for ownership checks.
//
// Anything a user can own implements it, and a single guard in the service
// layer decides whether an actor may touch the resource. Completion records
// are owned through their habit, so only Habit implements this directly.
type Owned interface {
	OwnerID() string
}

// Habit is a recurring action a user wants to build, e.g.
// "07:00 at the park: run for 120 seconds, reward: coffee".
//
// Two kinds exist:
//   - useful habits (IsPleasant=false) — these get reminders, and carry either
//     a Reward or a RelatedHabitID pointing at a pleasant habit, never both;
//   - pleasant habits (IsPleasant=true) — rewards in themselves, never
//     reminded, and forbidden from having a reward or related habit.
type Habit struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Place           string    `json:"place"`
	TriggerTime     TimeOfDay `json:"triggerTime"` // wall-clock, reference timezone (UTC)
	Action          string    `json:"action"`
	IsPleasant      bool      `json:"isPleasant"`
	RelatedHabitID  string    `json:"relatedHabitId,omitempty"` // empty = none
	Frequency       int       `json:"frequency"`                // reminder period in days, 1-7
	Reward          string    `json:"reward,omitempty"`         // empty = none
	DurationSeconds int       `json:"durationSeconds"`          // 1-120
	IsPublic        bool      `json:"isPublic"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// OwnerID implements Owned.
func (h *Habit) OwnerID() string { return h.UserID }

// HabitCompletion is the per-day acknowledgement that a habit was performed.
// At most one record exists per (habit, calendar day); the store enforces this
// with a unique constraint and conditional upserts.
type HabitCompletion struct {
	ID             string     `json:"id"`
	HabitID        string     `json:"habitId"`
	CompletionDate string     `json:"completionDate"` // DateLayout form
	IsCompleted    bool       `json:"isCompleted"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"` // set exactly while completed
	CreatedAt      time.Time  `json:"createdAt"`
}

// ReminderTarget is a habit joined with the delivery data the reminder core
// needs: where to send, and when this habit was last reminded (empty string if
// never). Produced in one round trip by the habit store.
type ReminderTarget struct {
	Habit            Habit
	ChatID           int64
	LastRemindedDate string // DateLayout form, "" if no reminder was ever logged
}
