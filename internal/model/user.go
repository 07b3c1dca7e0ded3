// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account. Identity is email + password; the internal
// string ID (xid) is what JWTs and foreign keys reference, so the primary key
// never leaks credential material.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"` // unique, login identifier
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // bcrypt hash, never serialized
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NotificationProfile holds a user's reminder delivery settings.
//
// Every user gets exactly one profile, created in the same transaction as the
// user row at registration — there is no lazy or event-driven creation path.
//
// TelegramChatID of zero means "no linked channel". A zero value is used
// instead of a pointer for the same reason User.Email is a plain string:
// simpler to work with, and Telegram chat IDs are never zero in practice.
type NotificationProfile struct {
	UserID                string    `json:"userId"`
	TelegramChatID        int64     `json:"telegramChatId,omitempty"` // 0 = not linked
	TelegramUsername      string    `json:"telegramUsername,omitempty"`
	NotificationsEnabled  bool      `json:"notificationsEnabled"`
	DailyNotificationTime TimeOfDay `json:"dailyNotificationTime"` // default 09:00 UTC
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// HasTelegram reports whether a chat channel is linked. Dispatch only targets
// profiles where this is true and NotificationsEnabled is set.
func (p *NotificationProfile) HasTelegram() bool {
	return p.TelegramChatID != 0
}
