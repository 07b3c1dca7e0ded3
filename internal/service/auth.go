// Package service — authentication and profile business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	UserHandler (HTTP) → AuthService (rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) / PasswordService (bcrypt)
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/auth"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository"
)

const (
	MinPasswordLength = 8
	MaxUsernameLength = 100
)

// defaultDailyNotificationTime is 09:00 in the reference timezone, the
// profile default for new registrations.
var defaultDailyNotificationTime = model.TimeOfDay{Hour: 9}

// AuthService handles registration, login, and notification-profile
// management.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account and issues a token.
//
// The user row and its notification profile are written in one transaction
// (CreateWithProfile): every identity has exactly one profile from the moment
// it exists. The profile starts with notifications enabled, no linked chat,
// and the 09:00 default daily time.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	// Both sides of the "@" must be non-empty: "@example.com" or "user@" are
	// not addresses, and the username fallback below needs a mailbox name.
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if username == "" {
		// Fall back to the mailbox name — registration only strictly needs
		// email and password.
		username = email[:at]
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}
	profile := &model.NotificationProfile{
		NotificationsEnabled:  true,
		DailyNotificationTime: defaultDailyNotificationTime,
	}

	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a token.
//
// Both "no such email" and "wrong password" come back as the same Forbidden
// error, so responses don't reveal which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Forbidden("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Warn("failed login attempt", slog.String("email", email))
		return nil, apperror.Forbidden("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID. Used by /api/users/me
// after the middleware has validated the JWT.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}
	return s.users.GetUserByID(ctx, id)
}

// Profile returns the user's notification profile.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.NotificationProfile, error) {
	return s.users.GetProfile(ctx, userID)
}

// ProfileUpdate carries the mutable notification settings. Nil/empty fields
// are left unchanged.
type ProfileUpdate struct {
	NotificationsEnabled  *bool  `json:"notificationsEnabled"`
	DailyNotificationTime string `json:"dailyNotificationTime"`
}

// UpdateProfile applies a partial update to the notification profile.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.NotificationProfile, error) {
	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.NotificationsEnabled != nil {
		profile.NotificationsEnabled = *update.NotificationsEnabled
	}
	if update.DailyNotificationTime != "" {
		t, err := model.ParseTimeOfDay(update.DailyNotificationTime)
		if err != nil {
			return nil, err
		}
		profile.DailyNotificationTime = t
	}

	if err := s.users.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// ConnectTelegram links a chat to the user's profile and enables
// notifications — the bot calls this (through the API) once the user has
// pasted their token into the chat.
func (s *AuthService) ConnectTelegram(ctx context.Context, userID string, chatID int64, telegramUsername string) (*model.NotificationProfile, error) {
	if chatID == 0 {
		return nil, apperror.ValidationFailed("telegramChatId", "telegram chat id is required")
	}

	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.TelegramChatID = chatID
	profile.TelegramUsername = strings.TrimSpace(telegramUsername)
	profile.NotificationsEnabled = true

	if err := s.users.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("telegram account linked",
		slog.String("userID", userID),
		slog.Int64("chatID", chatID),
	)
	return profile, nil
}

// DisconnectTelegram unlinks the chat and disables notifications, so the
// reminder core stops selecting this user's habits immediately.
func (s *AuthService) DisconnectTelegram(ctx context.Context, userID string) (*model.NotificationProfile, error) {
	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.TelegramChatID = 0
	profile.TelegramUsername = ""
	profile.NotificationsEnabled = false

	if err := s.users.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("telegram account unlinked", slog.String("userID", userID))
	return profile, nil
}
