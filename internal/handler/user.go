package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/habit-tracker/internal/auth"
	"github.com/sakif/habit-tracker/internal/service"
)

// UserHandler manages registration, login, and notification-profile routes.
//
//	POST   /api/users/register            → create an account, issue a token
//	POST   /api/users/token               → login with email + password
//	POST   /api/users/logout              → clear the token cookie
//	GET    /api/users/me                  → current user
//	GET    /api/users/profile             → notification profile
//	PATCH  /api/users/profile             → update notification settings
//	POST   /api/users/telegram/connect    → link a Telegram chat
//	DELETE /api/users/telegram/connect    → unlink it
type UserHandler struct {
	users  *service.AuthService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is returned by register and login. The token also goes into an
// HttpOnly cookie; the body copy is for non-browser clients.
type authResponse struct {
	User  interface{} `json:"user"`
	Token string      `json:"token"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/users/register
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("register: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	result, err := h.users.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, authResponse{User: result.User, Token: result.Token})
}

// HandleLogin verifies credentials and issues a token.
//
// HTTP: POST /api/users/token
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusOK, authResponse{User: result.User, Token: result.Token})
}

// HandleLogout clears the token cookie. Stateless JWTs aren't revoked; the
// token simply expires on its own once the cookie is gone.
//
// HTTP: POST /api/users/logout
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated user's record.
//
// HTTP: GET /api/users/me (auth required)
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't assume.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleGetProfile returns the notification profile.
//
// HTTP: GET /api/users/profile (auth required)
func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// HandleUpdateProfile applies a partial update to the notification profile.
//
// HTTP: PATCH /api/users/profile (auth required)
// BODY: {"notificationsEnabled": true, "dailyNotificationTime": "08:30"}
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var update service.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

type telegramConnectRequest struct {
	ChatID   int64  `json:"chatId"`
	Username string `json:"username"`
}

// HandleTelegramConnect links a Telegram chat to the profile and switches
// notifications on.
//
// HTTP: POST /api/users/telegram/connect (auth required)
func (h *UserHandler) HandleTelegramConnect(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req telegramConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	profile, err := h.users.ConnectTelegram(r.Context(), userID, req.ChatID, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// HandleTelegramDisconnect unlinks the chat and disables notifications.
//
// HTTP: DELETE /api/users/telegram/connect (auth required)
func (h *UserHandler) HandleTelegramDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.users.DisconnectTelegram(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// setTokenCookie stores the JWT in an HttpOnly cookie. HttpOnly keeps it away
// from page scripts; SameSite=Lax blocks cross-site POSTs from carrying it.
// Secure should be enabled behind HTTPS in production.
func (h *UserHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
