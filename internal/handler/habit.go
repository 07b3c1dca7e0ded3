package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/habit-tracker/internal/auth"
	"github.com/sakif/habit-tracker/internal/service"
)

// Default and ceiling for list pagination. The repository clamps again, but
// clamping here too keeps the response honest about the page actually served.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// HabitHandler manages CRUD and completion routes for habits.
//
//	GET    /api/habits                   → list own habits
//	POST   /api/habits                   → create
//	GET    /api/habits/public            → list public habits (no auth)
//	GET    /api/habits/{id}              → get one (owner only)
//	PUT    /api/habits/{id}              → update (owner only)
//	DELETE /api/habits/{id}              → delete (owner only)
//	POST   /api/habits/{id}/complete     → mark today complete
//	POST   /api/habits/{id}/uncomplete   → unmark today
//	GET    /api/habits/{id}/completions  → completion history
type HabitHandler struct {
	habits *service.HabitService
	logger *slog.Logger
}

// NewHabitHandler creates a HabitHandler.
func NewHabitHandler(habits *service.HabitService, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{habits: habits, logger: logger}
}

// HandleCreate validates and saves a new habit.
//
// HTTP: POST /api/habits (auth required)
func (h *HabitHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var input service.HabitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("create habit: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	habit, err := h.habits.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, habit)
}

// HandleList returns the caller's habits, paginated with ?limit= and ?offset=.
//
// HTTP: GET /api/habits (auth required)
func (h *HabitHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	limit, offset := pageParams(r)
	habits, err := h.habits.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, habits)
}

// HandlePublicList returns publicly shared habits. No authentication.
//
// HTTP: GET /api/habits/public
func (h *HabitHandler) HandlePublicList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	habits, err := h.habits.ListPublic(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, habits)
}

// HandleGetByID returns a single habit, owner only.
//
// HTTP: GET /api/habits/{id} (auth required)
func (h *HabitHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	habit, err := h.habits.GetByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

// HandleUpdate replaces a habit's writable fields.
//
// HTTP: PUT /api/habits/{id} (auth required)
func (h *HabitHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var input service.HabitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	habit, err := h.habits.Update(r.Context(), userID, r.PathValue("id"), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

// HandleDelete removes a habit.
//
// HTTP: DELETE /api/habits/{id} (auth required)
func (h *HabitHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.habits.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleComplete marks the habit done for today. Idempotent: repeating the
// call returns the same record.
//
// HTTP: POST /api/habits/{id}/complete (auth required)
func (h *HabitHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	completion, err := h.habits.MarkComplete(r.Context(), userID, r.PathValue("id"), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, completion)
}

// HandleUncomplete clears today's completion.
//
// HTTP: POST /api/habits/{id}/uncomplete (auth required)
func (h *HabitHandler) HandleUncomplete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	completion, err := h.habits.Unmark(r.Context(), userID, r.PathValue("id"), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, completion)
}

// HandleCompletions returns the habit's completion history, newest first.
//
// HTTP: GET /api/habits/{id}/completions (auth required)
func (h *HabitHandler) HandleCompletions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	limit, offset := pageParams(r)
	completions, err := h.habits.Completions(r.Context(), userID, r.PathValue("id"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, completions)
}

// pageParams extracts and clamps limit/offset query parameters.
func pageParams(r *http.Request) (limit, offset int) {
	limit = queryInt(r, "limit", defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	offset = queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
