// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-tier split:
//
//	Handler (HTTP)     → parses requests, writes responses
//	Service (business) → validates, enforces invariants and ownership
//	Repository (data)  → reads/writes the store
//
// Services accept repository interfaces, not concrete types, so tests inject
// in-memory mocks and the HTTP layer never touches SQL.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository"
)

// Validation limits. Frequency and duration bounds come from the habit
// configuration rules; the text limits match the store's column sizing.
const (
	MaxPlaceLength  = 255
	MaxActionLength = 255
	MaxRewardLength = 255

	MinFrequencyDays = 1
	MaxFrequencyDays = 7

	MinDurationSeconds = 1
	MaxDurationSeconds = 120

	DefaultFrequencyDays   = 1
	DefaultDurationSeconds = 60
)

// HabitInput carries the writable habit fields through create and update.
// TriggerTime is the raw "HH:MM[:SS]" string; the service parses it so a
// malformed value surfaces as ErrInvalidTime before anything is written.
type HabitInput struct {
	Place           string `json:"place"`
	TriggerTime     string `json:"triggerTime"`
	Action          string `json:"action"`
	IsPleasant      bool   `json:"isPleasant"`
	RelatedHabitID  string `json:"relatedHabitId"`
	Frequency       int    `json:"frequency"`
	Reward          string `json:"reward"`
	DurationSeconds int    `json:"durationSeconds"`
	IsPublic        bool   `json:"isPublic"`
}

// HabitService handles business logic for habits and their completions.
type HabitService struct {
	habits      repository.HabitRepository
	completions repository.CompletionRepository
	logger      *slog.Logger
}

// NewHabitService creates a HabitService.
func NewHabitService(habits repository.HabitRepository, completions repository.CompletionRepository, logger *slog.Logger) *HabitService {
	return &HabitService{
		habits:      habits,
		completions: completions,
		logger:      logger,
	}
}

// requireOwner is the single ownership guard: anything implementing
// model.Owned is checked the same way. Completion operations route through it
// via the completion's habit.
func requireOwner(actorID string, resource model.Owned) error {
	if resource.OwnerID() != actorID {
		return apperror.Forbidden("you can only access your own habits")
	}
	return nil
}

// Create validates and saves a new habit for ownerID.
//
// All five structural invariants are enforced here, before any write:
//  1. related habit and reward are mutually exclusive
//  2. a related habit must itself be pleasant
//  3. a pleasant habit carries neither reward nor related habit
//  4. a habit cannot relate to itself
//  5. duration 1-120 seconds, frequency 1-7 days
func (s *HabitService) Create(ctx context.Context, ownerID string, input HabitInput) (*model.Habit, error) {
	habit, err := s.buildHabit(ctx, ownerID, "", input)
	if err != nil {
		return nil, err
	}

	if err := s.habits.Create(ctx, habit); err != nil {
		s.logger.Error("failed to create habit",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating habit: %w", err)
	}

	s.logger.Info("habit created",
		slog.String("id", habit.ID),
		slog.String("userID", ownerID),
		slog.String("action", habit.Action),
	)

	return habit, nil
}

// GetByID retrieves a habit. Only the owner may read it — public habits are
// exposed through ListPublic, not through the detail endpoint.
func (s *HabitService) GetByID(ctx context.Context, actorID, id string) (*model.Habit, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "habit ID is required")
	}

	habit, err := s.habits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actorID, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

// List retrieves the actor's habits with pagination.
func (s *HabitService) List(ctx context.Context, actorID string, limit, offset int) ([]model.Habit, error) {
	habits, err := s.habits.ListByOwner(ctx, actorID, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list habits", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing habits: %w", err)
	}
	return habits, nil
}

// ListPublic retrieves publicly shared habits. No authentication required.
func (s *HabitService) ListPublic(ctx context.Context, limit, offset int) ([]model.Habit, error) {
	habits, err := s.habits.ListPublic(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list public habits", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing public habits: %w", err)
	}
	return habits, nil
}

// Update replaces a habit's writable fields. The invariants are re-validated
// against the full new state, so an update can no more produce an invalid
// configuration than a create can.
func (s *HabitService) Update(ctx context.Context, actorID, id string, input HabitInput) (*model.Habit, error) {
	existing, err := s.GetByID(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	habit, err := s.buildHabit(ctx, existing.UserID, existing.ID, input)
	if err != nil {
		return nil, err
	}
	habit.ID = existing.ID
	habit.CreatedAt = existing.CreatedAt

	if err := s.habits.Update(ctx, habit); err != nil {
		s.logger.Error("failed to update habit",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating habit: %w", err)
	}

	s.logger.Info("habit updated", slog.String("id", habit.ID))
	return habit, nil
}

// Delete removes a habit and, by cascade, its completion and reminder
// records.
func (s *HabitService) Delete(ctx context.Context, actorID, id string) error {
	habit, err := s.GetByID(ctx, actorID, id)
	if err != nil {
		return err
	}

	if err := s.habits.Delete(ctx, habit.ID); err != nil {
		return err
	}

	s.logger.Info("habit deleted", slog.String("id", id), slog.String("userID", actorID))
	return nil
}

// MarkComplete records that the habit was performed on now's calendar day.
//
// Get-or-create semantics per (habit, day): the first call creates the record
// completed with completedAt=now; repeating the call is a no-op returning the
// same record; a call after Unmark flips the record back with a fresh
// timestamp.
func (s *HabitService) MarkComplete(ctx context.Context, actorID, habitID string, now time.Time) (*model.HabitCompletion, error) {
	habit, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actorID, habit); err != nil {
		return nil, err
	}

	completion, err := s.completions.MarkComplete(ctx, habit.ID, model.DateOf(now), now)
	if err != nil {
		s.logger.Error("failed to mark completion",
			slog.String("habitID", habitID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("marking habit complete: %w", err)
	}

	s.logger.Info("habit marked complete",
		slog.String("habitID", habit.ID),
		slog.String("date", completion.CompletionDate),
	)
	return completion, nil
}

// Unmark clears the completed state for now's calendar day.
func (s *HabitService) Unmark(ctx context.Context, actorID, habitID string, now time.Time) (*model.HabitCompletion, error) {
	habit, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actorID, habit); err != nil {
		return nil, err
	}

	completion, err := s.completions.Unmark(ctx, habit.ID, model.DateOf(now))
	if err != nil {
		return nil, fmt.Errorf("unmarking habit: %w", err)
	}

	return completion, nil
}

// Completions returns the habit's completion history, owner only.
func (s *HabitService) Completions(ctx context.Context, actorID, habitID string, limit, offset int) ([]model.HabitCompletion, error) {
	habit, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actorID, habit); err != nil {
		return nil, err
	}

	return s.completions.ListByHabit(ctx, habit.ID, repository.ListOptions{Limit: limit, Offset: offset})
}

// buildHabit parses, defaults, and validates input into a model.Habit.
// selfID is the habit's own ID on update ("" on create), used for the
// self-reference check.
func (s *HabitService) buildHabit(ctx context.Context, ownerID, selfID string, input HabitInput) (*model.Habit, error) {
	place := strings.TrimSpace(input.Place)
	action := strings.TrimSpace(input.Action)
	reward := strings.TrimSpace(input.Reward)
	relatedID := strings.TrimSpace(input.RelatedHabitID)

	if place == "" {
		return nil, apperror.ValidationFailed("place", "place is required")
	}
	if len(place) > MaxPlaceLength {
		return nil, apperror.ValidationFailed("place",
			fmt.Sprintf("place must be %d characters or less", MaxPlaceLength))
	}
	if action == "" {
		return nil, apperror.ValidationFailed("action", "action is required")
	}
	if len(action) > MaxActionLength {
		return nil, apperror.ValidationFailed("action",
			fmt.Sprintf("action must be %d characters or less", MaxActionLength))
	}
	if len(reward) > MaxRewardLength {
		return nil, apperror.ValidationFailed("reward",
			fmt.Sprintf("reward must be %d characters or less", MaxRewardLength))
	}

	triggerTime, err := model.ParseTimeOfDay(input.TriggerTime)
	if err != nil {
		return nil, err
	}

	frequency := input.Frequency
	if frequency == 0 {
		frequency = DefaultFrequencyDays
	}
	if frequency < MinFrequencyDays || frequency > MaxFrequencyDays {
		return nil, apperror.ValidationFailed("frequency",
			fmt.Sprintf("frequency must be between %d and %d days", MinFrequencyDays, MaxFrequencyDays))
	}

	duration := input.DurationSeconds
	if duration == 0 {
		duration = DefaultDurationSeconds
	}
	if duration < MinDurationSeconds || duration > MaxDurationSeconds {
		return nil, apperror.ValidationFailed("durationSeconds",
			fmt.Sprintf("duration must be between %d and %d seconds", MinDurationSeconds, MaxDurationSeconds))
	}

	// Invariant 1: related habit and reward are mutually exclusive.
	if relatedID != "" && reward != "" {
		return nil, apperror.ValidationFailed("relatedHabitId",
			"a habit cannot have both a related habit and a reward")
	}

	// Invariant 3: a pleasant habit is itself the reward.
	if input.IsPleasant && (reward != "" || relatedID != "") {
		return nil, apperror.ValidationFailed("isPleasant",
			"a pleasant habit cannot have a reward or a related habit")
	}

	if relatedID != "" {
		// Invariant 4: no self-reference.
		if selfID != "" && relatedID == selfID {
			return nil, apperror.ValidationFailed("relatedHabitId",
				"a habit cannot be related to itself")
		}

		// Invariant 2: the related habit must exist and be pleasant.
		related, err := s.habits.GetByID(ctx, relatedID)
		if err != nil {
			return nil, apperror.ValidationFailed("relatedHabitId",
				fmt.Sprintf("related habit %s does not exist", relatedID))
		}
		if !related.IsPleasant {
			return nil, apperror.ValidationFailed("relatedHabitId",
				"only a pleasant habit can be used as a related habit")
		}
	}

	return &model.Habit{
		UserID:          ownerID,
		Place:           place,
		TriggerTime:     triggerTime,
		Action:          action,
		IsPleasant:      input.IsPleasant,
		RelatedHabitID:  relatedID,
		Frequency:       frequency,
		Reward:          reward,
		DurationSeconds: duration,
		IsPublic:        input.IsPublic,
	}, nil
}
