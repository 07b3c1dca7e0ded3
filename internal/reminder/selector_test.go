package reminder

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository"
)

// =========================================================================
// MOCK HABIT REPOSITORY
// =========================================================================
//
// The selector only calls ListReminderTargets, so the mock carries a fixed
// target list (or a forced error) and stubs the rest.

type mockTargetRepo struct {
	targets []model.ReminderTarget
	err     error
}

func (m *mockTargetRepo) ListReminderTargets(_ context.Context) ([]model.ReminderTarget, error) {
	return m.targets, m.err
}

func (m *mockTargetRepo) Create(_ context.Context, _ *model.Habit) error  { return nil }
func (m *mockTargetRepo) GetByID(_ context.Context, _ string) (*model.Habit, error) {
	return nil, nil
}
func (m *mockTargetRepo) ListByOwner(_ context.Context, _ string, _ repository.ListOptions) ([]model.Habit, error) {
	return nil, nil
}
func (m *mockTargetRepo) ListPublic(_ context.Context, _ repository.ListOptions) ([]model.Habit, error) {
	return nil, nil
}
func (m *mockTargetRepo) Update(_ context.Context, _ *model.Habit) error { return nil }
func (m *mockTargetRepo) Delete(_ context.Context, _ string) error       { return nil }

func reminderTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func target(id string, trigger model.TimeOfDay, frequency int, lastReminded string) model.ReminderTarget {
	return model.ReminderTarget{
		Habit: model.Habit{
			ID:          id,
			TriggerTime: trigger,
			Frequency:   frequency,
		},
		ChatID:           1000,
		LastRemindedDate: lastReminded,
	}
}

func selectDue(t *testing.T, targets []model.ReminderTarget, now time.Time, lookahead time.Duration) []DueHabit {
	t.Helper()
	s := NewSelector(&mockTargetRepo{targets: targets}, reminderTestLogger())
	due, err := s.SelectDue(context.Background(), now, lookahead)
	if err != nil {
		t.Fatalf("SelectDue() error = %v", err)
	}
	return due
}

func dueIDs(due []DueHabit) map[string]bool {
	ids := make(map[string]bool, len(due))
	for _, d := range due {
		ids[d.Habit.ID] = true
	}
	return ids
}

// =========================================================================
// WINDOW TESTS
// =========================================================================

func TestSelectDue_HalfOpenWindow(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	lookahead := 5 * time.Minute

	targets := []model.ReminderTarget{
		target("before", model.TimeOfDay{Hour: 11, Minute: 59}, 1, ""),          // rolls to tomorrow, outside
		target("at-start", model.TimeOfDay{Hour: 12}, 1, ""),                    // exactly now: due
		target("inside", model.TimeOfDay{Hour: 12, Minute: 3}, 1, ""),           // due
		target("at-end", model.TimeOfDay{Hour: 12, Minute: 5}, 1, ""),           // exactly window end: not due
		target("after", model.TimeOfDay{Hour: 12, Minute: 6}, 1, ""),            // not due
		target("last-second", model.TimeOfDay{Hour: 12, Minute: 4, Second: 59}, 1, ""), // due
	}

	ids := dueIDs(selectDue(t, targets, now, lookahead))

	for _, want := range []string{"at-start", "inside", "last-second"} {
		if !ids[want] {
			t.Errorf("habit %q missing from due set", want)
		}
	}
	for _, wantAbsent := range []string{"before", "at-end", "after"} {
		if ids[wantAbsent] {
			t.Errorf("habit %q should not be due", wantAbsent)
		}
	}
}

func TestSelectDue_WindowCrossingMidnight(t *testing.T) {
	// 23:59 with a 2-minute lookahead reaches into tomorrow. The 00:00:30
	// trigger resolves to tomorrow's instant and lands inside the window.
	now := time.Date(2026, 8, 27, 23, 59, 0, 0, time.UTC)
	lookahead := 2 * time.Minute

	targets := []model.ReminderTarget{
		target("before-midnight", model.TimeOfDay{Hour: 23, Minute: 59, Second: 30}, 1, ""),
		target("after-midnight", model.TimeOfDay{Hour: 0, Minute: 0, Second: 30}, 1, ""),
		target("too-late", model.TimeOfDay{Hour: 0, Minute: 5}, 1, ""),
	}

	due := selectDue(t, targets, now, lookahead)
	ids := dueIDs(due)

	if !ids["before-midnight"] || !ids["after-midnight"] {
		t.Errorf("due set = %v, want both sides of midnight", ids)
	}
	if ids["too-late"] {
		t.Error("habit past the window end should not be due")
	}

	// The after-midnight occurrence must carry tomorrow's date.
	for _, d := range due {
		if d.Habit.ID == "after-midnight" {
			if got := model.DateOf(d.OccursAt); got != "2026-08-28" {
				t.Errorf("after-midnight occurrence date = %q, want %q", got, "2026-08-28")
			}
		}
	}
}

func TestSelectDue_EmptyWindow(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	targets := []model.ReminderTarget{
		target("h1", model.TimeOfDay{Hour: 18}, 1, ""),
	}

	due := selectDue(t, targets, now, 0)
	if len(due) != 0 {
		t.Errorf("zero lookahead selected %d habits, want 0", len(due))
	}
}

func TestSelectDue_NegativeLookahead(t *testing.T) {
	s := NewSelector(&mockTargetRepo{}, reminderTestLogger())

	_, err := s.SelectDue(context.Background(), time.Now(), -time.Minute)
	if err == nil {
		t.Fatal("SelectDue() should reject a negative lookahead")
	}
}

func TestSelectDue_RepositoryError(t *testing.T) {
	sentinel := errors.New("db closed")
	s := NewSelector(&mockTargetRepo{err: sentinel}, reminderTestLogger())

	_, err := s.SelectDue(context.Background(), time.Now(), time.Minute)
	if !errors.Is(err, sentinel) {
		t.Errorf("error = %v, want wrapped %v", err, sentinel)
	}
}

// =========================================================================
// FREQUENCY GATE TESTS
// =========================================================================

func TestSelectDue_FrequencyGate(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	trigger := model.TimeOfDay{Hour: 12, Minute: 1}

	tests := []struct {
		name         string
		frequency    int
		lastReminded string
		wantDue      bool
	}{
		{"never reminded", 1, "", true},
		{"daily, reminded yesterday", 1, "2026-08-26", true},
		{"daily, reminded today", 1, "2026-08-27", false},
		{"every 3 days, 2 days ago", 3, "2026-08-25", false},
		{"every 3 days, 3 days ago", 3, "2026-08-24", true},
		{"weekly, 7 days ago", 7, "2026-08-20", true},
		{"weekly, 6 days ago", 7, "2026-08-21", false},
		{"malformed date treated as never", 1, "garbage", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := selectDue(t, []model.ReminderTarget{
				target("h", trigger, tt.frequency, tt.lastReminded),
			}, now, 5*time.Minute)

			if got := len(due) == 1; got != tt.wantDue {
				t.Errorf("due = %v, want %v", got, tt.wantDue)
			}
		})
	}
}

func TestSelectDue_CarriesChatAndOccurrence(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	due := selectDue(t, []model.ReminderTarget{
		target("h", model.TimeOfDay{Hour: 12, Minute: 2}, 1, ""),
	}, now, 5*time.Minute)

	if len(due) != 1 {
		t.Fatalf("got %d due habits, want 1", len(due))
	}
	if due[0].ChatID != 1000 {
		t.Errorf("ChatID = %d, want 1000", due[0].ChatID)
	}
	want := time.Date(2026, 8, 27, 12, 2, 0, 0, time.UTC)
	if !due[0].OccursAt.Equal(want) {
		t.Errorf("OccursAt = %v, want %v", due[0].OccursAt, want)
	}
}
