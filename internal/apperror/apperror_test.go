package apperror

import (
	"errors"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("habit", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("frequency", "frequency must be between 1 and 7 days"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "taken@example.com"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("you can only modify your own habits"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "InvalidTime wraps ErrInvalidTime",
			err:       InvalidTime("invalid time of day \"25:99\""),
			target:    ErrInvalidTime,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("habit", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "InvalidTime does NOT match ErrValidation",
			err:       InvalidTime("bad"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestAppError_Message(t *testing.T) {
	err := NotFound("habit", "xyz")
	if err.Error() != "habit not found with id xyz" {
		t.Errorf("Error() = %q", err.Error())
	}

	verr := ValidationFailed("duration", "duration must be 120 seconds or less")
	if verr.Field != "duration" {
		t.Errorf("Field = %q, want %q", verr.Field, "duration")
	}
}

func TestAppError_Unwrap(t *testing.T) {
	wrapped := Forbidden("nope")
	if !errors.Is(wrapped, ErrForbidden) {
		t.Error("Unwrap() chain should reach ErrForbidden")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Error("errors.As should extract *AppError")
	}
}
