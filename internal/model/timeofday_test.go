package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sakif/habit-tracker/internal/apperror"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  TimeOfDay
	}{
		{"full form", "07:30:15", TimeOfDay{7, 30, 15}},
		{"short form defaults seconds", "07:30", TimeOfDay{7, 30, 0}},
		{"midnight", "00:00:00", TimeOfDay{0, 0, 0}},
		{"last second of day", "23:59:59", TimeOfDay{23, 59, 59}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"garbage", "not a time"},
		{"hour out of range", "24:00:00"},
		{"minute out of range", "12:60:00"},
		{"second out of range", "12:00:60"},
		{"bare hour", "12"},
		{"non-numeric seconds", "07:30:xx"},
		{"trailing garbage after minutes", "07:30abc"},
		{"trailing garbage after seconds", "07:30:00xyz"},
		{"wrong separator", "07-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTimeOfDay(tt.input)
			if err == nil {
				t.Fatalf("ParseTimeOfDay(%q) should have failed", tt.input)
			}
			if !errors.Is(err, apperror.ErrInvalidTime) {
				t.Errorf("error = %v, want ErrInvalidTime", err)
			}
		})
	}
}

func TestTimeOfDay_String(t *testing.T) {
	got := TimeOfDay{Hour: 7, Minute: 5, Second: 0}.String()
	if got != "07:05:00" {
		t.Errorf("String() = %q, want %q", got, "07:05:00")
	}
}

func TestTimeOfDay_SecondsFromMidnight(t *testing.T) {
	got := TimeOfDay{Hour: 1, Minute: 2, Second: 3}.SecondsFromMidnight()
	if got != 3723 {
		t.Errorf("SecondsFromMidnight() = %d, want 3723", got)
	}
}

func TestTimeOfDay_JSONRoundTrip(t *testing.T) {
	original := TimeOfDay{Hour: 22, Minute: 15, Second: 30}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"22:15:30"` {
		t.Errorf("Marshal() = %s, want %q", data, `"22:15:30"`)
	}

	var decoded TimeOfDay
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded != original {
		t.Errorf("round trip = %v, want %v", decoded, original)
	}
}

func TestTimeOfDay_UnmarshalRejectsNonString(t *testing.T) {
	var decoded TimeOfDay
	err := json.Unmarshal([]byte(`730`), &decoded)
	if !errors.Is(err, apperror.ErrInvalidTime) {
		t.Errorf("error = %v, want ErrInvalidTime", err)
	}
}

func TestDateOf(t *testing.T) {
	// 23:30 in UTC+3 is 20:30 UTC, still the 26th.
	loc := time.FixedZone("UTC+3", 3*3600)
	instant := time.Date(2026, 8, 26, 23, 30, 0, 0, loc)

	if got := DateOf(instant); got != "2026-08-26" {
		t.Errorf("DateOf() = %q, want %q", got, "2026-08-26")
	}

	// 02:30 in UTC+3 is 23:30 UTC the previous day.
	instant = time.Date(2026, 8, 27, 2, 30, 0, 0, loc)
	if got := DateOf(instant); got != "2026-08-26" {
		t.Errorf("DateOf() = %q, want %q", got, "2026-08-26")
	}
}
