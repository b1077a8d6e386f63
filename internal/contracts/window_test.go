package contracts

import (
	"testing"
	"time"
)

func TestNewTimeWindow(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	if _, err := NewTimeWindow(start, end); err != nil {
		t.Fatalf("NewTimeWindow() failed: %v", err)
	}

	if _, err := NewTimeWindow(end, start); err == nil {
		t.Error("Expected error for start after end, got nil")
	}

	// Single-day window is valid
	if _, err := NewTimeWindow(start, start); err != nil {
		t.Errorf("Single-day window should be valid: %v", err)
	}
}

func TestTimeWindowContains(t *testing.T) {
	w := TimeWindow{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"start boundary", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"end boundary midnight", time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), true},
		{"end day with time component", time.Date(2025, 3, 31, 15, 30, 0, 0, time.UTC), true},
		{"just before start", time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC), false},
		{"day after end", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), false},
		{"mid window", time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestParseCompactDate(t *testing.T) {
	got, err := ParseCompactDate("20250331")
	if err != nil {
		t.Fatalf("ParseCompactDate() failed: %v", err)
	}
	want := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseCompactDate() = %v, want %v", got, want)
	}

	for _, bad := range []string{"2025-03-31", "202503", "abcdefgh", ""} {
		if _, err := ParseCompactDate(bad); err == nil {
			t.Errorf("ParseCompactDate(%q) expected error, got nil", bad)
		}
	}
}

func TestDirectionString(t *testing.T) {
	if DirectionUp.String() != "up" {
		t.Errorf("DirectionUp.String() = %s, want up", DirectionUp.String())
	}
	if DirectionDown.String() != "down" {
		t.Errorf("DirectionDown.String() = %s, want down", DirectionDown.String())
	}
}
