package fiscal

import (
	"testing"
	"time"
)

func TestCurrent(t *testing.T) {
	cases := []struct {
		name string
		date time.Time
		want string
	}{
		{"april_starts_new_year", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), "2025-2026"},
		{"december_same_year", time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), "2025-2026"},
		{"january_previous_year", time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), "2025-2026"},
		{"march_previous_year", time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), "2025-2026"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Current(tc.date); got != tc.want {
				t.Errorf("Current(%v) = %s, want %s", tc.date, got, tc.want)
			}
		})
	}
}

func TestPrevious(t *testing.T) {
	prev, err := Previous("2025-2026")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prev != "2024-2025" {
		t.Errorf("expected 2024-2025, got %s", prev)
	}
}

func TestPrior(t *testing.T) {
	got, err := Prior("2025-2026", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2023-2024" {
		t.Errorf("expected 2023-2024, got %s", got)
	}
	if _, err := Prior("bogus", 2); err == nil {
		t.Error("expected error for malformed label")
	}
}

func TestStartYearInvalid(t *testing.T) {
	for _, label := range []string{"2025", "2025-2027", "25-26", "abcd-efgh", ""} {
		if _, err := StartYear(label); err == nil {
			t.Errorf("expected error for label %q", label)
		}
	}
}

func TestValid(t *testing.T) {
	if !Valid("2024-2025") {
		t.Error("expected 2024-2025 to be valid")
	}
	if Valid("2024-2026") {
		t.Error("expected 2024-2026 to be invalid")
	}
}

func TestBounds(t *testing.T) {
	from, to, err := Bounds("2025-2026", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected start: %v", from)
	}
	if to != time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected end: %v", to)
	}
}
