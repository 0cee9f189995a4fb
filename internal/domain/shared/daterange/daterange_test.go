package daterange

import (
	"errors"
	"testing"
	"time"
)

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDate(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return d
}

func TestNewRejectsEmptyAndInvertedRanges(t *testing.T) {
	day := mustDate(t, "2025-03-10")
	if _, err := New(day, day); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("same-day range: expected ErrInvalidRange, got %v", err)
	}
	if _, err := New(day, day.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("inverted range: expected ErrInvalidRange, got %v", err)
	}
	if _, err := New(time.Time{}, day); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("zero check-in: expected ErrInvalidRange, got %v", err)
	}
}

func TestDatesCoversEveryNight(t *testing.T) {
	dr, err := New(mustDate(t, "2024-12-30"), mustDate(t, "2025-01-03"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dates := dr.Dates()
	if len(dates) != dr.Nights() || dr.Nights() != 4 {
		t.Fatalf("nights=%d dates=%d, want 4", dr.Nights(), len(dates))
	}
	want := []string{"2024-12-30", "2024-12-31", "2025-01-01", "2025-01-02"}
	for i, d := range dates {
		if Format(d) != want[i] {
			t.Fatalf("dates[%d] = %s, want %s", i, Format(d), want[i])
		}
	}
}

func TestNewTruncatesClock(t *testing.T) {
	in := time.Date(2025, 5, 1, 23, 59, 0, 0, time.UTC)
	out := time.Date(2025, 5, 2, 0, 1, 0, 0, time.UTC)
	dr, err := New(in, out)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if dr.Nights() != 1 {
		t.Fatalf("nights = %d, want 1", dr.Nights())
	}
	if !dr.ContainsDate(in) || dr.ContainsDate(out) {
		t.Fatalf("ContainsDate must be half-open")
	}
}

func TestDaysBetween(t *testing.T) {
	a := mustDate(t, "2025-01-01")
	b := mustDate(t, "2025-01-31")
	if got := DaysBetween(a, b); got != 30 {
		t.Fatalf("DaysBetween = %d, want 30", got)
	}
	if got := DaysBetween(b, a); got != -30 {
		t.Fatalf("DaysBetween reversed = %d, want -30", got)
	}
}

func TestDaysBetweenBeyondDurationRange(t *testing.T) {
	from := mustDate(t, "1700-01-01")
	to := mustDate(t, "2100-01-01")
	// 400 Gregorian years.
	if got := DaysBetween(from, to); got != 146097 {
		t.Fatalf("DaysBetween = %d, want 146097", got)
	}
	if got := DaysBetween(to, from); got != -146097 {
		t.Fatalf("DaysBetween reversed = %d, want -146097", got)
	}
	dr, err := New(from, to)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if dr.Nights() != 146097 || len(dr.Dates()) != dr.Nights() {
		t.Fatalf("nights = %d, dates = %d", dr.Nights(), len(dr.Dates()))
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	if _, err := ParseDate("2025-13-01"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
