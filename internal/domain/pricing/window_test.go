package pricing

import (
	"testing"
	"time"
)

func day(raw string) time.Time {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWindowContains(t *testing.T) {
	summer := Window{Start: MonthDay{time.March, 1}, End: MonthDay{time.November, 30}}
	winter := Window{Start: MonthDay{time.December, 1}, End: MonthDay{time.February, 28}}
	single := Window{Start: MonthDay{time.May, 5}, End: MonthDay{time.May, 5}}

	cases := []struct {
		name   string
		window Window
		date   string
		want   bool
	}{
		{"plain inside", summer, "2025-06-15", true},
		{"plain start inclusive", summer, "2025-03-01", true},
		{"plain end inclusive", summer, "2025-11-30", true},
		{"plain before", summer, "2025-02-28", false},
		{"plain after", summer, "2025-12-01", false},
		{"wrap december", winter, "2025-12-24", true},
		{"wrap new year", winter, "2026-01-01", true},
		{"wrap end inclusive", winter, "2026-02-28", true},
		{"wrap leap day past end", winter, "2028-02-29", false},
		{"wrap gap", winter, "2025-03-01", false},
		{"wrap gap november", winter, "2025-11-30", false},
		{"single day hit", single, "2030-05-05", true},
		{"single day miss", single, "2030-05-06", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.window.Contains(day(tc.date)); got != tc.want {
				t.Fatalf("Contains(%s) = %v, want %v", tc.date, got, tc.want)
			}
		})
	}
}

func TestWindowWraps(t *testing.T) {
	if (Window{Start: MonthDay{time.March, 1}, End: MonthDay{time.November, 30}}).Wraps() {
		t.Fatalf("plain window reported as wrapping")
	}
	if !(Window{Start: MonthDay{time.December, 15}, End: MonthDay{time.January, 15}}).Wraps() {
		t.Fatalf("wrapping window not detected")
	}
}

func TestMonthDayValidate(t *testing.T) {
	valid := []MonthDay{{time.February, 29}, {time.December, 31}, {time.January, 1}}
	for _, md := range valid {
		if err := md.Validate(); err != nil {
			t.Fatalf("%v should be valid: %v", md, err)
		}
	}
	invalid := []MonthDay{{time.February, 30}, {time.April, 31}, {0, 1}, {13, 1}, {time.June, 0}}
	for _, md := range invalid {
		if err := md.Validate(); err == nil {
			t.Fatalf("%v should be rejected", md)
		}
	}
}

func TestSeasonContains(t *testing.T) {
	cases := []struct {
		season SeasonType
		date   string
		want   bool
	}{
		{SeasonPeak, "2025-07-01", true},
		{SeasonPeak, "2025-09-01", false},
		{SeasonHigh, "2025-04-10", true},
		{SeasonHigh, "2025-10-31", true},
		{SeasonHigh, "2025-06-10", false},
		{SeasonLow, "2025-12-31", true},
		{SeasonLow, "2025-02-01", true},
		{SeasonLow, "2025-03-01", false},
		{SeasonNormal, "2025-06-10", true},
		{SeasonType("MONSOON"), "2025-06-10", false},
	}
	for _, tc := range cases {
		if got := SeasonContains(tc.season, day(tc.date)); got != tc.want {
			t.Fatalf("SeasonContains(%s, %s) = %v, want %v", tc.season, tc.date, got, tc.want)
		}
	}
}
