package pricing

import (
	"fmt"
	"time"
)

// MonthDay is a year-less calendar position.
type MonthDay struct {
	Month time.Month
	Day   int
}

func (md MonthDay) Validate() error {
	if md.Month < time.January || md.Month > time.December {
		return fmt.Errorf("month %d out of range", md.Month)
	}
	// 2024 is a leap year, so Feb 29 stays a valid bound.
	last := time.Date(2024, md.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if md.Day < 1 || md.Day > last {
		return fmt.Errorf("day %d out of range for %s", md.Day, md.Month)
	}
	return nil
}

func (md MonthDay) ordinal() int {
	return int(md.Month)*100 + md.Day
}

func monthDayOf(date time.Time) MonthDay {
	return MonthDay{Month: date.Month(), Day: date.Day()}
}

// Window is an inclusive month/day span that repeats every year. When End comes
// before Start the span wraps over New Year (Dec 1 - Feb 28).
type Window struct {
	Start MonthDay
	End   MonthDay
}

func (w Window) Validate() error {
	if err := w.Start.Validate(); err != nil {
		return fmt.Errorf("window start: %w", err)
	}
	if err := w.End.Validate(); err != nil {
		return fmt.Errorf("window end: %w", err)
	}
	return nil
}

func (w Window) Wraps() bool {
	return w.End.ordinal() < w.Start.ordinal()
}

func (w Window) Contains(date time.Time) bool {
	cur := monthDayOf(date).ordinal()
	start, end := w.Start.ordinal(), w.End.ordinal()
	if start <= end {
		return cur >= start && cur <= end
	}
	return cur >= start || cur <= end
}

// SeasonContains maps a season preset to the months it covers.
func SeasonContains(season SeasonType, date time.Time) bool {
	switch m := date.Month(); season {
	case SeasonPeak:
		return m == time.July || m == time.August
	case SeasonHigh:
		return m == time.April || m == time.May || m == time.September || m == time.October
	case SeasonLow:
		return m == time.December || m == time.January || m == time.February
	case SeasonNormal:
		return true
	default:
		return false
	}
}
