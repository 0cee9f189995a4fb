package daterange

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDate  = errors.New("daterange: invalid date")
)

// DateRange represents a half-open interval of calendar dates [checkIn, checkOut).
// Both ends are kept at UTC midnight.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Truncate(checkIn), CheckOut: Truncate(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return DaysBetween(dr.CheckIn, dr.CheckOut)
}

// Dates lists every night of the stay in ascending order.
func (dr DateRange) Dates() []time.Time {
	n := dr.Nights()
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Truncate(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

func (dr DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", Format(dr.CheckIn), Format(dr.CheckOut))
}

// Truncate drops the clock part, keeping the calendar date as seen in t's location.
func Truncate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween counts calendar days from `from` to `to`; negative when to precedes from.
// It works on Unix seconds since time.Duration saturates after ~292 years.
func DaysBetween(from, to time.Time) int {
	return int((Truncate(to).Unix() - Truncate(from).Unix()) / secondsPerDay)
}

func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(Layout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t, nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}
