package pricing

import (
	"errors"
	"fmt"
	"time"

	"campstation/internal/domain/shared/daterange"
)

// Sentinels for errors.Is checks. The typed errors below match them and carry
// the details the presentation layer needs.
var (
	ErrInvalidDateRange      = errors.New("pricing: check-out must be after check-in")
	ErrInvalidGuestCount     = errors.New("pricing: at least one guest is required")
	ErrNoApplicableRule      = errors.New("pricing: no applicable pricing rule")
	ErrGuestCountExceeded    = errors.New("pricing: guest count exceeds rule maximum")
	ErrInvalidRule           = errors.New("pricing: invalid pricing rule")
	ErrRuleStoreUnavailable  = errors.New("pricing: rule store unavailable")
	ErrRuleRepositoryMissing = errors.New("pricing: rule repository missing")
)

// InvalidDateRangeError reports an empty or inverted stay, or one longer than
// MaxNights when that is set.
type InvalidDateRangeError struct {
	CheckIn   time.Time
	CheckOut  time.Time
	MaxNights int
}

func (e *InvalidDateRangeError) Error() string {
	if e.MaxNights > 0 {
		return fmt.Sprintf("pricing: stay %s to %s exceeds %d nights", daterange.Format(e.CheckIn), daterange.Format(e.CheckOut), e.MaxNights)
	}
	return fmt.Sprintf("%s (check-in %s, check-out %s)", ErrInvalidDateRange, daterange.Format(e.CheckIn), daterange.Format(e.CheckOut))
}

func (e *InvalidDateRangeError) Is(target error) bool { return target == ErrInvalidDateRange }

type InvalidGuestCountError struct {
	Guests int
}

func (e *InvalidGuestCountError) Error() string {
	return fmt.Sprintf("%s (got %d)", ErrInvalidGuestCount, e.Guests)
}

func (e *InvalidGuestCountError) Is(target error) bool { return target == ErrInvalidGuestCount }

// NoApplicableRuleError means the site cannot be booked on Date.
type NoApplicableRuleError struct {
	SiteID SiteID
	Date   time.Time
}

func (e *NoApplicableRuleError) Error() string {
	return fmt.Sprintf("%s for site %d on %s", ErrNoApplicableRule, e.SiteID, daterange.Format(e.Date))
}

func (e *NoApplicableRuleError) Is(target error) bool { return target == ErrNoApplicableRule }

type GuestCountExceededError struct {
	Date      time.Time
	RuleID    RuleID
	Guests    int
	MaxGuests int
}

func (e *GuestCountExceededError) Error() string {
	return fmt.Sprintf("%s: %d guests on %s, rule %d allows %d", ErrGuestCountExceeded, e.Guests, daterange.Format(e.Date), e.RuleID, e.MaxGuests)
}

func (e *GuestCountExceededError) Is(target error) bool { return target == ErrGuestCountExceeded }

// InvalidRuleError is a data-integrity fault in the rule store. Its text is for
// logs only.
type InvalidRuleError struct {
	RuleID RuleID
	Date   time.Time
	Reason string
}

func (e *InvalidRuleError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("%s %d: %s", ErrInvalidRule, e.RuleID, e.Reason)
	}
	return fmt.Sprintf("%s %d on %s: %s", ErrInvalidRule, e.RuleID, daterange.Format(e.Date), e.Reason)
}

func (e *InvalidRuleError) Is(target error) bool { return target == ErrInvalidRule }

// RuleStoreUnavailableError wraps a failed or timed out snapshot fetch. Callers
// may retry.
type RuleStoreUnavailableError struct {
	SiteID SiteID
	Err    error
}

func (e *RuleStoreUnavailableError) Error() string {
	return fmt.Sprintf("%s for site %d: %v", ErrRuleStoreUnavailable, e.SiteID, e.Err)
}

func (e *RuleStoreUnavailableError) Is(target error) bool { return target == ErrRuleStoreUnavailable }

func (e *RuleStoreUnavailableError) Unwrap() error { return e.Err }
