package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"campstation/internal/domain/shared/money"
)

type (
	RuleID int64
	SiteID int64
)

type RuleType string

const (
	RuleTypeBase         RuleType = "BASE"
	RuleTypeSeasonal     RuleType = "SEASONAL"
	RuleTypeDateRange    RuleType = "DATE_RANGE"
	RuleTypeSpecialEvent RuleType = "SPECIAL_EVENT"
)

// specificity orders rule types for resolution; higher wins.
func (t RuleType) specificity() int {
	switch t {
	case RuleTypeSpecialEvent:
		return 3
	case RuleTypeDateRange:
		return 2
	case RuleTypeSeasonal:
		return 1
	case RuleTypeBase:
		return 0
	default:
		return -1
	}
}

func (t RuleType) Valid() bool {
	return t.specificity() >= 0
}

type SeasonType string

const (
	SeasonPeak   SeasonType = "PEAK"
	SeasonHigh   SeasonType = "HIGH"
	SeasonLow    SeasonType = "LOW"
	SeasonNormal SeasonType = "NORMAL"
)

func (s SeasonType) Valid() bool {
	switch s {
	case SeasonPeak, SeasonHigh, SeasonLow, SeasonNormal:
		return true
	}
	return false
}

// Defaults applied by rule stores when a record leaves the guest policy empty.
const (
	DefaultBaseGuests = 2
	DefaultMaxGuests  = 4
)

// maxDayMultiplier caps weekday multipliers on stored rules.
var maxDayMultiplier = decimal.NewFromInt(10)

// DiscountTier is a rate (percent) unlocked at a threshold (nights or days).
// A tier is configured only when both values are positive.
type DiscountTier struct {
	Rate      decimal.Decimal
	Threshold int
}

func (t DiscountTier) Configured() bool {
	return t.Threshold > 0 && t.Rate.IsPositive()
}

// PricingRule is one owner-managed rule for a site. A calculation never mutates it.
type PricingRule struct {
	ID          RuleID
	SiteID      SiteID
	Name        string
	Description string
	Type        RuleType

	BasePrice      money.Money
	WeekendPrice   *money.Money
	DayMultipliers map[time.Weekday]decimal.Decimal

	BaseGuests    int
	MaxGuests     int
	ExtraGuestFee *money.Money

	Season SeasonType
	Window *Window

	LongStay     DiscountTier
	ExtendedStay DiscountTier
	EarlyBird    DiscountTier

	Priority int
	Active   bool
}

// RuleRepository is the read side of the external pricing rule store.
type RuleRepository interface {
	// ActiveRules returns a consistent snapshot of the site's rules.
	ActiveRules(ctx context.Context, siteID SiteID) ([]PricingRule, error)
}

// AppliesOn reports whether the rule's window covers date. Activity is checked
// here too so callers never have to remember it.
func (r PricingRule) AppliesOn(date time.Time) bool {
	if !r.Active {
		return false
	}
	if r.Type == RuleTypeBase {
		return true
	}
	if r.Window != nil {
		return r.Window.Contains(date)
	}
	if r.Season != "" {
		return SeasonContains(r.Season, date)
	}
	return false
}

// Validate checks the invariants a store must hold before handing a rule to the engine.
func (r PricingRule) Validate() error {
	fail := func(format string, args ...any) error {
		return &InvalidRuleError{RuleID: r.ID, Reason: fmt.Sprintf(format, args...)}
	}
	if !r.Type.Valid() {
		return fail("unknown rule type %q", r.Type)
	}
	if r.BasePrice.Currency == "" {
		return fail("base price currency missing")
	}
	if r.BasePrice.IsNegative() {
		return fail("base price %d is negative", r.BasePrice.Amount)
	}
	if r.WeekendPrice != nil && r.WeekendPrice.IsNegative() {
		return fail("weekend price %d is negative", r.WeekendPrice.Amount)
	}
	if r.ExtraGuestFee != nil && r.ExtraGuestFee.IsNegative() {
		return fail("extra guest fee %d is negative", r.ExtraGuestFee.Amount)
	}
	amounts := []struct {
		name   string
		amount *money.Money
	}{
		{"base price", &r.BasePrice},
		{"weekend price", r.WeekendPrice},
		{"extra guest fee", r.ExtraGuestFee},
	}
	for _, a := range amounts {
		if a.amount != nil && a.amount.Amount > money.MaxAmount {
			return fail("%s %d exceeds %d", a.name, a.amount.Amount, money.MaxAmount)
		}
	}
	for day, factor := range r.DayMultipliers {
		if factor.IsNegative() {
			return fail("multiplier for %s is negative", day)
		}
		if factor.GreaterThan(maxDayMultiplier) {
			return fail("multiplier for %s above %s", day, maxDayMultiplier)
		}
	}
	if r.BaseGuests < 1 {
		return fail("base guests must be at least 1")
	}
	if r.MaxGuests < r.BaseGuests {
		return fail("max guests %d below base guests %d", r.MaxGuests, r.BaseGuests)
	}
	if r.Season != "" && !r.Season.Valid() {
		return fail("unknown season %q", r.Season)
	}
	if r.Window != nil {
		if err := r.Window.Validate(); err != nil {
			return fail("%v", err)
		}
	}
	if r.Type != RuleTypeBase && r.Window == nil && r.Season == "" {
		return fail("%s rule needs a window or a season", r.Type)
	}
	tiers := []struct {
		name string
		tier DiscountTier
	}{
		{"long stay", r.LongStay},
		{"extended stay", r.ExtendedStay},
		{"early bird", r.EarlyBird},
	}
	for _, t := range tiers {
		if t.tier.Rate.IsNegative() || t.tier.Rate.GreaterThan(decimal.NewFromInt(100)) {
			return fail("%s rate %s outside [0, 100]", t.name, t.tier.Rate)
		}
		if t.tier.Threshold < 0 {
			return fail("%s threshold is negative", t.name)
		}
	}
	return nil
}

// ParseWeekday accepts English weekday names in any case ("MONDAY", "monday").
func ParseWeekday(raw string) (time.Weekday, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToUpper(d.String()) == key {
			return d, nil
		}
	}
	return 0, fmt.Errorf("pricing: unknown weekday %q", raw)
}

// ParseDayMultipliers converts a store's name-keyed multiplier map.
func ParseDayMultipliers(raw map[string]decimal.Decimal) (map[time.Weekday]decimal.Decimal, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[time.Weekday]decimal.Decimal, len(raw))
	for name, factor := range raw {
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		out[day] = factor
	}
	return out, nil
}

// FormatDayMultipliers is the inverse of ParseDayMultipliers.
func FormatDayMultipliers(in map[time.Weekday]decimal.Decimal) map[string]decimal.Decimal {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(in))
	for day, factor := range in {
		out[strings.ToUpper(day.String())] = factor
	}
	return out
}
