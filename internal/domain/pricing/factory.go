package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"campstation/internal/domain/shared/money"
)

// RuleParams is the flat shape rule stores read. Zero values mean "not set":
// guest limits fall back to the defaults and discount tiers stay unconfigured.
type RuleParams struct {
	ID          int64
	SiteID      int64
	Name        string
	Description string
	Type        string
	Currency    string

	BasePrice      int64
	WeekendPrice   *int64
	DayMultipliers map[string]decimal.Decimal

	BaseGuests    int
	MaxGuests     int
	ExtraGuestFee *int64

	Season     string
	StartMonth int
	StartDay   int
	EndMonth   int
	EndDay     int

	LongStayRate       decimal.Decimal
	LongStayNights     int
	ExtendedStayRate   decimal.Decimal
	ExtendedStayNights int
	EarlyBirdRate      decimal.Decimal
	EarlyBirdDays      int

	Priority int
	Active   bool
}

// NewRule builds and validates a rule. An incomplete window is ignored so the
// season preset, if any, takes over.
func NewRule(p RuleParams) (PricingRule, error) {
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = money.KRW
	}
	amount := func(v int64) money.Money { return money.Money{Amount: v, Currency: currency} }

	r := PricingRule{
		ID:           RuleID(p.ID),
		SiteID:       SiteID(p.SiteID),
		Name:         p.Name,
		Description:  p.Description,
		Type:         RuleType(strings.ToUpper(strings.TrimSpace(p.Type))),
		BasePrice:    amount(p.BasePrice),
		BaseGuests:   p.BaseGuests,
		MaxGuests:    p.MaxGuests,
		Season:       SeasonType(strings.ToUpper(strings.TrimSpace(p.Season))),
		LongStay:     DiscountTier{Rate: p.LongStayRate, Threshold: p.LongStayNights},
		ExtendedStay: DiscountTier{Rate: p.ExtendedStayRate, Threshold: p.ExtendedStayNights},
		EarlyBird:    DiscountTier{Rate: p.EarlyBirdRate, Threshold: p.EarlyBirdDays},
		Priority:     p.Priority,
		Active:       p.Active,
	}
	if r.BaseGuests == 0 {
		r.BaseGuests = DefaultBaseGuests
	}
	if r.MaxGuests == 0 {
		r.MaxGuests = max(DefaultMaxGuests, r.BaseGuests)
	}
	if p.WeekendPrice != nil {
		w := amount(*p.WeekendPrice)
		r.WeekendPrice = &w
	}
	if p.ExtraGuestFee != nil {
		f := amount(*p.ExtraGuestFee)
		r.ExtraGuestFee = &f
	}
	if p.StartMonth > 0 && p.StartDay > 0 && p.EndMonth > 0 && p.EndDay > 0 {
		r.Window = &Window{
			Start: MonthDay{Month: time.Month(p.StartMonth), Day: p.StartDay},
			End:   MonthDay{Month: time.Month(p.EndMonth), Day: p.EndDay},
		}
	}
	multipliers, err := ParseDayMultipliers(p.DayMultipliers)
	if err != nil {
		return PricingRule{}, &InvalidRuleError{RuleID: r.ID, Reason: err.Error()}
	}
	r.DayMultipliers = multipliers
	if err := r.Validate(); err != nil {
		return PricingRule{}, err
	}
	return r, nil
}
