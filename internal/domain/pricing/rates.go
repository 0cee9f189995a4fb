package pricing

import (
	"fmt"
	"time"

	"campstation/internal/domain/shared/money"
)

func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NightlyBase prices one night under rule. The weekend price replaces the base
// price on Saturday and Sunday, then the weekday multiplier scales the result.
func NightlyBase(rule PricingRule, date time.Time) (money.Money, error) {
	rate := rule.BasePrice
	if IsWeekend(date) && rule.WeekendPrice != nil {
		rate = *rule.WeekendPrice
	}
	if factor, ok := rule.DayMultipliers[date.Weekday()]; ok {
		scaled, err := rate.MulDecimal(factor)
		if err != nil {
			return money.Money{}, &InvalidRuleError{RuleID: rule.ID, Date: date, Reason: fmt.Sprintf("%s multiplier: %v", date.Weekday(), err)}
		}
		rate = scaled
	}
	if rate.IsNegative() {
		return money.Money{}, &InvalidRuleError{RuleID: rule.ID, Date: date, Reason: "negative nightly rate"}
	}
	return rate, nil
}

// GuestSurcharge is the per-night fee for guests above the rule's included count.
// date only identifies the night in errors.
func GuestSurcharge(rule PricingRule, guests int, date time.Time) (money.Money, error) {
	if guests > rule.MaxGuests {
		return money.Money{}, &GuestCountExceededError{Date: date, RuleID: rule.ID, Guests: guests, MaxGuests: rule.MaxGuests}
	}
	zero := money.Zero(rule.BasePrice.Currency)
	if guests <= rule.BaseGuests || rule.ExtraGuestFee == nil {
		return zero, nil
	}
	if rule.ExtraGuestFee.IsNegative() {
		return money.Money{}, &InvalidRuleError{RuleID: rule.ID, Date: date, Reason: "negative extra guest fee"}
	}
	fee, err := rule.ExtraGuestFee.Multiply(int64(guests - rule.BaseGuests))
	if err != nil {
		return money.Money{}, &InvalidRuleError{RuleID: rule.ID, Date: date, Reason: fmt.Sprintf("extra guest fee: %v", err)}
	}
	return fee, nil
}
