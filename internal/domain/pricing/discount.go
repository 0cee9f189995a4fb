package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"campstation/internal/domain/shared/money"
)

type DiscountKind string

const (
	DiscountLongStay     DiscountKind = "LONG_STAY"
	DiscountExtendedStay DiscountKind = "EXTENDED_STAY"
	DiscountEarlyBird    DiscountKind = "EARLY_BIRD"
)

// AppliedDiscount is one discount line. Amount is never positive.
type AppliedDiscount struct {
	Kind   DiscountKind
	Label  string
	Rate   decimal.NullDecimal
	Amount money.Money
}

// DiscountAuthority returns the rule that won the most nights of the stay.
// nightly holds the winning rule of each night in date order; on a tie the rule
// that appeared first wins.
func DiscountAuthority(nightly []PricingRule) (PricingRule, bool) {
	if len(nightly) == 0 {
		return PricingRule{}, false
	}
	counts := make(map[RuleID]int, len(nightly))
	for _, r := range nightly {
		counts[r.ID]++
	}
	best := nightly[0]
	for _, r := range nightly[1:] {
		if counts[r.ID] > counts[best.ID] {
			best = r
		}
	}
	return best, true
}

// ApplyDiscounts evaluates the stay-length and lead-time discounts of the
// plurality rule. At most one stay-length line (extended stay supersedes long
// stay) and at most one early-bird line are produced. Discounts apply to the
// nightly subtotal only, never to guest surcharges.
func ApplyDiscounts(nightly []PricingRule, nights int, subtotal money.Money, leadTimeDays int) ([]AppliedDiscount, error) {
	policy, ok := DiscountAuthority(nightly)
	if !ok {
		return nil, nil
	}
	var out []AppliedDiscount
	add := func(kind DiscountKind, tier DiscountTier, label string) error {
		amount, err := subtotal.Percent(tier.Rate)
		if err != nil {
			return &InvalidRuleError{RuleID: policy.ID, Reason: fmt.Sprintf("%s discount: %v", kind, err)}
		}
		out = append(out, AppliedDiscount{
			Kind:   kind,
			Label:  label,
			Rate:   decimal.NewNullDecimal(tier.Rate),
			Amount: amount.Neg(),
		})
		return nil
	}
	var err error
	switch {
	case policy.ExtendedStay.Configured() && nights >= policy.ExtendedStay.Threshold:
		err = add(DiscountExtendedStay, policy.ExtendedStay,
			fmt.Sprintf("연박 할인 (%d박 이상)", policy.ExtendedStay.Threshold))
	case policy.LongStay.Configured() && nights >= policy.LongStay.Threshold:
		err = add(DiscountLongStay, policy.LongStay,
			fmt.Sprintf("장기 숙박 할인 (%d박 이상)", policy.LongStay.Threshold))
	}
	if err != nil {
		return nil, err
	}
	if policy.EarlyBird.Configured() && leadTimeDays >= policy.EarlyBird.Threshold {
		if err := add(DiscountEarlyBird, policy.EarlyBird,
			fmt.Sprintf("얼리버드 할인 (%d일 전 예약)", policy.EarlyBird.Threshold)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
