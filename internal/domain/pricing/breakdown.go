package pricing

import (
	"errors"
	"fmt"
	"time"

	"campstation/internal/domain/shared/daterange"
	"campstation/internal/domain/shared/money"
)

type DailyPriceLine struct {
	Date           time.Time
	RuleID         RuleID
	RuleName       string
	Weekend        bool
	NightlyBase    money.Money
	GuestSurcharge money.Money
}

// PriceBreakdown is the engine's only output. It is rebuilt on every request and
// never patched in place.
type PriceBreakdown struct {
	SiteID              SiteID
	CheckIn             time.Time
	CheckOut            time.Time
	Nights              int
	Guests              int
	DailyPrices         []DailyPriceLine
	Subtotal            money.Money
	GuestSurchargeTotal money.Money
	Discounts           []AppliedDiscount
	DiscountTotal       money.Money
	FinalPrice          money.Money
}

func (p PriceBreakdown) Copy() PriceBreakdown {
	clone := p
	clone.DailyPrices = append([]DailyPriceLine(nil), p.DailyPrices...)
	clone.Discounts = append([]AppliedDiscount(nil), p.Discounts...)
	return clone
}

// Verify re-checks the arithmetic and coverage invariants of a breakdown. The
// confirmation flow runs it before a breakdown leaves the service for audit.
func (p PriceBreakdown) Verify() error {
	var errs []error
	if p.Nights != daterange.DaysBetween(p.CheckIn, p.CheckOut) {
		errs = append(errs, fmt.Errorf("nights %d do not match range", p.Nights))
	}
	if len(p.DailyPrices) != p.Nights {
		errs = append(errs, fmt.Errorf("%d daily lines for %d nights", len(p.DailyPrices), p.Nights))
	}
	var base, surcharge, discounts int64
	for i, line := range p.DailyPrices {
		if want := p.CheckIn.AddDate(0, 0, i); !line.Date.Equal(want) {
			errs = append(errs, fmt.Errorf("line %d dated %s, want %s", i, daterange.Format(line.Date), daterange.Format(want)))
		}
		base += line.NightlyBase.Amount
		surcharge += line.GuestSurcharge.Amount
	}
	stayLength := 0
	for _, d := range p.Discounts {
		if d.Amount.Amount > 0 {
			errs = append(errs, fmt.Errorf("discount %s is positive", d.Kind))
		}
		if d.Kind == DiscountLongStay || d.Kind == DiscountExtendedStay {
			stayLength++
		}
		discounts += d.Amount.Amount
	}
	if stayLength > 1 {
		errs = append(errs, errors.New("long stay and extended stay both applied"))
	}
	if base != p.Subtotal.Amount {
		errs = append(errs, fmt.Errorf("subtotal %d, lines sum to %d", p.Subtotal.Amount, base))
	}
	if surcharge != p.GuestSurchargeTotal.Amount {
		errs = append(errs, fmt.Errorf("guest surcharge total %d, lines sum to %d", p.GuestSurchargeTotal.Amount, surcharge))
	}
	if discounts != p.DiscountTotal.Amount {
		errs = append(errs, fmt.Errorf("discount total %d, lines sum to %d", p.DiscountTotal.Amount, discounts))
	}
	if want := max(0, base+surcharge+discounts); p.FinalPrice.Amount != want {
		errs = append(errs, fmt.Errorf("final price %d, want %d", p.FinalPrice.Amount, want))
	}
	return errors.Join(errs...)
}
