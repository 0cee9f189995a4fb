package pricing

import (
	"context"
	"strings"
	"testing"

	"campstation/internal/domain/shared/money"
)

func sampleBreakdown(t *testing.T) PriceBreakdown {
	t.Helper()
	r := rule(1, RuleTypeBase, 40000)
	r.LongStay = tier("10", 2)
	got, err := Assemble(context.Background(), []PricingRule{r}, request("2025-03-10", "2025-03-13", 2))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return got
}

func TestVerifyAcceptsAssembledBreakdown(t *testing.T) {
	if err := sampleBreakdown(t).Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyReportsTampering(t *testing.T) {
	cases := []struct {
		name   string
		tamper func(*PriceBreakdown)
		want   string
	}{
		{"subtotal", func(p *PriceBreakdown) { p.Subtotal.Amount++ }, "subtotal"},
		{"missing line", func(p *PriceBreakdown) { p.DailyPrices = p.DailyPrices[:2] }, "daily lines"},
		{"positive discount", func(p *PriceBreakdown) { p.Discounts[0].Amount = money.Won(100) }, "positive"},
		{"both stay discounts", func(p *PriceBreakdown) {
			p.Discounts = append(p.Discounts, AppliedDiscount{Kind: DiscountExtendedStay, Amount: money.Won(0)})
		}, "both applied"},
		{"final", func(p *PriceBreakdown) { p.FinalPrice.Amount = 1 }, "final price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := sampleBreakdown(t).Copy()
			tc.tamper(&p)
			err := p.Verify()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestCopyDetachesSlices(t *testing.T) {
	orig := sampleBreakdown(t)
	clone := orig.Copy()
	clone.DailyPrices[0].NightlyBase = money.Won(1)
	clone.Discounts[0].Label = "changed"
	if orig.DailyPrices[0].NightlyBase.Amount != 40000 || orig.Discounts[0].Label == "changed" {
		t.Fatalf("copy shares backing arrays with the original")
	}
}
