package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domainpricing "campstation/internal/domain/pricing"
	"campstation/internal/domain/shared/money"
)

func TestMapPriceBreakdownJSON(t *testing.T) {
	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	b := domainpricing.PriceBreakdown{
		SiteID:   7,
		CheckIn:  date,
		CheckOut: date.AddDate(0, 0, 1),
		Nights:   1,
		Guests:   3,
		DailyPrices: []domainpricing.DailyPriceLine{{
			Date: date, RuleID: 2, RuleName: "주말", Weekend: true,
			NightlyBase: money.Won(70000), GuestSurcharge: money.Won(10000),
		}},
		Subtotal:            money.Won(70000),
		GuestSurchargeTotal: money.Won(10000),
		Discounts: []domainpricing.AppliedDiscount{{
			Kind: domainpricing.DiscountEarlyBird, Label: "얼리버드 할인 (14일 전 예약)",
			Rate: decimal.NewNullDecimal(decimal.RequireFromString("5.5")), Amount: money.Won(-3850),
		}},
		DiscountTotal: money.Won(-3850),
		FinalPrice:    money.Won(76150),
	}
	raw, err := json.Marshal(MapPriceBreakdown(b))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got := string(raw)
	for _, want := range []string{
		`"siteId":7`, `"checkIn":"2025-03-15"`, `"checkOut":"2025-03-16"`,
		`"winningRuleId":2`, `"weekend":true`, `"nightlyBase":70000`,
		`"kind":"EARLY_BIRD"`, `"rate":5.5`, `"amount":-3850`, `"finalPrice":76150`, `"currency":"KRW"`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %s in %s", want, got)
		}
	}
}

func TestMapPriceBreakdownEmptyDiscountsIsArray(t *testing.T) {
	raw, err := json.Marshal(MapPriceBreakdown(domainpricing.PriceBreakdown{FinalPrice: money.Won(0)}))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"discounts":[]`) {
		t.Fatalf("discounts should encode as an empty array: %s", raw)
	}
}
