package pricing

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"campstation/internal/domain/shared/money"
)

func TestValidate(t *testing.T) {
	negative := money.Won(-1)
	cases := []struct {
		name   string
		mutate func(*PricingRule)
		reason string
	}{
		{"valid base", func(*PricingRule) {}, ""},
		{"unknown type", func(r *PricingRule) { r.Type = "HOLIDAY" }, "unknown rule type"},
		{"negative base", func(r *PricingRule) { r.BasePrice = negative }, "base price"},
		{"negative weekend", func(r *PricingRule) { r.WeekendPrice = &negative }, "weekend price"},
		{"negative fee", func(r *PricingRule) { r.ExtraGuestFee = &negative }, "extra guest fee"},
		{"negative multiplier", func(r *PricingRule) {
			r.DayMultipliers = map[time.Weekday]decimal.Decimal{time.Monday: decimal.NewFromInt(-2)}
		}, "multiplier"},
		{"base above money range", func(r *PricingRule) { r.BasePrice = money.Won(money.MaxAmount + 1) }, "base price"},
		{"fee above money range", func(r *PricingRule) {
			fee := money.Won(math.MaxInt64)
			r.ExtraGuestFee = &fee
		}, "extra guest fee"},
		{"runaway multiplier", func(r *PricingRule) {
			r.DayMultipliers = map[time.Weekday]decimal.Decimal{time.Friday: decimal.NewFromInt(1000)}
		}, "multiplier for Friday"},
		{"zero base guests", func(r *PricingRule) { r.BaseGuests = 0 }, "base guests"},
		{"max below base", func(r *PricingRule) { r.MaxGuests = 1 }, "max guests"},
		{"unknown season", func(r *PricingRule) { r.Season = "MONSOON" }, "unknown season"},
		{"seasonal without coverage", func(r *PricingRule) { r.Type = RuleTypeSeasonal }, "needs a window"},
		{"bad window", func(r *PricingRule) {
			r.Window = &Window{Start: MonthDay{time.February, 30}, End: MonthDay{time.March, 1}}
		}, ""},
		{"rate above 100", func(r *PricingRule) { r.EarlyBird = tier("120", 10) }, "early bird rate"},
		{"negative threshold", func(r *PricingRule) { r.LongStay = DiscountTier{Threshold: -1} }, "long stay threshold"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := rule(11, RuleTypeBase, 50000)
			tc.mutate(&r)
			err := r.Validate()
			if tc.name == "valid base" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var invalid *InvalidRuleError
			if !errors.As(err, &invalid) || invalid.RuleID != 11 {
				t.Fatalf("expected InvalidRuleError for rule 11, got %v", err)
			}
			if !strings.Contains(invalid.Reason, tc.reason) {
				t.Fatalf("reason %q does not mention %q", invalid.Reason, tc.reason)
			}
		})
	}
}

func TestValidateAcceptsSeasonPreset(t *testing.T) {
	r := rule(1, RuleTypeSeasonal, 90000)
	r.Season = SeasonPeak
	if err := r.Validate(); err != nil {
		t.Fatalf("season preset should be enough coverage: %v", err)
	}
}

func TestParseDayMultipliers(t *testing.T) {
	got, err := ParseDayMultipliers(map[string]decimal.Decimal{
		"FRIDAY":   decimal.RequireFromString("1.2"),
		"saturday": decimal.RequireFromString("1.5"),
	})
	if err != nil {
		t.Fatalf("ParseDayMultipliers: %v", err)
	}
	if !got[time.Friday].Equal(decimal.RequireFromString("1.2")) || !got[time.Saturday].Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("unexpected multipliers %v", got)
	}
	back := FormatDayMultipliers(got)
	if _, ok := back["SATURDAY"]; !ok || len(back) != 2 {
		t.Fatalf("format should use upper case names, got %v", back)
	}

	if _, err := ParseDayMultipliers(map[string]decimal.Decimal{"FUNDAY": decimal.NewFromInt(1)}); err == nil {
		t.Fatalf("unknown weekday must be rejected")
	}
	if got, err := ParseDayMultipliers(nil); err != nil || got != nil {
		t.Fatalf("empty input should give nil, got %v %v", got, err)
	}
}
