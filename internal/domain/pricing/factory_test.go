package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewRuleAppliesDefaults(t *testing.T) {
	weekend := int64(70000)
	r, err := NewRule(RuleParams{
		ID: 5, SiteID: 2, Name: "성수기", Type: "seasonal", Season: "peak",
		BasePrice: 50000, WeekendPrice: &weekend,
		DayMultipliers: map[string]decimal.Decimal{"FRIDAY": decimal.RequireFromString("1.2")},
		LongStayRate:   decimal.NewFromInt(5), LongStayNights: 7,
		Active: true,
	})
	if err != nil {
		t.Fatalf("NewRule: %v", err)
	}
	if r.BaseGuests != DefaultBaseGuests || r.MaxGuests != DefaultMaxGuests {
		t.Fatalf("guest defaults not applied: %d/%d", r.BaseGuests, r.MaxGuests)
	}
	if r.Type != RuleTypeSeasonal || r.Season != SeasonPeak || r.Window != nil {
		t.Fatalf("unexpected coverage %+v", r)
	}
	if r.BasePrice.Currency != "KRW" || r.WeekendPrice.Amount != 70000 {
		t.Fatalf("unexpected prices %+v", r)
	}
	if !r.LongStay.Configured() || r.ExtendedStay.Configured() {
		t.Fatalf("tiers wrong: %+v %+v", r.LongStay, r.ExtendedStay)
	}
	if _, ok := r.DayMultipliers[time.Friday]; !ok {
		t.Fatalf("multiplier not parsed")
	}
}

func TestNewRuleWindowNeedsAllFourParts(t *testing.T) {
	r, err := NewRule(RuleParams{
		ID: 1, Type: "DATE_RANGE", Season: "LOW", BasePrice: 1,
		StartMonth: 12, StartDay: 20, EndMonth: 1, Active: true,
	})
	if err != nil {
		t.Fatalf("NewRule: %v", err)
	}
	if r.Window != nil {
		t.Fatalf("incomplete window must be ignored")
	}
	if !r.AppliesOn(day("2026-02-01")) || r.AppliesOn(day("2026-03-01")) {
		t.Fatalf("season preset should apply")
	}

	r, err = NewRule(RuleParams{
		ID: 2, Type: "DATE_RANGE", BasePrice: 1,
		StartMonth: 12, StartDay: 20, EndMonth: 1, EndDay: 5, Active: true,
	})
	if err != nil {
		t.Fatalf("NewRule: %v", err)
	}
	if r.Window == nil || !r.Window.Wraps() {
		t.Fatalf("expected wrapping window, got %+v", r.Window)
	}
}

func TestNewRuleRejectsInvalidData(t *testing.T) {
	cases := []RuleParams{
		{ID: 1, Type: "BASE", BasePrice: -1},
		{ID: 2, Type: "BASE", BasePrice: 1, BaseGuests: 4, MaxGuests: 2},
		{ID: 3, Type: "BASE", BasePrice: 1, DayMultipliers: map[string]decimal.Decimal{"NOPE": decimal.NewFromInt(1)}},
		{ID: 4, Type: "SEASONAL", BasePrice: 1},
		{ID: 5, Type: "DATE_RANGE", BasePrice: 1, StartMonth: 2, StartDay: 30, EndMonth: 3, EndDay: 1},
	}
	for _, p := range cases {
		if _, err := NewRule(p); !errors.Is(err, ErrInvalidRule) {
			t.Fatalf("rule %d: expected ErrInvalidRule, got %v", p.ID, err)
		}
	}
}
