package postgres

import (
	"errors"
	"testing"
	"time"

	domainpricing "campstation/internal/domain/pricing"
)

func baseRow() ruleRow {
	return ruleRow{
		ID: 1, SiteID: 2, Name: "기본", Type: "BASE", BasePrice: 50000,
		LongStayRate: "5.00", LongStayNights: 7,
		ExtendedStayRate: "0", EarlyBirdRate: "0",
		Active: true,
	}
}

func TestRuleRowToRule(t *testing.T) {
	row := baseRow()
	row.DayMultipliers = `{"FRIDAY": 1.2, "SATURDAY": "1.5"}`
	rule, err := row.toRule("KRW")
	if err != nil {
		t.Fatalf("toRule: %v", err)
	}
	if !rule.LongStay.Configured() || rule.ExtendedStay.Configured() {
		t.Fatalf("tiers wrong: %+v", rule)
	}
	if len(rule.DayMultipliers) != 2 || rule.DayMultipliers[time.Friday].String() != "1.2" {
		t.Fatalf("multipliers = %v", rule.DayMultipliers)
	}
	if rule.BasePrice.Amount != 50000 || rule.BasePrice.Currency != "KRW" {
		t.Fatalf("price = %+v", rule.BasePrice)
	}
}

func TestRuleRowRejectsBadData(t *testing.T) {
	row := baseRow()
	row.DayMultipliers = `{"FRIDAY": `
	if _, err := row.toRule("KRW"); !errors.Is(err, domainpricing.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule for bad json, got %v", err)
	}
	row = baseRow()
	row.EarlyBirdRate = "n/a"
	if _, err := row.toRule("KRW"); !errors.Is(err, domainpricing.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule for bad rate, got %v", err)
	}
}
