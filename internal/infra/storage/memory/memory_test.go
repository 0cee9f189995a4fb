package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"campstation/internal/app/middleware"
	appoutbox "campstation/internal/app/outbox"
	domainpricing "campstation/internal/domain/pricing"
	"campstation/internal/domain/shared/money"
)

const fixtures = `[
  {"id": 1, "siteId": 10, "pricingName": "기본 요금", "ruleType": "BASE", "basePrice": 50000,
   "weekendPrice": 70000, "extraGuestFee": 10000, "baseGuests": 2, "maxGuests": 6,
   "longStayDiscountRate": 5, "longStayDiscountNights": 7},
  {"id": 2, "siteId": 10, "pricingName": "성수기", "ruleType": "SEASONAL", "seasonType": "PEAK",
   "basePrice": 90000, "dayMultipliers": {"FRIDAY": "1.1"}},
  {"id": 3, "siteId": 10, "pricingName": "old", "ruleType": "BASE", "basePrice": 1, "isActive": false}
]`

func TestLoadFixtures(t *testing.T) {
	repo := NewRuleRepository()
	n, err := repo.LoadFixtures(strings.NewReader(fixtures), "KRW")
	if err != nil {
		t.Fatalf("LoadFixtures: %v", err)
	}
	if n != 3 || repo.Len() != 3 {
		t.Fatalf("loaded %d, stored %d", n, repo.Len())
	}
	rules, err := repo.ActiveRules(context.Background(), 10)
	if err != nil {
		t.Fatalf("ActiveRules: %v", err)
	}
	if len(rules) != 2 || rules[0].ID != 1 || rules[1].ID != 2 {
		t.Fatalf("unexpected active rules %+v", rules)
	}
	if rules[1].MaxGuests != domainpricing.DefaultMaxGuests || rules[1].Season != domainpricing.SeasonPeak {
		t.Fatalf("seasonal defaults wrong: %+v", rules[1])
	}
	if rules[0].WeekendPrice == nil || rules[0].WeekendPrice.Amount != 70000 {
		t.Fatalf("weekend price lost: %+v", rules[0])
	}
}

func TestLoadFixturesIsAllOrNothing(t *testing.T) {
	repo := NewRuleRepository()
	bad := `[{"id": 1, "siteId": 1, "ruleType": "BASE", "basePrice": 100},
	         {"id": 2, "siteId": 1, "ruleType": "BASE", "basePrice": 100, "baseGuests": 5, "maxGuests": 3}]`
	if _, err := repo.LoadFixtures(strings.NewReader(bad), "KRW"); !errors.Is(err, domainpricing.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
	if repo.Len() != 0 {
		t.Fatalf("no rule should be stored after a failed load")
	}
	if _, err := repo.LoadFixtures(strings.NewReader(`[{"id": 1, "colour": "red"}]`), "KRW"); err == nil {
		t.Fatalf("unknown fields must be rejected")
	}
}

func TestActiveRulesReturnsCopies(t *testing.T) {
	repo := NewRuleRepository()
	weekend := money.Won(70000)
	rule := domainpricing.PricingRule{
		ID: 1, SiteID: 1, Type: domainpricing.RuleTypeBase, BasePrice: money.Won(100),
		WeekendPrice: &weekend, BaseGuests: 2, MaxGuests: 4, Active: true,
	}
	if err := repo.Put(rule); err != nil {
		t.Fatalf("Put: %v", err)
	}
	first, _ := repo.ActiveRules(context.Background(), 1)
	first[0].WeekendPrice.Amount = 1
	first[0].BasePrice = money.Won(1)
	second, _ := repo.ActiveRules(context.Background(), 1)
	if second[0].WeekendPrice.Amount != 70000 || second[0].BasePrice.Amount != 100 {
		t.Fatalf("snapshot mutation leaked into the store")
	}

	rule.SiteID = 2
	if err := repo.Put(rule); err == nil {
		t.Fatalf("moving a rule id to another site must fail")
	}
}

func TestOutboxStagesUntilFlush(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	if err := box.Add(ctx, appoutbox.EventRecord{ID: "e1", Name: "pricing.price_confirmed", Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if rec, _ := box.Claim(ctx, "w"); rec != nil {
		t.Fatalf("staged record must not be claimable")
	}
	if err := box.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	rec, err := box.Claim(ctx, "w")
	if err != nil || rec == nil || rec.ID != "e1" {
		t.Fatalf("Claim = %+v, %v", rec, err)
	}
	if again, _ := box.Claim(ctx, "w2"); again != nil {
		t.Fatalf("claimed record handed out twice")
	}

	now := time.Now()
	box.now = func() time.Time { return now }
	if err := box.MarkFailed(ctx, "e1", now.Add(time.Minute), "broker down"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if early, _ := box.Claim(ctx, "w"); early != nil {
		t.Fatalf("record claimed before its retry time")
	}
	box.now = func() time.Time { return now.Add(2 * time.Minute) }
	retry, _ := box.Claim(ctx, "w")
	if retry == nil || retry.Attempts != 1 {
		t.Fatalf("retry = %+v", retry)
	}
	if err := box.MarkSent(ctx, "e1"); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if staged, ready := box.Pending(); staged != 0 || ready != 0 {
		t.Fatalf("pending = %d/%d", staged, ready)
	}
}

func TestOutboxStaysBoundedWithoutWorker(t *testing.T) {
	ctx := context.Background()
	box := NewBoundedOutbox(10)
	if err := box.Add(ctx, appoutbox.EventRecord{ID: "first"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	_ = box.Flush(ctx)
	if rec, _ := box.Claim(ctx, "w"); rec == nil || rec.ID != "first" {
		t.Fatalf("Claim = %+v", rec)
	}
	for i := 0; i < 1000; i++ {
		if err := box.Add(ctx, appoutbox.EventRecord{ID: fmt.Sprintf("e%d", i)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := box.Flush(ctx); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}
	if staged, ready := box.Pending(); staged != 0 || ready != 10 {
		t.Fatalf("pending = %d/%d, want 0/10", staged, ready)
	}
	if box.Dropped() != 991 {
		t.Fatalf("dropped = %d, want 991", box.Dropped())
	}
	next, _ := box.Claim(ctx, "w")
	if next == nil || next.ID != "e991" {
		t.Fatalf("oldest kept unclaimed record = %+v, want e991", next)
	}
	if err := box.MarkSent(ctx, "first"); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if _, ready := box.Pending(); ready != 9 {
		t.Fatalf("in-flight record must survive eviction, ready = %d", ready)
	}
}

func TestIdempotencyStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Hour)
	now := time.Now()
	store.now = func() time.Time { return now }
	if err := store.Save(ctx, middleware.IdempotencyRecord{Key: "k", OccurredAt: now}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, found, _ := store.Get(ctx, "k"); !found {
		t.Fatalf("record should be found")
	}
	store.now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, found, _ := store.Get(ctx, "k"); found {
		t.Fatalf("record should have expired")
	}
}
