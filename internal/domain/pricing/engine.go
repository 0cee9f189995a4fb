package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"campstation/internal/domain/shared/daterange"
	"campstation/internal/domain/shared/money"
)

// Stage names the steps of a calculation, in execution order.
type Stage string

const (
	StageValidateRange Stage = "VALIDATE_RANGE"
	StageLoadRules     Stage = "LOAD_RULES"
	StageResolveDays   Stage = "RESOLVE_DAYS"
	StageSum           Stage = "SUM"
	StageDiscount      Stage = "DISCOUNT"
	StageFinalize      Stage = "FINALIZE"
)

const (
	DefaultFetchTimeout = 3 * time.Second
	// DefaultMaxNights bounds a single quote; longer stays are rejected as an
	// invalid range.
	DefaultMaxNights = 365
)

// Request is one price calculation. A zero BookingDate means "today" for the
// engine; Assemble treats it as no lead time at all.
type Request struct {
	SiteID      SiteID
	CheckIn     time.Time
	CheckOut    time.Time
	Guests      int
	BookingDate time.Time
}

// Engine loads a rule snapshot and assembles the breakdown. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	Rules        RuleRepository
	FetchTimeout time.Duration
	MaxNights    int
	Logger       *slog.Logger
	Clock        func() time.Time
}

// Calculate runs VALIDATE_RANGE -> LOAD_RULES -> RESOLVE_DAYS -> SUM -> DISCOUNT -> FINALIZE.
// Any failure aborts the calculation and is returned as is.
func (e *Engine) Calculate(ctx context.Context, req Request) (PriceBreakdown, error) {
	var zero PriceBreakdown
	if e == nil || e.Rules == nil {
		return zero, ErrRuleRepositoryMissing
	}
	if _, err := validateRequest(req, e.maxNights()); err != nil {
		return zero, err
	}
	if req.BookingDate.IsZero() {
		req.BookingDate = e.now()
	}

	snapshot, err := e.loadRules(ctx, req.SiteID)
	if err != nil {
		e.logFailure(StageLoadRules, req, err)
		return zero, err
	}

	breakdown, err := assemble(ctx, snapshot, req, e.maxNights())
	if err != nil {
		e.logFailure(StageResolveDays, req, err)
		return zero, err
	}
	if e.Logger != nil {
		e.Logger.Debug("price calculated",
			"site_id", req.SiteID,
			"check_in", daterange.Format(breakdown.CheckIn),
			"nights", breakdown.Nights,
			"guests", breakdown.Guests,
			"rules", len(snapshot),
			"final_price", breakdown.FinalPrice.Amount,
		)
	}
	return breakdown, nil
}

// Assemble computes the breakdown from an explicit snapshot. It performs no I/O
// and checks ctx between nights so an abandoned preview stops early. Stays
// longer than DefaultMaxNights are rejected.
func Assemble(ctx context.Context, rules []PricingRule, req Request) (PriceBreakdown, error) {
	return assemble(ctx, rules, req, DefaultMaxNights)
}

func assemble(ctx context.Context, rules []PricingRule, req Request, maxNights int) (PriceBreakdown, error) {
	var zero PriceBreakdown

	// VALIDATE_RANGE
	dr, err := validateRequest(req, maxNights)
	if err != nil {
		return zero, err
	}
	if err := checkSnapshot(rules); err != nil {
		return zero, err
	}

	// RESOLVE_DAYS
	dates := dr.Dates()
	lines := make([]DailyPriceLine, 0, len(dates))
	winners := make([]PricingRule, 0, len(dates))
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("pricing: cancelled during %s: %w", StageResolveDays, err)
		}
		rule, err := Resolve(rules, date)
		if err != nil {
			var noRule *NoApplicableRuleError
			if errors.As(err, &noRule) {
				noRule.SiteID = req.SiteID
			}
			return zero, err
		}
		nightly, err := NightlyBase(rule, date)
		if err != nil {
			return zero, err
		}
		surcharge, err := GuestSurcharge(rule, req.Guests, date)
		if err != nil {
			return zero, err
		}
		lines = append(lines, DailyPriceLine{
			Date:           date,
			RuleID:         rule.ID,
			RuleName:       rule.Name,
			Weekend:        IsWeekend(date),
			NightlyBase:    nightly,
			GuestSurcharge: surcharge,
		})
		winners = append(winners, rule)
	}

	// SUM
	currency := lines[0].NightlyBase.Currency
	subtotal, surchargeTotal := money.Zero(currency), money.Zero(currency)
	for _, line := range lines {
		if subtotal, err = subtotal.Add(line.NightlyBase); err != nil {
			return zero, &InvalidRuleError{RuleID: line.RuleID, Date: line.Date, Reason: err.Error()}
		}
		if surchargeTotal, err = surchargeTotal.Add(line.GuestSurcharge); err != nil {
			return zero, &InvalidRuleError{RuleID: line.RuleID, Date: line.Date, Reason: err.Error()}
		}
	}

	// DISCOUNT
	leadTime := 0
	if !req.BookingDate.IsZero() {
		leadTime = daterange.DaysBetween(req.BookingDate, dr.CheckIn)
	}
	discounts, err := ApplyDiscounts(winners, len(lines), subtotal, leadTime)
	if err != nil {
		return zero, err
	}
	totalErr := func(err error) error {
		policy, _ := DiscountAuthority(winners)
		return &InvalidRuleError{RuleID: policy.ID, Reason: "stay total: " + err.Error()}
	}
	discountTotal := money.Zero(currency)
	for _, d := range discounts {
		if discountTotal, err = discountTotal.Add(d.Amount); err != nil {
			return zero, totalErr(err)
		}
	}

	// FINALIZE
	final, err := subtotal.Add(surchargeTotal)
	if err != nil {
		return zero, totalErr(err)
	}
	if final, err = final.Add(discountTotal); err != nil {
		return zero, totalErr(err)
	}
	return PriceBreakdown{
		SiteID:              req.SiteID,
		CheckIn:             dr.CheckIn,
		CheckOut:            dr.CheckOut,
		Nights:              len(lines),
		Guests:              req.Guests,
		DailyPrices:         lines,
		Subtotal:            subtotal,
		GuestSurchargeTotal: surchargeTotal,
		Discounts:           discounts,
		DiscountTotal:       discountTotal,
		FinalPrice:          final.ClampZero(),
	}, nil
}

func validateRequest(req Request, maxNights int) (daterange.DateRange, error) {
	dr, err := daterange.New(req.CheckIn, req.CheckOut)
	if err != nil {
		return daterange.DateRange{}, &InvalidDateRangeError{CheckIn: req.CheckIn, CheckOut: req.CheckOut}
	}
	if maxNights > 0 && dr.Nights() > maxNights {
		return daterange.DateRange{}, &InvalidDateRangeError{CheckIn: dr.CheckIn, CheckOut: dr.CheckOut, MaxNights: maxNights}
	}
	if req.Guests < 1 {
		return daterange.DateRange{}, &InvalidGuestCountError{Guests: req.Guests}
	}
	return dr, nil
}

// checkSnapshot rejects snapshots whose ids collide, since the id is the last
// tie-break of resolution.
func checkSnapshot(rules []PricingRule) error {
	seen := make(map[RuleID]struct{}, len(rules))
	for _, r := range rules {
		if _, dup := seen[r.ID]; dup {
			return &InvalidRuleError{RuleID: r.ID, Reason: "duplicate rule id in snapshot"}
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

func (e *Engine) loadRules(ctx context.Context, siteID SiteID) ([]PricingRule, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout())
	defer cancel()

	type result struct {
		rules []PricingRule
		err   error
	}
	done := make(chan result, 1)
	go func() {
		rules, err := e.Rules.ActiveRules(fetchCtx, siteID)
		done <- result{rules: rules, err: err}
	}()

	select {
	case <-fetchCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pricing: cancelled during %s: %w", StageLoadRules, err)
		}
		return nil, &RuleStoreUnavailableError{SiteID: siteID, Err: fetchCtx.Err()}
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, ErrInvalidRule) {
				return nil, res.err
			}
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("pricing: cancelled during %s: %w", StageLoadRules, err)
			}
			return nil, &RuleStoreUnavailableError{SiteID: siteID, Err: res.err}
		}
		// Detach from the store's backing array; the snapshot is used once.
		return slices.Clone(res.rules), nil
	}
}

func (e *Engine) fetchTimeout() time.Duration {
	if e.FetchTimeout <= 0 {
		return DefaultFetchTimeout
	}
	return e.FetchTimeout
}

func (e *Engine) maxNights() int {
	if e.MaxNights <= 0 {
		return DefaultMaxNights
	}
	return e.MaxNights
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

func (e *Engine) logFailure(stage Stage, req Request, err error) {
	if e.Logger == nil {
		return
	}
	attrs := []any{"stage", stage, "site_id", req.SiteID, "error", err}
	switch {
	case errors.Is(err, ErrInvalidRule):
		e.Logger.Error("pricing rule data fault", attrs...)
	case errors.Is(err, ErrRuleStoreUnavailable):
		e.Logger.Warn("rule snapshot fetch failed", attrs...)
	default:
		e.Logger.Debug("price calculation rejected", attrs...)
	}
}
