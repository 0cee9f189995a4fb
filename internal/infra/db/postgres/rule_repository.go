package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainpricing "campstation/internal/domain/pricing"
)

// Numeric columns are selected as text so decimal parses them exactly.
const activeRulesQuery = `
SELECT id, site_id, coalesce(pricing_name, ''), coalesce(description, ''), rule_type,
       base_price, weekend_price, coalesce(day_multipliers::text, ''),
       coalesce(base_guests, 0), coalesce(max_guests, 0), extra_guest_fee,
       coalesce(season_type, ''),
       coalesce(start_month, 0), coalesce(start_day, 0), coalesce(end_month, 0), coalesce(end_day, 0),
       coalesce(long_stay_discount_rate, 0)::text, coalesce(long_stay_discount_nights, 0),
       coalesce(extended_stay_discount_rate, 0)::text, coalesce(extended_stay_discount_nights, 0),
       coalesce(early_bird_discount_rate, 0)::text, coalesce(early_bird_discount_days, 0),
       coalesce(priority, 0), is_active
FROM site_pricing
WHERE site_id = $1 AND is_active
ORDER BY id`

// RuleRepository reads rule snapshots from the site_pricing table. The query
// runs in a single statement, so the snapshot is consistent.
type RuleRepository struct {
	db       *pgxpool.Pool
	currency string
}

func NewRuleRepository(db *pgxpool.Pool, currency string) *RuleRepository {
	return &RuleRepository{db: db, currency: currency}
}

func (r *RuleRepository) ActiveRules(ctx context.Context, siteID domainpricing.SiteID) ([]domainpricing.PricingRule, error) {
	rows, err := r.db.Query(ctx, activeRulesQuery, int64(siteID))
	if err != nil {
		return nil, fmt.Errorf("postgres: query rules: %w", err)
	}
	rules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domainpricing.PricingRule, error) {
		var rec ruleRow
		if err := row.Scan(
			&rec.ID, &rec.SiteID, &rec.Name, &rec.Description, &rec.Type,
			&rec.BasePrice, &rec.WeekendPrice, &rec.DayMultipliers,
			&rec.BaseGuests, &rec.MaxGuests, &rec.ExtraGuestFee,
			&rec.Season,
			&rec.StartMonth, &rec.StartDay, &rec.EndMonth, &rec.EndDay,
			&rec.LongStayRate, &rec.LongStayNights,
			&rec.ExtendedStayRate, &rec.ExtendedStayNights,
			&rec.EarlyBirdRate, &rec.EarlyBirdDays,
			&rec.Priority, &rec.Active,
		); err != nil {
			return domainpricing.PricingRule{}, err
		}
		return rec.toRule(r.currency)
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RuleRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

type ruleRow struct {
	ID                 int64
	SiteID             int64
	Name               string
	Description        string
	Type               string
	BasePrice          int64
	WeekendPrice       *int64
	DayMultipliers     string
	BaseGuests         int
	MaxGuests          int
	ExtraGuestFee      *int64
	Season             string
	StartMonth         int
	StartDay           int
	EndMonth           int
	EndDay             int
	LongStayRate       string
	LongStayNights     int
	ExtendedStayRate   string
	ExtendedStayNights int
	EarlyBirdRate      string
	EarlyBirdDays      int
	Priority           int
	Active             bool
}

func (rec ruleRow) toRule(currency string) (domainpricing.PricingRule, error) {
	invalid := func(format string, args ...any) error {
		return &domainpricing.InvalidRuleError{RuleID: domainpricing.RuleID(rec.ID), Reason: fmt.Sprintf(format, args...)}
	}
	var multipliers map[string]decimal.Decimal
	if rec.DayMultipliers != "" {
		if err := json.Unmarshal([]byte(rec.DayMultipliers), &multipliers); err != nil {
			return domainpricing.PricingRule{}, invalid("day_multipliers: %v", err)
		}
	}
	var rates [3]decimal.Decimal
	for i, raw := range []string{rec.LongStayRate, rec.ExtendedStayRate, rec.EarlyBirdRate} {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return domainpricing.PricingRule{}, invalid("discount rate %q: %v", raw, err)
		}
		rates[i] = v
	}
	return domainpricing.NewRule(domainpricing.RuleParams{
		ID:                 rec.ID,
		SiteID:             rec.SiteID,
		Name:               rec.Name,
		Description:        rec.Description,
		Type:               rec.Type,
		Currency:           currency,
		BasePrice:          rec.BasePrice,
		WeekendPrice:       rec.WeekendPrice,
		DayMultipliers:     multipliers,
		BaseGuests:         rec.BaseGuests,
		MaxGuests:          rec.MaxGuests,
		ExtraGuestFee:      rec.ExtraGuestFee,
		Season:             rec.Season,
		StartMonth:         rec.StartMonth,
		StartDay:           rec.StartDay,
		EndMonth:           rec.EndMonth,
		EndDay:             rec.EndDay,
		LongStayRate:       rates[0],
		LongStayNights:     rec.LongStayNights,
		ExtendedStayRate:   rates[1],
		ExtendedStayNights: rec.ExtendedStayNights,
		EarlyBirdRate:      rates[2],
		EarlyBirdDays:      rec.EarlyBirdDays,
		Priority:           rec.Priority,
		Active:             rec.Active,
	})
}

var _ domainpricing.RuleRepository = (*RuleRepository)(nil)
