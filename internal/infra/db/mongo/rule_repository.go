package mongo

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "campstation/internal/domain/pricing"
)

// RuleRepository reads rule snapshots from the site_pricing_rules collection,
// which the rule management service owns.
type RuleRepository struct {
	col      *mongo.Collection
	currency string
}

func NewRuleRepository(ctx context.Context, db *mongo.Database, currency string) (*RuleRepository, error) {
	col := db.Collection("site_pricing_rules")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "site_id", Value: 1}, {Key: "is_active", Value: 1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &RuleRepository{col: col, currency: currency}, nil
}

type ruleDocument struct {
	ID            int64          `bson:"_id"`
	SiteID        int64          `bson:"site_id"`
	PricingName   string         `bson:"pricing_name"`
	Description   string         `bson:"description"`
	RuleType      string         `bson:"rule_type"`
	BasePrice     int64          `bson:"base_price"`
	WeekendPrice  *int64         `bson:"weekend_price"`
	DayMultiplier map[string]any `bson:"day_multipliers"`
	BaseGuests    int            `bson:"base_guests"`
	MaxGuests     int            `bson:"max_guests"`
	ExtraGuestFee *int64         `bson:"extra_guest_fee"`
	SeasonType    string         `bson:"season_type"`
	StartMonth    int            `bson:"start_month"`
	StartDay      int            `bson:"start_day"`
	EndMonth      int            `bson:"end_month"`
	EndDay        int            `bson:"end_day"`
	LongStayRate  any            `bson:"long_stay_discount_rate"`
	LongStay      int            `bson:"long_stay_discount_nights"`
	ExtendedRate  any            `bson:"extended_stay_discount_rate"`
	Extended      int            `bson:"extended_stay_discount_nights"`
	EarlyBirdRate any            `bson:"early_bird_discount_rate"`
	EarlyBird     int            `bson:"early_bird_discount_days"`
	Priority      int            `bson:"priority"`
	IsActive      bool           `bson:"is_active"`
}

// ActiveRules loads every active rule of the site in one query. A malformed
// document fails the whole snapshot.
func (r *RuleRepository) ActiveRules(ctx context.Context, siteID domainpricing.SiteID) ([]domainpricing.PricingRule, error) {
	filter := bson.M{"site_id": int64(siteID), "is_active": true}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []ruleDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	rules := make([]domainpricing.PricingRule, 0, len(docs))
	for _, doc := range docs {
		rule, err := doc.toRule(r.currency)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r *RuleRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

func (d ruleDocument) toRule(currency string) (domainpricing.PricingRule, error) {
	invalid := func(err error) error {
		return &domainpricing.InvalidRuleError{RuleID: domainpricing.RuleID(d.ID), Reason: err.Error()}
	}
	multipliers := make(map[string]decimal.Decimal, len(d.DayMultiplier))
	for day, raw := range d.DayMultiplier {
		v, err := decimalFrom(raw)
		if err != nil {
			return domainpricing.PricingRule{}, invalid(fmt.Errorf("multiplier %s: %w", day, err))
		}
		multipliers[day] = v
	}
	rates := make([]decimal.Decimal, 3)
	for i, raw := range []any{d.LongStayRate, d.ExtendedRate, d.EarlyBirdRate} {
		v, err := decimalFrom(raw)
		if err != nil {
			return domainpricing.PricingRule{}, invalid(fmt.Errorf("discount rate: %w", err))
		}
		rates[i] = v
	}
	return domainpricing.NewRule(domainpricing.RuleParams{
		ID:                 d.ID,
		SiteID:             d.SiteID,
		Name:               d.PricingName,
		Description:        d.Description,
		Type:               d.RuleType,
		Currency:           currency,
		BasePrice:          d.BasePrice,
		WeekendPrice:       d.WeekendPrice,
		DayMultipliers:     multipliers,
		BaseGuests:         d.BaseGuests,
		MaxGuests:          d.MaxGuests,
		ExtraGuestFee:      d.ExtraGuestFee,
		Season:             d.SeasonType,
		StartMonth:         d.StartMonth,
		StartDay:           d.StartDay,
		EndMonth:           d.EndMonth,
		EndDay:             d.EndDay,
		LongStayRate:       rates[0],
		LongStayNights:     d.LongStay,
		ExtendedStayRate:   rates[1],
		ExtendedStayNights: d.Extended,
		EarlyBirdRate:      rates[2],
		EarlyBirdDays:      d.EarlyBird,
		Priority:           d.Priority,
		Active:             d.IsActive,
	})
}

// decimalFrom accepts the numeric shapes the driver produces for a field
// written as Decimal128, double, int or string. A missing value is zero.
func decimalFrom(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, nil
	case primitive.Decimal128:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		return decimal.NewFromString(v)
	default:
		return decimal.Zero, fmt.Errorf("unsupported numeric type %T", raw)
	}
}

var _ domainpricing.RuleRepository = (*RuleRepository)(nil)
