package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	domainpricing "campstation/internal/domain/pricing"
)

// ruleFixture mirrors the rule store's JSON export. Rates are percents.
type ruleFixture struct {
	ID                         int64                      `json:"id"`
	SiteID                     int64                      `json:"siteId"`
	PricingName                string                     `json:"pricingName"`
	Description                string                     `json:"description"`
	RuleType                   string                     `json:"ruleType"`
	BasePrice                  int64                      `json:"basePrice"`
	WeekendPrice               *int64                     `json:"weekendPrice"`
	DayMultipliers             map[string]decimal.Decimal `json:"dayMultipliers"`
	BaseGuests                 int                        `json:"baseGuests"`
	MaxGuests                  int                        `json:"maxGuests"`
	ExtraGuestFee              *int64                     `json:"extraGuestFee"`
	SeasonType                 string                     `json:"seasonType"`
	StartMonth                 int                        `json:"startMonth"`
	StartDay                   int                        `json:"startDay"`
	EndMonth                   int                        `json:"endMonth"`
	EndDay                     int                        `json:"endDay"`
	LongStayDiscountRate       decimal.Decimal            `json:"longStayDiscountRate"`
	LongStayDiscountNights     int                        `json:"longStayDiscountNights"`
	ExtendedStayDiscountRate   decimal.Decimal            `json:"extendedStayDiscountRate"`
	ExtendedStayDiscountNights int                        `json:"extendedStayDiscountNights"`
	EarlyBirdDiscountRate      decimal.Decimal            `json:"earlyBirdDiscountRate"`
	EarlyBirdDiscountDays      int                        `json:"earlyBirdDiscountDays"`
	Priority                   int                        `json:"priority"`
	IsActive                   *bool                      `json:"isActive"`
}

func (f ruleFixture) params(currency string) domainpricing.RuleParams {
	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}
	return domainpricing.RuleParams{
		ID:                 f.ID,
		SiteID:             f.SiteID,
		Name:               f.PricingName,
		Description:        f.Description,
		Type:               f.RuleType,
		Currency:           currency,
		BasePrice:          f.BasePrice,
		WeekendPrice:       f.WeekendPrice,
		DayMultipliers:     f.DayMultipliers,
		BaseGuests:         f.BaseGuests,
		MaxGuests:          f.MaxGuests,
		ExtraGuestFee:      f.ExtraGuestFee,
		Season:             f.SeasonType,
		StartMonth:         f.StartMonth,
		StartDay:           f.StartDay,
		EndMonth:           f.EndMonth,
		EndDay:             f.EndDay,
		LongStayRate:       f.LongStayDiscountRate,
		LongStayNights:     f.LongStayDiscountNights,
		ExtendedStayRate:   f.ExtendedStayDiscountRate,
		ExtendedStayNights: f.ExtendedStayDiscountNights,
		EarlyBirdRate:      f.EarlyBirdDiscountRate,
		EarlyBirdDays:      f.EarlyBirdDiscountDays,
		Priority:           f.Priority,
		Active:             active,
	}
}

// LoadFixtures decodes a JSON array of rules and stores each one. All rules are
// validated before any is stored.
func (r *RuleRepository) LoadFixtures(src io.Reader, currency string) (int, error) {
	var fixtures []ruleFixture
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fixtures); err != nil {
		return 0, fmt.Errorf("memory: decode rule fixtures: %w", err)
	}
	rules := make([]domainpricing.PricingRule, 0, len(fixtures))
	var errs []error
	for i, f := range fixtures {
		rule, err := domainpricing.NewRule(f.params(currency))
		if err != nil {
			errs = append(errs, fmt.Errorf("fixture %d: %w", i, err))
			continue
		}
		rules = append(rules, rule)
	}
	if len(errs) > 0 {
		return 0, errors.Join(errs...)
	}
	for _, rule := range rules {
		if err := r.Put(rule); err != nil {
			return 0, err
		}
	}
	return len(rules), nil
}

// LoadFixtureFile is LoadFixtures over a file path.
func (r *RuleRepository) LoadFixtureFile(path, currency string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.LoadFixtures(f, currency)
}
