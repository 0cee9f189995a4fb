package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	domainpricing "campstation/internal/domain/pricing"
)

// RuleRepository is an in-memory rule store for local runs and tests.
type RuleRepository struct {
	mu    sync.RWMutex
	items map[domainpricing.SiteID]map[domainpricing.RuleID]domainpricing.PricingRule
}

func NewRuleRepository() *RuleRepository {
	return &RuleRepository{items: make(map[domainpricing.SiteID]map[domainpricing.RuleID]domainpricing.PricingRule)}
}

// Put validates and stores a rule, replacing one with the same id.
func (r *RuleRepository) Put(rule domainpricing.PricingRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for site, rules := range r.items {
		if prev, ok := rules[rule.ID]; ok && site != rule.SiteID {
			return fmt.Errorf("memory: rule %d already belongs to site %d", prev.ID, site)
		}
	}
	site, ok := r.items[rule.SiteID]
	if !ok {
		site = make(map[domainpricing.RuleID]domainpricing.PricingRule)
		r.items[rule.SiteID] = site
	}
	site[rule.ID] = cloneRule(rule)
	return nil
}

// ActiveRules returns deep copies of the site's active rules ordered by id.
func (r *RuleRepository) ActiveRules(ctx context.Context, siteID domainpricing.SiteID) ([]domainpricing.PricingRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainpricing.PricingRule, 0, len(r.items[siteID]))
	for _, rule := range r.items[siteID] {
		if rule.Active {
			out = append(out, cloneRule(rule))
		}
	}
	slices.SortFunc(out, func(a, b domainpricing.PricingRule) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Len counts stored rules across all sites.
func (r *RuleRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rules := range r.items {
		n += len(rules)
	}
	return n
}

func (r *RuleRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func cloneRule(in domainpricing.PricingRule) domainpricing.PricingRule {
	out := in
	if in.WeekendPrice != nil {
		v := *in.WeekendPrice
		out.WeekendPrice = &v
	}
	if in.ExtraGuestFee != nil {
		v := *in.ExtraGuestFee
		out.ExtraGuestFee = &v
	}
	if in.Window != nil {
		w := *in.Window
		out.Window = &w
	}
	out.DayMultipliers = maps.Clone(in.DayMultipliers)
	return out
}

var _ domainpricing.RuleRepository = (*RuleRepository)(nil)
