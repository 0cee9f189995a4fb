package pricing

import (
	"cmp"
	"slices"
	"time"
)

// Resolve picks the single rule that governs date. Candidates are the active
// rules whose window covers the date; among them the most specific type wins,
// then the higher priority, then the lower id. The order is total, so the
// input order never matters.
func Resolve(rules []PricingRule, date time.Time) (PricingRule, error) {
	candidates := Candidates(rules, date)
	if len(candidates) == 0 {
		return PricingRule{}, &NoApplicableRuleError{Date: date}
	}
	return candidates[0], nil
}

// Candidates returns the rules applicable on date, best first.
func Candidates(rules []PricingRule, date time.Time) []PricingRule {
	var out []PricingRule
	for _, r := range rules {
		if r.AppliesOn(date) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, compareRules)
	return out
}

// compareRules sorts winners first.
func compareRules(a, b PricingRule) int {
	if c := cmp.Compare(b.Type.specificity(), a.Type.specificity()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
