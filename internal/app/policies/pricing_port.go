package policies

import (
	"context"

	domainpricing "campstation/internal/domain/pricing"
)

// PricingPort is the engine as seen by application handlers. *pricing.Engine
// satisfies it.
type PricingPort interface {
	Calculate(ctx context.Context, req domainpricing.Request) (domainpricing.PriceBreakdown, error)
}

var _ PricingPort = (*domainpricing.Engine)(nil)
