package pricing

import (
	"context"
	"errors"
	"time"

	"campstation/internal/app/dto"
	"campstation/internal/app/policies"
	"campstation/internal/app/queries"
	domainpricing "campstation/internal/domain/pricing"
)

const CalculatePriceKey = "pricing.calculate"

var (
	ErrSiteRequired    = errors.New("pricing: site id required")
	ErrPricingRequired = errors.New("pricing: pricing port required")
)

// CalculatePriceQuery is a price preview. A zero BookingDate means today.
type CalculatePriceQuery struct {
	SiteID      int64
	CheckIn     time.Time
	CheckOut    time.Time
	Guests      int
	BookingDate time.Time
}

func (q CalculatePriceQuery) Key() string { return CalculatePriceKey }

func (q CalculatePriceQuery) Validate() error {
	if q.SiteID <= 0 {
		return ErrSiteRequired
	}
	return nil
}

func (q CalculatePriceQuery) request() domainpricing.Request {
	return domainpricing.Request{
		SiteID:      domainpricing.SiteID(q.SiteID),
		CheckIn:     q.CheckIn,
		CheckOut:    q.CheckOut,
		Guests:      q.Guests,
		BookingDate: q.BookingDate,
	}
}

type CalculatePriceHandler struct {
	Pricing policies.PricingPort
}

func (h *CalculatePriceHandler) Handle(ctx context.Context, q CalculatePriceQuery) (dto.PriceBreakdown, error) {
	if h.Pricing == nil {
		return dto.PriceBreakdown{}, ErrPricingRequired
	}
	breakdown, err := h.Pricing.Calculate(ctx, q.request())
	if err != nil {
		return dto.PriceBreakdown{}, err
	}
	return dto.MapPriceBreakdown(breakdown), nil
}

var _ queries.Handler[CalculatePriceQuery, dto.PriceBreakdown] = (*CalculatePriceHandler)(nil)
