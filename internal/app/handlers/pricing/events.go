package pricing

import (
	"time"

	"campstation/internal/app/dto"
	"campstation/internal/domain/shared/events"
)

const EventPriceConfirmed = "pricing.price_confirmed"

// PriceConfirmed is the audit record of a server-side price used for a
// reservation. The reservation id is the aggregate.
type PriceConfirmed struct {
	events.Envelope
	ReservationID string             `json:"reservationId"`
	SiteID        int64              `json:"siteId"`
	FinalPrice    int64              `json:"finalPrice"`
	Currency      string             `json:"currency"`
	Breakdown     dto.PriceBreakdown `json:"breakdown"`
}

func NewPriceConfirmed(reservationID string, breakdown dto.PriceBreakdown, at time.Time) PriceConfirmed {
	return PriceConfirmed{
		Envelope:      events.NewEnvelope(EventPriceConfirmed, reservationID, at),
		ReservationID: reservationID,
		SiteID:        breakdown.SiteID,
		FinalPrice:    breakdown.FinalPrice,
		Currency:      breakdown.Currency,
		Breakdown:     breakdown,
	}
}
