package dto

import (
	"encoding/json"

	domainpricing "campstation/internal/domain/pricing"
	"campstation/internal/domain/shared/daterange"
)

type DailyPrice struct {
	Date           string `json:"date"`
	WinningRuleID  int64  `json:"winningRuleId"`
	RuleName       string `json:"ruleName"`
	Weekend        bool   `json:"weekend"`
	NightlyBase    int64  `json:"nightlyBase"`
	GuestSurcharge int64  `json:"guestSurcharge"`
}

type Discount struct {
	Kind   string      `json:"kind"`
	Label  string      `json:"label"`
	Rate   json.Number `json:"rate"`
	Amount int64       `json:"amount"`
}

// PriceBreakdown is the wire form of a breakdown. Amounts are whole currency
// units; dates are YYYY-MM-DD.
type PriceBreakdown struct {
	SiteID              int64        `json:"siteId"`
	CheckIn             string       `json:"checkIn"`
	CheckOut            string       `json:"checkOut"`
	Nights              int          `json:"nights"`
	Guests              int          `json:"guests"`
	Currency            string       `json:"currency"`
	DailyPrices         []DailyPrice `json:"dailyPrices"`
	Subtotal            int64        `json:"subtotal"`
	GuestSurchargeTotal int64        `json:"guestSurchargeTotal"`
	Discounts           []Discount   `json:"discounts"`
	DiscountTotal       int64        `json:"discountTotal"`
	FinalPrice          int64        `json:"finalPrice"`
}

type PriceConfirmation struct {
	ReservationID string         `json:"reservationId"`
	FinalPrice    int64          `json:"finalPrice"`
	Currency      string         `json:"currency"`
	Breakdown     PriceBreakdown `json:"breakdown"`
}

func MapPriceBreakdown(b domainpricing.PriceBreakdown) PriceBreakdown {
	out := PriceBreakdown{
		SiteID:              int64(b.SiteID),
		CheckIn:             daterange.Format(b.CheckIn),
		CheckOut:            daterange.Format(b.CheckOut),
		Nights:              b.Nights,
		Guests:              b.Guests,
		Currency:            b.FinalPrice.Currency,
		DailyPrices:         make([]DailyPrice, 0, len(b.DailyPrices)),
		Subtotal:            b.Subtotal.Amount,
		GuestSurchargeTotal: b.GuestSurchargeTotal.Amount,
		Discounts:           make([]Discount, 0, len(b.Discounts)),
		DiscountTotal:       b.DiscountTotal.Amount,
		FinalPrice:          b.FinalPrice.Amount,
	}
	for _, line := range b.DailyPrices {
		out.DailyPrices = append(out.DailyPrices, DailyPrice{
			Date:           daterange.Format(line.Date),
			WinningRuleID:  int64(line.RuleID),
			RuleName:       line.RuleName,
			Weekend:        line.Weekend,
			NightlyBase:    line.NightlyBase.Amount,
			GuestSurcharge: line.GuestSurcharge.Amount,
		})
	}
	for _, d := range b.Discounts {
		rate := json.Number("0")
		if d.Rate.Valid {
			rate = json.Number(d.Rate.Decimal.String())
		}
		out.Discounts = append(out.Discounts, Discount{
			Kind:   string(d.Kind),
			Label:  d.Label,
			Rate:   rate,
			Amount: d.Amount.Amount,
		})
	}
	return out
}
