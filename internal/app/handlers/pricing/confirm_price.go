package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campstation/internal/app/commands"
	"campstation/internal/app/dto"
	"campstation/internal/app/middleware"
	"campstation/internal/app/outbox"
	"campstation/internal/app/policies"
	"campstation/internal/domain/shared/daterange"
	"campstation/internal/domain/shared/events"
)

const ConfirmPriceKey = "pricing.confirm"

var (
	ErrReservationRequired = errors.New("pricing: reservation id required")
	ErrPriceMismatch       = errors.New("pricing: price changed since quote")
	ErrBreakdownCorrupt    = errors.New("pricing: breakdown failed verification")
)

// PriceMismatchError reports that the total shown to the guest no longer
// matches the server-side price.
type PriceMismatchError struct {
	ReservationID string
	Expected      int64
	Actual        int64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("%s (reservation %s: expected %d, actual %d)", ErrPriceMismatch, e.ReservationID, e.Expected, e.Actual)
}

func (e *PriceMismatchError) Is(target error) bool { return target == ErrPriceMismatch }

// ConfirmReservationPriceCommand is sent by the reservation service when a
// booking is confirmed. ExpectedTotal is the total the guest saw, if known.
type ConfirmReservationPriceCommand struct {
	ReservationID   string
	SiteID          int64
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	BookingDate     time.Time
	ExpectedTotal   *int64
	IdempotencyKeyV string
}

func (c ConfirmReservationPriceCommand) Key() string { return ConfirmPriceKey }

func (c ConfirmReservationPriceCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ConfirmReservationPriceCommand) ResultPrototype() any { return &dto.PriceConfirmation{} }

func (c ConfirmReservationPriceCommand) Fingerprint() string {
	parts := []string{
		c.ReservationID,
		fmt.Sprint(c.SiteID),
		daterange.Format(c.CheckIn),
		daterange.Format(c.CheckOut),
		fmt.Sprint(c.Guests),
	}
	if !c.BookingDate.IsZero() {
		parts = append(parts, daterange.Format(c.BookingDate))
	}
	if c.ExpectedTotal != nil {
		parts = append(parts, fmt.Sprint(*c.ExpectedTotal))
	}
	return strings.Join(parts, "|")
}

func (c ConfirmReservationPriceCommand) Validate() error {
	if strings.TrimSpace(c.ReservationID) == "" {
		return ErrReservationRequired
	}
	if c.SiteID <= 0 {
		return ErrSiteRequired
	}
	return nil
}

type ConfirmReservationPriceHandler struct {
	Pricing policies.PricingPort
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   func() time.Time
}

func (h *ConfirmReservationPriceHandler) Handle(ctx context.Context, cmd ConfirmReservationPriceCommand) (*dto.PriceConfirmation, error) {
	if h.Pricing == nil {
		return nil, ErrPricingRequired
	}
	q := CalculatePriceQuery{
		SiteID:      cmd.SiteID,
		CheckIn:     cmd.CheckIn,
		CheckOut:    cmd.CheckOut,
		Guests:      cmd.Guests,
		BookingDate: cmd.BookingDate,
	}
	breakdown, err := h.Pricing.Calculate(ctx, q.request())
	if err != nil {
		return nil, err
	}
	if err := breakdown.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBreakdownCorrupt, err)
	}
	if cmd.ExpectedTotal != nil && *cmd.ExpectedTotal != breakdown.FinalPrice.Amount {
		return nil, &PriceMismatchError{
			ReservationID: cmd.ReservationID,
			Expected:      *cmd.ExpectedTotal,
			Actual:        breakdown.FinalPrice.Amount,
		}
	}

	wire := dto.MapPriceBreakdown(breakdown)
	var rec events.Recorder
	rec.Record(NewPriceConfirmed(cmd.ReservationID, wire, h.now()))
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), rec.Drain()); err != nil {
		return nil, err
	}

	return &dto.PriceConfirmation{
		ReservationID: cmd.ReservationID,
		FinalPrice:    wire.FinalPrice,
		Currency:      wire.Currency,
		Breakdown:     wire,
	}, nil
}

func (h *ConfirmReservationPriceHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ConfirmReservationPriceHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ConfirmReservationPriceCommand, *dto.PriceConfirmation] = (*ConfirmReservationPriceHandler)(nil)
var _ middleware.IdempotentCommand = ConfirmReservationPriceCommand{}
var _ middleware.Fingerprinted = ConfirmReservationPriceCommand{}
