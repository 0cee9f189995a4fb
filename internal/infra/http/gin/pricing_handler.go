package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"campstation/internal/app/commands"
	"campstation/internal/app/dto"
	pricingapp "campstation/internal/app/handlers/pricing"
	"campstation/internal/app/queries"
	"campstation/internal/domain/shared/daterange"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type PricingHandler struct {
	Queries  queries.Bus
	Commands commands.Bus
	Logger   *slog.Logger
}

// Quote handles GET /sites/:siteId/price?checkIn=&checkOut=&guests=&bookingDate=.
func (h PricingHandler) Quote(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	siteID, err := strconv.ParseInt(c.Param("siteId"), 10, 64)
	if err != nil || siteID <= 0 {
		badRequest(c, "siteId must be a positive integer")
		return
	}
	checkIn, checkOut, ok := parseStay(c, c.Query("checkIn"), c.Query("checkOut"))
	if !ok {
		return
	}
	guests, err := strconv.Atoi(strings.TrimSpace(c.Query("guests")))
	if err != nil {
		badRequest(c, "guests must be an integer")
		return
	}
	bookingDate, ok := parseOptionalDate(c, "bookingDate", c.Query("bookingDate"))
	if !ok {
		return
	}

	query := pricingapp.CalculatePriceQuery{
		SiteID:      siteID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Guests:      guests,
		BookingDate: bookingDate,
	}
	result, err := queries.Ask[pricingapp.CalculatePriceQuery, dto.PriceBreakdown](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type priceConfirmationRequest struct {
	ReservationID string `json:"reservationId"`
	SiteID        int64  `json:"siteId"`
	CheckIn       string `json:"checkIn"`
	CheckOut      string `json:"checkOut"`
	Guests        int    `json:"guests"`
	BookingDate   string `json:"bookingDate"`
	ExpectedTotal *int64 `json:"expectedTotal"`
}

// Confirm handles POST /reservations/price-confirmations. Retries carrying the
// same Idempotency-Key get the first confirmation back.
func (h PricingHandler) Confirm(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req priceConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	checkIn, checkOut, ok := parseStay(c, req.CheckIn, req.CheckOut)
	if !ok {
		return
	}
	bookingDate, ok := parseOptionalDate(c, "bookingDate", req.BookingDate)
	if !ok {
		return
	}

	cmd := pricingapp.ConfirmReservationPriceCommand{
		ReservationID:   strings.TrimSpace(req.ReservationID),
		SiteID:          req.SiteID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		BookingDate:     bookingDate,
		ExpectedTotal:   req.ExpectedTotal,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	}
	result, err := commands.Dispatch[pricingapp.ConfirmReservationPriceCommand, *dto.PriceConfirmation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseStay(c *gin.Context, rawIn, rawOut string) (time.Time, time.Time, bool) {
	checkIn, err := daterange.ParseDate(rawIn)
	if err != nil {
		badRequest(c, "checkIn must be a YYYY-MM-DD date")
		return time.Time{}, time.Time{}, false
	}
	checkOut, err := daterange.ParseDate(rawOut)
	if err != nil {
		badRequest(c, "checkOut must be a YYYY-MM-DD date")
		return time.Time{}, time.Time{}, false
	}
	return checkIn, checkOut, true
}

func parseOptionalDate(c *gin.Context, field, raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, true
	}
	t, err := daterange.ParseDate(raw)
	if err != nil {
		badRequest(c, field+" must be a YYYY-MM-DD date")
		return time.Time{}, false
	}
	return t, true
}

var _ PricingHTTP = PricingHandler{}
