package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"campstation/internal/app/commands"
	pricingapp "campstation/internal/app/handlers/pricing"
	"campstation/internal/app/middleware"
	"campstation/internal/app/queries"
	domainpricing "campstation/internal/domain/pricing"
	"campstation/internal/domain/shared/daterange"
)

// Stable error codes returned in the "error" field of failed responses.
const (
	CodeInvalidRequest       = "invalid_request"
	CodeInvalidDateRange     = "invalid_date_range"
	CodeInvalidGuestCount    = "invalid_guest_count"
	CodeDatesNotAvailable    = "dates_not_available"
	CodeGuestCountExceeded   = "guest_count_exceeded"
	CodePricingUnavailable   = "pricing_unavailable"
	CodeRuleStoreUnavailable = "rule_store_unavailable"
	CodePriceMismatch        = "price_mismatch"
	CodeIdempotencyConflict  = "idempotency_conflict"
)

type errorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func classify(err error) (int, errorResponse) {
	var (
		badRange *domainpricing.InvalidDateRangeError
		noRule   *domainpricing.NoApplicableRuleError
		exceeded *domainpricing.GuestCountExceededError
		mismatch *pricingapp.PriceMismatchError
	)
	switch {
	case errors.As(err, &badRange) && badRange.MaxNights > 0:
		return http.StatusBadRequest, errorResponse{
			Error:   CodeInvalidDateRange,
			Message: "stay is longer than the bookable maximum",
			Details: map[string]any{"maxNights": badRange.MaxNights},
		}
	case errors.Is(err, domainpricing.ErrInvalidDateRange):
		return http.StatusBadRequest, errorResponse{Error: CodeInvalidDateRange, Message: "check-out must be after check-in"}
	case errors.Is(err, domainpricing.ErrInvalidGuestCount):
		return http.StatusBadRequest, errorResponse{Error: CodeInvalidGuestCount, Message: "at least one guest is required"}
	case errors.As(err, &noRule):
		return http.StatusConflict, errorResponse{
			Error:   CodeDatesNotAvailable,
			Message: "the site cannot be booked on the requested dates",
			Details: map[string]any{"date": daterange.Format(noRule.Date)},
		}
	case errors.As(err, &exceeded):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   CodeGuestCountExceeded,
			Message: "too many guests for the requested dates",
			Details: map[string]any{"date": daterange.Format(exceeded.Date), "maxGuests": exceeded.MaxGuests},
		}
	case errors.As(err, &mismatch):
		return http.StatusConflict, errorResponse{
			Error:   CodePriceMismatch,
			Message: "the price changed since it was quoted",
			Details: map[string]any{"expectedTotal": mismatch.Expected, "finalPrice": mismatch.Actual},
		}
	case errors.Is(err, domainpricing.ErrRuleStoreUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: CodeRuleStoreUnavailable, Message: "pricing rules are temporarily unavailable"}
	case errors.Is(err, middleware.ErrIdempotencyKeyReused):
		return http.StatusConflict, errorResponse{Error: CodeIdempotencyConflict, Message: "idempotency key was used for a different request"}
	case errors.Is(err, pricingapp.ErrSiteRequired),
		errors.Is(err, pricingapp.ErrReservationRequired),
		errors.Is(err, commands.ErrInvalidCommand),
		errors.Is(err, queries.ErrInvalidQuery):
		return http.StatusBadRequest, errorResponse{Error: CodeInvalidRequest, Message: err.Error()}
	}
	return http.StatusInternalServerError, errorResponse{Error: CodePricingUnavailable, Message: "price could not be calculated"}
}

// respondError writes the mapped error. Raw text of internal failures is only
// logged, never returned.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("pricing request failed",
			"path", c.FullPath(),
			"request_id", c.GetString("request_id"),
			"error", err,
		)
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: CodeInvalidRequest, Message: message})
}
