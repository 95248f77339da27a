package booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courtbook/internal/api"
	"courtbook/internal/identity"
	"courtbook/internal/ledger"
	"courtbook/internal/logger"
	"courtbook/internal/metrics"
	"courtbook/internal/notify"
	"courtbook/internal/slot"
)

type Handler struct {
	validator *Validator
	pricing   slot.Pricing
	notifier  *notify.Service
}

func NewHandler(validator *Validator, pricing slot.Pricing, notifier *notify.Service) *Handler {
	return &Handler{validator: validator, pricing: pricing, notifier: notifier}
}

type IntervalRequest struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

type AdminCancelRequest struct {
	Requester string    `json:"requester" binding:"required"`
	Start     time.Time `json:"start" binding:"required"`
	End       time.Time `json:"end" binding:"required"`
}

type BookResponse struct {
	Event *ledger.Event `json:"event"`
	Fee   int64         `json:"fee_cents"`
	State State         `json:"state"`
}

// Book godoc
// @Summary      Book a slot
// @Description  Validates the interval against the availability index, quotes the fee, and submits to the ledger.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      IntervalRequest  true  "Slot to book"
// @Success      201      {object}  BookResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      402      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      502      {object}  api.ErrorResponse
// @Router       /bookings [post]
func (h *Handler) Book(c *gin.Context) {
	h.book(c, KindResident)
}

// AdminBook godoc
// @Summary      Book a slot with the fee waived
// @Description  Privileged booking: the building collects the fee out of band.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      IntervalRequest  true  "Slot to book"
// @Success      201      {object}  BookResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/bookings [post]
func (h *Handler) AdminBook(c *gin.Context) {
	h.book(c, KindAdmin)
}

func (h *Handler) book(c *gin.Context, kind Kind) {
	address, ok := identity.GetAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Resident not authenticated"})
		return
	}

	var req IntervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.ValidationMessage(err)})
		return
	}

	draft := h.validator.Draft(kind, address, slot.Interval{Start: req.Start, End: req.End})
	if err := h.validator.Validate(draft, time.Now()); err != nil {
		metrics.RecordBooking(string(kind), "rejected")
		switch {
		case errors.Is(err, slot.ErrInvalidInterval):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "The start time cannot exceed the end time"})
		case errors.Is(err, ErrPastBooking):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Booking time must be in the future"})
		case errors.Is(err, ErrSlotConflict):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Slot is not available"})
		default:
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		}
		return
	}

	event, err := h.validator.Submit(c.Request.Context(), draft)
	if err != nil {
		metrics.RecordBooking(string(kind), "rejected")
		h.submitError(c, err)
		return
	}

	metrics.RecordBooking(string(kind), "confirmed")
	h.notifier.BookingConfirmed(c.Request.Context(), address, draft.Facility, draft.Interval, draft.Fee)

	c.JSON(http.StatusCreated, BookResponse{Event: event, Fee: draft.Fee, State: draft.State()})
}

// Quote godoc
// @Summary      Fee quote for an interval
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        start  query     string  true  "RFC3339 start"
// @Param        end    query     string  true  "RFC3339 end"
// @Success      200    {object}  api.FeeQuoteResponse
// @Failure      400    {object}  api.ErrorResponse
// @Router       /bookings/quote [get]
func (h *Handler) Quote(c *gin.Context) {
	start, err1 := time.Parse(time.RFC3339, c.Query("start"))
	end, err2 := time.Parse(time.RFC3339, c.Query("end"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "start and end must be RFC3339"})
		return
	}

	iv, err := slot.NewInterval(start, end)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "The start time cannot exceed the end time"})
		return
	}

	fee := h.pricing.Fee(iv)
	c.JSON(http.StatusOK, api.FeeQuoteResponse{FeeCents: fee, Slots: fee / h.pricing.FeePerSlot})
}

// Cancel godoc
// @Summary      Cancel a booking
// @Description  Cancels any booking of the caller overlapping the given interval; the fee becomes refundable.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      IntervalRequest  true  "Interval to cancel"
// @Success      200      {object}  api.MessageResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /bookings/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	address, ok := identity.GetAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Resident not authenticated"})
		return
	}

	var req IntervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.ValidationMessage(err)})
		return
	}

	h.cancel(c, address, slot.Interval{Start: req.Start, End: req.End})
}

// AdminCancel godoc
// @Summary      Cancel any resident's booking
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      AdminCancelRequest  true  "Booking to cancel"
// @Success      200      {object}  api.MessageResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/bookings/cancel [post]
func (h *Handler) AdminCancel(c *gin.Context) {
	var req AdminCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.ValidationMessage(err)})
		return
	}

	h.cancel(c, req.Requester, slot.Interval{Start: req.Start, End: req.End})
}

func (h *Handler) cancel(c *gin.Context, requester string, iv slot.Interval) {
	_, err := h.validator.Cancel(c.Request.Context(), requester, iv)
	if err != nil {
		if errors.Is(err, slot.ErrInvalidInterval) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "The start time cannot exceed the end time"})
			return
		}
		h.submitError(c, err)
		return
	}

	metrics.RecordCancellation()
	h.notifier.BookingCancelled(c.Request.Context(), requester, h.validator.facility, iv)

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Booking cancelled successfully"})
}

func (h *Handler) submitError(c *gin.Context, err error) {
	if errors.Is(err, ledger.ErrFeeMismatch) {
		// Configuration drift between the index and the ledger; a
		// defect, not a user error.
		logger.Errorf("fee mismatch against ledger: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Fee computation mismatch"})
		return
	}

	if se, ok := ledger.AsSubmissionError(err); ok {
		switch se.Reason {
		case ledger.ReasonInsufficientFunds:
			c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: "Insufficient funds"})
		case ledger.ReasonSlotTaken:
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Slot was taken by a concurrent booking"})
		case ledger.ReasonBookingNotFound:
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "No booking found for that interval"})
		default:
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Ledger unavailable"})
		}
		return
	}

	logger.Errorf("submission failed: %v", err)
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Submission failed"})
}
