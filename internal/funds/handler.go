package funds

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courtbook/internal/api"
	"courtbook/internal/identity"
	"courtbook/internal/ledger"
)

// Handler exposes the resident's spendable funds held by the ledger.
// Fees are debited from this balance on booking; refunds flow back into
// it when issued.
type Handler struct {
	backend ledger.Backend
}

func NewHandler(backend ledger.Backend) *Handler {
	return &Handler{backend: backend}
}

type TopUpRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

// Balance godoc
// @Summary      Spendable balance
// @Tags         funds
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.BalanceResponse
// @Failure      401  {object}  api.ErrorResponse
// @Router       /funds [get]
func (h *Handler) Balance(c *gin.Context) {
	address, ok := identity.GetAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Resident not authenticated"})
		return
	}

	balance, err := h.backend.FundsBalance(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load balance"})
		return
	}

	c.JSON(http.StatusOK, api.BalanceResponse{Address: address, AmountCents: balance})
}

// TopUp godoc
// @Summary      Top up spendable funds
// @Tags         funds
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      TopUpRequest  true  "Amount"
// @Success      200      {object}  api.BalanceResponse
// @Failure      400      {object}  api.ErrorResponse
// @Router       /funds/topup [post]
func (h *Handler) TopUp(c *gin.Context) {
	address, ok := identity.GetAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Resident not authenticated"})
		return
	}

	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AmountCents <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount_cents must be positive"})
		return
	}

	if err := h.backend.TopUp(c.Request.Context(), address, req.AmountCents); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to top up"})
		return
	}

	balance, err := h.backend.FundsBalance(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load balance after top up"})
		return
	}

	c.JSON(http.StatusOK, api.BalanceResponse{Address: address, AmountCents: balance})
}
