package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"courtbook/internal/api"
	"courtbook/internal/ledger"
	"courtbook/internal/projection"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// @Summary      Prometheus metrics
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// History godoc
// @Summary      Booking history export
// @Description  Every booking the index currently holds, with occupant and fee paid; cancellations are already folded out.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} projection.Booking
// @Router       /admin/history [get]
func History(index *projection.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, index.AllBookings())
	}
}

// PotBalance godoc
// @Summary      Facility pot balance
// @Description  Collected booking fees not yet refunded.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} api.BalanceResponse
// @Failure      502 {object} api.ErrorResponse
// @Router       /admin/ledger/balance [get]
func PotBalance(backend ledger.Backend, facility string) gin.HandlerFunc {
	return func(c *gin.Context) {
		pot, err := backend.CurrentBalance(c.Request.Context(), facility)
		if err != nil {
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Ledger unavailable"})
			return
		}
		c.JSON(http.StatusOK, api.BalanceResponse{Address: facility, AmountCents: pot})
	}
}
