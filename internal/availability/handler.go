package availability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courtbook/internal/api"
	"courtbook/internal/identity"
	"courtbook/internal/slot"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// FreeSlots godoc
// @Summary      Free slots on a day
// @Description  Lists every free fixed-granularity slot inside the operating window.
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Param        date  query     string  true  "Day, YYYY-MM-DD"
// @Success      200   {array}   slot.Interval
// @Failure      400   {object}  api.ErrorResponse
// @Router       /availability/free [get]
func (h *Handler) FreeSlots(c *gin.Context) {
	day, err := time.ParseInLocation("2006-01-02", c.Query("date"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}

	free := h.engine.FreeSlotsOnDay(day)
	if free == nil {
		free = []slot.Interval{}
	}
	c.JSON(http.StatusOK, free)
}

// Check godoc
// @Summary      Check one interval
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Param        start  query     string  true  "RFC3339 start"
// @Param        end    query     string  true  "RFC3339 end"
// @Success      200    {object}  map[string]bool
// @Failure      400    {object}  api.ErrorResponse
// @Router       /availability/check [get]
func (h *Handler) Check(c *gin.Context) {
	iv, err := parseInterval(c.Query("start"), c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"free": h.engine.IsFree(iv)})
}

// Upcoming godoc
// @Summary      Caller's upcoming bookings
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   slot.Interval
// @Failure      401  {object}  api.ErrorResponse
// @Router       /bookings/upcoming [get]
func (h *Handler) Upcoming(c *gin.Context) {
	address, ok := identity.GetAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Resident not authenticated"})
		return
	}

	upcoming := h.engine.UpcomingFor(address, time.Now())
	if upcoming == nil {
		upcoming = []slot.Interval{}
	}
	c.JSON(http.StatusOK, upcoming)
}

// AdminUpcoming godoc
// @Summary      All upcoming bookings with occupants
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  projection.Booking
// @Router       /admin/bookings [get]
func (h *Handler) AdminUpcoming(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.AllUpcoming(time.Now()))
}

func parseInterval(startStr, endStr string) (slot.Interval, error) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return slot.Interval{}, err
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return slot.Interval{}, err
	}
	return slot.NewInterval(start, end)
}
