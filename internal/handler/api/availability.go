package api

import (
	"errors"
	"net/http"
	"time"

	resdto "booking-core/internal/handler/dto/response"
	"booking-core/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	queries queries.AvailabilityQueries
}

func NewAvailabilityHandler(qrys queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{queries: qrys}
}

// @Summary List available start times
// @Description List the possible start times of a unit on a date for a duration
// @Tags availability
// @Produce json
// @Param id path string true "Unit ID"
// @Param date query string true "Date (YYYY-MM-DD, unit local time)"
// @Param duration query int true "Duration in minutes"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /units/{id}/availability [get]
func (h *AvailabilityHandler) GetStartTimes(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid unit ID format",
		})
		return
	}

	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'date' is required",
		})
		return
	}

	durationMinutes := intQuery(c, "duration", 0)
	if durationMinutes <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'duration' must be a positive number of minutes",
		})
		return
	}

	view, err := h.queries.StartTimes(c.Request.Context(), unitID, date, time.Duration(durationMinutes)*time.Minute)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrUnitNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation unit not found",
			})
		case errors.Is(err, queries.ErrInvalidDate):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid date format, expected YYYY-MM-DD",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromAvailabilityView(view))
}
