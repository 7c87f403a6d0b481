package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "skylark/internal/errors"
)

// ListSeats returns the seat map for a flight. Query parameters: flightId
// (required), class, isBooked, page, pageSize.
func (h *Handlers) ListSeats(c *gin.Context) {
	flightID, err := strconv.ParseInt(c.Query("flightId"), 10, 64)
	if err != nil || flightID < 1 {
		respondError(c, apperrors.InvalidInputf("invalid flightId %q", c.Query("flightId")))
		return
	}

	var class *string
	if v := c.Query("class"); v != "" {
		class = &v
	}

	var isBooked *bool
	if v := c.Query("isBooked"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(c, apperrors.InvalidInputf("invalid isBooked %q", v))
			return
		}
		isBooked = &parsed
	}

	page := parsePositiveQuery(c, "page", 1)
	pageSize := parsePositiveQuery(c, "pageSize", 100)

	seats, err := h.services.Seats.ListByFlight(c.Request.Context(), flightID, class, isBooked, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"seats": seats, "count": len(seats)})
}
