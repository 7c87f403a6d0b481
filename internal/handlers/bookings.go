package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "skylark/internal/errors"
	"skylark/internal/middleware"
	"skylark/internal/models"
)

// requireSelf rejects requests acting on behalf of a different user than the
// authenticated one.
func requireSelf(c *gin.Context, userID int64) error {
	authID, ok := middleware.UserIDFromContext(c)
	if ok && authID != userID {
		return apperrors.InvalidInputf("userId %d does not match the authenticated user", userID)
	}
	return nil
}

// LockSeat puts a TTL hold on a seat while the user checks out.
func (h *Handlers) LockSeat(c *gin.Context) {
	var req models.LockSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	if err := requireSelf(c, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.services.Bookings.LockSeat(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ConfirmBooking finalizes a held seat into a durable booking.
func (h *Handlers) ConfirmBooking(c *gin.Context) {
	var req models.ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	if err := requireSelf(c, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.services.Bookings.ConfirmBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ConfirmGroupBooking books a batch of same-class seats atomically.
func (h *Handlers) ConfirmGroupBooking(c *gin.Context) {
	var req models.GroupBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	if err := requireSelf(c, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.services.Bookings.ConfirmGroupBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetBooking returns a single booking by id.
func (h *Handlers) GetBooking(c *gin.Context) {
	bookingID, err := parseID(c, "bookingId")
	if err != nil {
		respondError(c, err)
		return
	}

	booking, err := h.services.Bookings.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// CancelBooking removes a booking and frees its seat.
func (h *Handlers) CancelBooking(c *gin.Context) {
	bookingID, err := parseID(c, "bookingId")
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.services.Bookings.CancelBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetUserBookings lists a user's bookings plus any orphaned seats detected
// on their flights.
func (h *Handlers) GetUserBookings(c *gin.Context) {
	userID, err := parseID(c, "userId")
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.services.Bookings.GetUserBookings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
