package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skylark/internal/models"
)

func (h *Handlers) CreateFare(c *gin.Context) {
	var req models.CreateFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	fare, err := h.services.Fares.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, fare)
}

// CalculateFare returns a priced quote with the full factor breakdown.
func (h *Handlers) CalculateFare(c *gin.Context) {
	var req models.CalculateFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	result, err := h.services.Fares.CalculateQuote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
