package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"skylark/internal/models"
)

func (h *Handlers) CreateFlight(c *gin.Context) {
	var req models.CreateFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	flight, err := h.services.Flights.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, flight)
}

func (h *Handlers) GetFlight(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	flight, err := h.services.Flights.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, flight)
}

// ListFlights serves the flight list with origin/destination filters. The
// unfiltered pages are cached in Valkey for a short window.
func (h *Handlers) ListFlights(c *gin.Context) {
	origin := c.Query("origin")
	destination := c.Query("destination")
	page := parsePositiveQuery(c, "page", 1)
	pageSize := parsePositiveQuery(c, "pageSize", 20)

	cacheable := origin == "" && destination == "" && h.valkey != nil
	if cacheable {
		if raw, err := h.valkey.GetFlightsListRaw(c.Request.Context(), page, pageSize); err == nil {
			c.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	flights, err := h.services.Flights.List(c.Request.Context(), origin, destination, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{"flights": flights, "count": len(flights), "page": page, "pageSize": pageSize}
	if cacheable {
		h.valkey.SetFlightsList(c.Request.Context(), page, pageSize, response)
	}

	c.JSON(http.StatusOK, response)
}

// SearchFlights queries the Elasticsearch flight projection.
func (h *Handlers) SearchFlights(c *gin.Context) {
	flights, err := h.services.Flights.Search(
		c.Request.Context(),
		c.Query("origin"),
		c.Query("destination"),
		c.Query("date"),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"flights": flights, "count": len(flights)})
}

func (h *Handlers) UpdateFlightStatus(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req models.UpdateFlightStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	if err := h.services.Flights.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

func parsePositiveQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
