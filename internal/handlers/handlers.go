// Package handlers contains the gin HTTP handlers. They translate between
// the JSON API surface and the service layer; business rules live below.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"skylark/internal/cache"
	apperrors "skylark/internal/errors"
	"skylark/internal/service"
)

type Handlers struct {
	services *service.Services
	valkey   *cache.ValkeyClient
}

func New(services *service.Services, valkey *cache.ValkeyClient) *Handlers {
	return &Handlers{services: services, valkey: valkey}
}

// respondError maps service errors onto HTTP statuses. Internal errors get a
// generic body; the details stay in the logs.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request error", "path", c.Request.URL.Path, "error", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func respondInvalid(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}
