package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skylark/internal/cache"
	"skylark/internal/logger"
	"skylark/internal/models"
	"skylark/internal/service"
)

const userIDKey = "authUserID"

// CredentialSource looks up users for authentication. The user repository
// satisfies it.
type CredentialSource interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// CORS allows cross-origin requests from booking front ends.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Logger emits one structured line per request with latency and status.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := logger.NewRequestID()
		c.Set("requestID", requestID)

		c.Next()

		log := logger.WithRequestID(requestID).With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"clientIp", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Error("Request failed", "errors", c.Errors.String())
			return
		}
		log.Info("Request handled")
	}
}

// Recovery converts panics into 500 responses instead of dropped connections.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("Panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// BasicAuth authenticates requests against stored credentials, consulting the
// Valkey credential cache before the database. The resolved user id lands in
// the request context.
func BasicAuth(users CredentialSource, valkey *cache.ValkeyClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, password, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c)
			return
		}

		passwordHash := service.HashPassword(password)

		if valkey != nil {
			if userID, err := valkey.GetUserIDByAuth(c.Request.Context(), email, passwordHash); err == nil {
				c.Set(userIDKey, userID)
				c.Next()
				return
			}
		}

		user, err := users.GetByEmail(c.Request.Context(), email)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if user == nil || !user.IsActive || user.PasswordHash != passwordHash {
			unauthorized(c)
			return
		}

		if valkey != nil {
			if err := valkey.SetUserAuth(c.Request.Context(), email, passwordHash, user.UserID); err != nil {
				slog.Warn("Failed to warm credential cache", "error", err)
			}
		}

		c.Set(userIDKey, user.UserID)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="skylark"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// UserIDFromContext returns the authenticated user id set by BasicAuth.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
