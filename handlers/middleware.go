package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"homework-tracker/cloud"
	"homework-tracker/logger"
)

// Authenticate puts the identity of a valid bearer token in the request
// context. Requests without a token run in local-only mode; a token that does
// not verify is rejected.
func (h *APIHandler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		if h.Auth == nil {
			logger.LogDebug("Ignoring access token, cloud sync not configured")
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Malformed Authorization header"})
			return
		}
		id, err := h.Auth.Verify(strings.TrimSpace(token))
		if err != nil {
			logger.LogWarn("Rejected access token", "error", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token"})
			return
		}
		c.Request = c.Request.WithContext(cloud.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
