package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"homework-tracker/cloud"
	"homework-tracker/logger"
)

// syncError maps the outcome of a push or pull. Missing configuration or
// authentication only skip the remote step.
func syncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cloud.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "localOnly": true})
	case errors.Is(err, cloud.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		logger.LogError("Cloud sync failed", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Cloud sync failed", "status": "ERROR"})
	}
}

// Push handles POST /api/sync/push
func (h *APIHandler) Push(c *gin.Context) {
	if err := h.Syncer.Push(c.Request.Context()); err != nil {
		syncError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Syncer.Status())
}

// Pull handles POST /api/sync/pull. A user without remote data keeps the local
// state; that is reported as a success with pulled=false.
func (h *APIHandler) Pull(c *gin.Context) {
	err := h.Syncer.Pull(c.Request.Context())
	switch {
	case errors.Is(err, cloud.ErrNoRemoteData):
		c.JSON(http.StatusOK, gin.H{"pulled": false, "message": err.Error(), "status": h.Syncer.Status()})
	case err != nil:
		syncError(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"pulled": true, "status": h.Syncer.Status()})
	}
}

// SyncStatus handles GET /api/sync/status
func (h *APIHandler) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"configured": h.Syncer.Configured(), "status": h.Syncer.Status()})
}

// SyncEvents handles GET /api/sync/events, streaming status changes as
// server-sent events until the client goes away.
func (h *APIHandler) SyncEvents(c *gin.Context) {
	updates, stop := h.Syncer.Subscribe()
	defer stop()

	c.SSEvent("status", h.Syncer.Status())
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case st, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("status", st)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
