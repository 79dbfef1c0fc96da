package handlers

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"homework-tracker/analytics"
	"homework-tracker/backup"
	"homework-tracker/cloud"
	"homework-tracker/db"
	"homework-tracker/logger"
	"homework-tracker/models"
)

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Storage *db.StorageService
	Backup  *backup.Service
	Syncer  *cloud.Syncer
	Auth    *cloud.Authenticator // nil in local-only mode
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(storage *db.StorageService, syncer *cloud.Syncer, auth *cloud.Authenticator) *APIHandler {
	return &APIHandler{
		Storage: storage,
		Backup:  backup.NewService(storage),
		Syncer:  syncer,
		Auth:    auth,
	}
}

// afterMutation mirrors the new local state to the cloud in the background.
func (h *APIHandler) afterMutation(c *gin.Context) {
	h.Syncer.PushAsync(c.Request.Context())
}

// respondError maps domain errors to HTTP responses. msg is shown for server
// errors, whose cause is only logged.
func respondError(c *gin.Context, err error, msg string) {
	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "fields": vErr.Fields})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, analytics.ErrUnknownPeriod):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrNoStudents):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.LogError(msg, err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func attachment(c *gin.Context, name, contentType string, body []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, contentType, body)
}

// PingHandler handles GET /api/ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
