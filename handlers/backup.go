package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"homework-tracker/backup"
	"homework-tracker/logger"
)

// ExportAll handles GET /api/backup/export
func (h *APIHandler) ExportAll(c *gin.Context) {
	data, err := h.Backup.Export(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to export data")
		return
	}
	attachment(c, backup.FileName(time.Now()), "application/json", data)
}

// ImportAll handles POST /api/backup/import. The document is either the raw
// JSON body or a multipart "file" field.
func (h *APIHandler) ImportAll(c *gin.Context) {
	data, err := readBackupUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading backup: " + err.Error()})
		return
	}

	if err := h.Backup.ImportErr(c.Request.Context(), data); err != nil {
		logger.LogWarn("Backup import rejected", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "The file is invalid or corrupted"})
		return
	}
	h.afterMutation(c)
	c.JSON(http.StatusOK, gin.H{"message": "Data restored"})
}

func readBackupUpload(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return c.GetRawData()
}

// ClearAll handles DELETE /api/backup?confirm=true. Everything stored locally
// is erased.
func (h *APIHandler) ClearAll(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Clearing all data requires confirm=true"})
		return
	}
	if err := h.Backup.Clear(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to clear data")
		return
	}
	h.afterMutation(c)
	c.Status(http.StatusNoContent)
}
