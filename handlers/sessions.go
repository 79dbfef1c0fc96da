package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homework-tracker/models"
)

// GetSessionsByClass handles GET /api/classes/:classId/sessions
func (h *APIHandler) GetSessionsByClass(c *gin.Context) {
	sessions, err := h.Storage.GetSessions(c.Request.Context(), c.Param("classId"))
	if err != nil {
		respondError(c, err, "Failed to retrieve sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// RecordSession handles POST /api/classes/:classId/sessions: one homework check
// with the status of every student.
func (h *APIHandler) RecordSession(c *gin.Context) {
	var ns models.NewSession
	if err := c.ShouldBindJSON(&ns); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	ns.ClassID = c.Param("classId")

	session, records, err := h.Storage.RecordSession(c.Request.Context(), ns)
	if err != nil {
		respondError(c, err, "Failed to save session")
		return
	}
	h.afterMutation(c)
	c.JSON(http.StatusCreated, gin.H{"session": session, "records": records})
}

// GetSession handles GET /api/sessions/:sessionId
func (h *APIHandler) GetSession(c *gin.Context) {
	ctx := c.Request.Context()
	session, err := h.Storage.GetSession(ctx, c.Param("sessionId"))
	if err != nil {
		respondError(c, err, "Failed to retrieve session")
		return
	}
	records, err := h.Storage.GetRecords(ctx, session.ID)
	if err != nil {
		respondError(c, err, "Failed to retrieve records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "records": records})
}

// DeleteSession handles DELETE /api/sessions/:sessionId
func (h *APIHandler) DeleteSession(c *gin.Context) {
	if err := h.Storage.DeleteSession(c.Request.Context(), c.Param("sessionId")); err != nil {
		respondError(c, err, "Failed to delete session")
		return
	}
	h.afterMutation(c)
	c.Status(http.StatusNoContent)
}

// SaveRecords handles PUT /api/records: upsert by id.
func (h *APIHandler) SaveRecords(c *gin.Context) {
	var inputs []models.RecordInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	records := make([]models.HomeworkRecord, 0, len(inputs))
	for _, in := range inputs {
		if err := models.Validate(in); err != nil {
			respondError(c, err, "Invalid record")
			return
		}
		records = append(records, models.HomeworkRecord{
			ID:        in.ID,
			SessionID: in.SessionID,
			StudentID: in.StudentID,
			Status:    in.Status,
		})
	}

	saved, err := h.Storage.SaveRecords(c.Request.Context(), records)
	if err != nil {
		respondError(c, err, "Failed to save records")
		return
	}
	h.afterMutation(c)
	c.JSON(http.StatusOK, saved)
}
