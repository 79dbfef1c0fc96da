package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"homework-tracker/models"
)

// GetPeriods handles GET /api/periods. With started=true only the periods that
// have already begun are listed, as offered by the analysis view.
func (h *APIHandler) GetPeriods(c *gin.Context) {
	periods, err := h.Storage.GetPeriods(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve periods")
		return
	}
	if c.Query("started") == "true" {
		now := time.Now()
		started := make([]models.SchoolPeriod, 0, len(periods))
		for _, p := range periods {
			if p.Started(now) {
				started = append(started, p)
			}
		}
		periods = started
	}
	c.JSON(http.StatusOK, periods)
}

// SavePeriods handles PUT /api/periods, replacing the whole list.
func (h *APIHandler) SavePeriods(c *gin.Context) {
	var inputs []models.PeriodInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	periods, err := h.Storage.SavePeriods(c.Request.Context(), inputs)
	if err != nil {
		respondError(c, err, "Failed to save periods")
		return
	}
	h.afterMutation(c)
	c.JSON(http.StatusOK, periods)
}
