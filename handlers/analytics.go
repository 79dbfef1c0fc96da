package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"homework-tracker/analytics"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetClassAnalytics handles GET /api/classes/:classId/analytics?periodId=
func (h *APIHandler) GetClassAnalytics(c *gin.Context) {
	a, err := analytics.ForClass(c.Request.Context(), h.Storage, c.Param("classId"), c.Query("periodId"))
	if err != nil {
		respondError(c, err, "Failed to compute analytics")
		return
	}
	c.JSON(http.StatusOK, a)
}

// GetStudentTimeline handles GET /api/classes/:classId/analytics/students/:studentId
func (h *APIHandler) GetStudentTimeline(c *gin.Context) {
	a, err := analytics.ForClass(c.Request.Context(), h.Storage, c.Param("classId"), c.Query("periodId"))
	if err != nil {
		respondError(c, err, "Failed to compute analytics")
		return
	}
	studentID := c.Param("studentId")
	for _, st := range a.Students {
		if st.Student.ID == studentID {
			c.JSON(http.StatusOK, gin.H{
				"stats":      st,
				"periodName": a.PeriodName,
				"timeline":   a.Timeline(studentID),
			})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Student not found in this class"})
}

// DownloadClassReport handles GET /api/classes/:classId/report?periodId=
func (h *APIHandler) DownloadClassReport(c *gin.Context) {
	a, err := analytics.ForClass(c.Request.Context(), h.Storage, c.Param("classId"), c.Query("periodId"))
	if err != nil {
		respondError(c, err, "Failed to compute analytics")
		return
	}
	var buf bytes.Buffer
	if err := analytics.WriteClassReport(&buf, a); err != nil {
		respondError(c, err, "Failed to generate report")
		return
	}
	attachment(c, analytics.ReportFileName(a.Class.Name, a.PeriodName), xlsxContentType, buf.Bytes())
}
