package handlers

import "github.com/gin-gonic/gin"

// Register sets up the API routes on router.
func (h *APIHandler) Register(router *gin.Engine) {
	api := router.Group("/api")
	api.Use(h.Authenticate())
	{
		// Class routes
		api.GET("/classes", h.GetAllClasses)
		api.POST("/classes", h.AddClass)
		api.GET("/classes/:classId", h.GetClassByID)
		api.DELETE("/classes/:classId", h.DeleteClass)

		// Student routes within a class
		api.GET("/classes/:classId/students", h.GetStudentsByClass)
		api.POST("/classes/:classId/students", h.AddStudent)
		api.POST("/classes/:classId/students/import", h.ImportStudentsText)
		api.GET("/classes/:classId/random-student", h.GetRandomStudent)
		api.GET("/students", h.GetAllStudents)
		api.DELETE("/students/:studentId", h.DeleteStudent)

		// Excel import
		api.POST("/import/students", h.ImportStudents)

		// Sessions and records
		api.GET("/classes/:classId/sessions", h.GetSessionsByClass)
		api.POST("/classes/:classId/sessions", h.RecordSession)
		api.GET("/sessions/:sessionId", h.GetSession)
		api.DELETE("/sessions/:sessionId", h.DeleteSession)
		api.PUT("/records", h.SaveRecords)

		// Periods
		api.GET("/periods", h.GetPeriods)
		api.PUT("/periods", h.SavePeriods)

		// Analytics
		api.GET("/classes/:classId/analytics", h.GetClassAnalytics)
		api.GET("/classes/:classId/analytics/students/:studentId", h.GetStudentTimeline)
		api.GET("/classes/:classId/report", h.DownloadClassReport)

		// Backup
		api.GET("/backup/export", h.ExportAll)
		api.POST("/backup/import", h.ImportAll)
		api.DELETE("/backup", h.ClearAll)

		// Cloud sync
		api.POST("/sync/push", h.Push)
		api.POST("/sync/pull", h.Pull)
		api.GET("/sync/status", h.SyncStatus)
		api.GET("/sync/events", h.SyncEvents)

		api.GET("/ping", PingHandler)
	}
}
