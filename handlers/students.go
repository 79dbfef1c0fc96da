package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homework-tracker/logger"
	"homework-tracker/models"
)

// GetAllStudents handles GET /api/students
func (h *APIHandler) GetAllStudents(c *gin.Context) {
	students, err := h.Storage.GetStudents(c.Request.Context(), "")
	if err != nil {
		respondError(c, err, "Failed to retrieve students")
		return
	}
	c.JSON(http.StatusOK, students)
}

// GetStudentsByClass handles GET /api/classes/:classId/students
func (h *APIHandler) GetStudentsByClass(c *gin.Context) {
	ctx := c.Request.Context()
	classID := c.Param("classId")

	if _, err := h.Storage.GetClass(ctx, classID); err != nil {
		respondError(c, err, "Failed to verify class")
		return
	}
	students, err := h.Storage.GetStudents(ctx, classID)
	if err != nil {
		respondError(c, err, "Failed to retrieve students for the class")
		return
	}
	c.JSON(http.StatusOK, students)
}

// AddStudent handles POST /api/classes/:classId/students
func (h *APIHandler) AddStudent(c *gin.Context) {
	var ns models.NewStudent
	if err := c.ShouldBindJSON(&ns); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	ns.ClassID = c.Param("classId")

	student, err := h.Storage.AddStudent(c.Request.Context(), ns)
	if err != nil {
		respondError(c, err, "Failed to add student")
		return
	}
	h.afterMutation(c)
	c.JSON(http.StatusCreated, student)
}

// DeleteStudent handles DELETE /api/students/:studentId
func (h *APIHandler) DeleteStudent(c *gin.Context) {
	if err := h.Storage.DeleteStudent(c.Request.Context(), c.Param("studentId")); err != nil {
		respondError(c, err, "Failed to delete student")
		return
	}
	h.afterMutation(c)
	c.Status(http.StatusNoContent)
}

// GetRandomStudent handles GET /api/classes/:classId/random-student
func (h *APIHandler) GetRandomStudent(c *gin.Context) {
	student, err := h.Storage.GetRandomStudent(c.Request.Context(), c.Param("classId"))
	if err != nil {
		respondError(c, err, "Failed to get random student")
		return
	}
	c.JSON(http.StatusOK, student)
}

type textImportRequest struct {
	Text string `json:"text" binding:"required"`
}

// ImportStudentsText handles POST /api/classes/:classId/students/import with a
// pasted list, one student per line.
func (h *APIHandler) ImportStudentsText(c *gin.Context) {
	var req textImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	classID := c.Param("classId")

	count, err := h.Storage.ImportStudentsFromText(c.Request.Context(), req.Text, classID)
	if err != nil {
		respondError(c, err, "Failed to import students")
		return
	}
	if count > 0 {
		h.afterMutation(c)
	}
	c.JSON(http.StatusOK, gin.H{"importedCount": count, "classId": classID})
}

// ImportStudents handles POST /api/import/students (multipart: classId, file)
func (h *APIHandler) ImportStudents(c *gin.Context) {
	classID := c.PostForm("classId")
	if classID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'classId' in form data"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	logger.LogInfo("Received file upload", "file", header.Filename, "classId", classID)

	count, err := h.Storage.ImportStudentsFromExcel(c.Request.Context(), file, classID)
	if err != nil {
		respondError(c, err, "Failed to import students")
		return
	}
	if count > 0 {
		h.afterMutation(c)
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": count,
		"classId":       classID,
	})
}
