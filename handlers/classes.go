package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homework-tracker/models"
)

// GetAllClasses handles GET /api/classes
func (h *APIHandler) GetAllClasses(c *gin.Context) {
	classes, err := h.Storage.GetClasses(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve classes")
		return
	}
	c.JSON(http.StatusOK, classes)
}

// GetClassByID handles GET /api/classes/:classId
func (h *APIHandler) GetClassByID(c *gin.Context) {
	class, err := h.Storage.GetClass(c.Request.Context(), c.Param("classId"))
	if err != nil {
		respondError(c, err, "Failed to retrieve class details")
		return
	}
	c.JSON(http.StatusOK, class)
}

// AddClass handles POST /api/classes
func (h *APIHandler) AddClass(c *gin.Context) {
	var nc models.NewClass
	if err := c.ShouldBindJSON(&nc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	class, err := h.Storage.AddClass(c.Request.Context(), nc)
	if err != nil {
		respondError(c, err, "Failed to add class")
		return
	}
	h.afterMutation(c)
	c.JSON(http.StatusCreated, class)
}

// DeleteClass handles DELETE /api/classes/:classId. Students, sessions and
// records of the class go with it.
func (h *APIHandler) DeleteClass(c *gin.Context) {
	if err := h.Storage.DeleteClass(c.Request.Context(), c.Param("classId")); err != nil {
		respondError(c, err, "Failed to delete class")
		return
	}
	h.afterMutation(c)
	c.Status(http.StatusNoContent)
}
