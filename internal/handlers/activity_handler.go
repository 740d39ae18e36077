package handlers

import (
	"net/http"
	"strconv"

	"github.com/Kurdishgpt/Slaw/internal/services"
	"github.com/gin-gonic/gin"
)

// ActivityHandler handles activity-log HTTP requests
type ActivityHandler struct {
	activityService *services.ActivityService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// GetRecentActivities handles GET /api/activities/recent
func (h *ActivityHandler) GetRecentActivities(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	activities, err := h.activityService.GetRecentActivities(c, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activities: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, activities)
}

// GetAllActivities handles GET /api/activities
func (h *ActivityHandler) GetAllActivities(c *gin.Context) {
	activities, err := h.activityService.GetAllActivities(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activities: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, activities)
}
