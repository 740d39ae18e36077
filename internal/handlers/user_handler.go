package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"

	"github.com/Kurdishgpt/Slaw/internal/repositories"
	"github.com/Kurdishgpt/Slaw/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetLeaderboard handles GET /api/users
func (h *UserHandler) GetLeaderboard(c *gin.Context) {
	users, err := h.userService.GetLeaderboard(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetTopUsers handles GET /api/users/top
func (h *UserHandler) GetTopUsers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	users, err := h.userService.GetTopUsers(c, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetMe handles GET /api/users/me, authenticated by API key
func (h *UserHandler) GetMe(c *gin.Context) {
	key := c.GetHeader("X-API-Key")
	if key == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-API-Key header is required"})
		return
	}
	user, err := h.userService.GetUserByAPIKey(c, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// ExportLeaderboard handles GET /api/users/export, returning the full
// leaderboard as CSV
func (h *UserHandler) ExportLeaderboard(c *gin.Context) {
	users, err := h.userService.GetLeaderboard(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users: " + err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="leaderboard.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"rank", "id", "username", "points", "dailyLinksPosted", "lastPointEarned"})
	for i, user := range users {
		lastEarned := ""
		if user.LastPointEarned != nil {
			lastEarned = user.LastPointEarned.Format("2006-01-02 15:04:05")
		}
		_ = w.Write([]string{
			strconv.Itoa(i + 1),
			user.ID,
			user.Username,
			strconv.Itoa(user.Points),
			strconv.Itoa(user.DailyLinksPosted),
			lastEarned,
		})
	}
	w.Flush()
}
