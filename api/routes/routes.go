package routes

import (
	"github.com/Kurdishgpt/Slaw/internal/config"
	"github.com/Kurdishgpt/Slaw/internal/handlers"
	"github.com/Kurdishgpt/Slaw/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	User     *handlers.UserHandler
	Activity *handlers.ActivityHandler
	Stats    *handlers.StatsHandler
	APIKey   *handlers.APIKeyHandler
	Auth     *handlers.AuthHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Public routes
	public := router.Group("/api")
	{
		public.POST("/auth/login", h.Auth.Login)

		public.GET("/stats", h.Stats.GetStats)

		users := public.Group("/users")
		{
			users.GET("", h.User.GetLeaderboard)
			users.GET("/top", h.User.GetTopUsers)
			users.GET("/me", h.User.GetMe)
			users.GET("/export", h.User.ExportLeaderboard)
		}

		activities := public.Group("/activities")
		{
			activities.GET("", h.Activity.GetAllActivities)
			activities.GET("/recent", h.Activity.GetRecentActivities)
		}
	}

	// Protected routes
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		keys := protected.Group("/keys")
		{
			keys.GET("", h.APIKey.GetAllKeys)
			keys.POST("", h.APIKey.CreateKey)
			keys.DELETE("/:id", h.APIKey.RevokeKey)
		}
	}

	return router
}
