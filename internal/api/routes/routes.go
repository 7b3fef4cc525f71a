package routes

import (
	"copilotflow/backend/internal/api/handlers"
	"copilotflow/backend/internal/api/middleware"
	"copilotflow/backend/internal/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	// Global middleware
	router.Use(middleware.CORSMiddleware())
	router.Use(gin.Recovery())

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no auth required)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", handlers.Login)
			auth.POST("/register", handlers.Register)
		}

		// Health check
		v1.GET("/health", handlers.HealthCheck)

		// WebSocket endpoint (no auth middleware for WebSocket)
		v1.GET("/ws/runs/:id/logs", handlers.StreamRunLogs)

		// Protected routes (auth required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User management
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile)
				users.PUT("/profile", handlers.UpdateProfile)
				users.GET("", handlers.GetUsers)
				users.PUT("/:id/password", handlers.AdminChangePassword) // Admin only
			}

			// Workspace management
			workspaces := protected.Group("/workspaces")
			{
				workspaces.GET("", handlers.GetWorkspaces)
				workspaces.POST("", handlers.CreateWorkspace)
				workspaces.GET("/:id", handlers.GetWorkspace)
				workspaces.PUT("/:id", handlers.UpdateWorkspace)
				workspaces.DELETE("/:id", handlers.DeleteWorkspace)
			}

			// Chat runs
			runs := protected.Group("/runs")
			{
				runs.GET("", handlers.GetRuns)
				runs.POST("", handlers.CreateRun)
				runs.GET("/statistics", handlers.GetRunStatistics)
				runs.GET("/:id", handlers.GetRun)
				runs.DELETE("/:id", handlers.DeleteRun)
				runs.POST("/:id/stop", handlers.StopRun)
				runs.GET("/:id/logs", handlers.GetRunLogs)
				runs.GET("/:id/transcript", handlers.GetRunTranscript)
				runs.GET("/:id/export", handlers.ExportRun)
			}

			// Scheduled prompts
			schedules := protected.Group("/schedules")
			{
				schedules.GET("", handlers.GetSchedules)
				schedules.POST("", handlers.CreateSchedule)
				schedules.GET("/:id", handlers.GetSchedule)
				schedules.PUT("/:id", handlers.UpdateSchedule)
				schedules.POST("/:id/toggle", handlers.ToggleSchedule)
				schedules.DELETE("/:id", handlers.DeleteSchedule)
			}
		}
	}

	return router
}
