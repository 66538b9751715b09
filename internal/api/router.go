package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskmaster-hq/bugtracker/internal/auth"
)

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	router.POST("/auth/login", handler.Login)
	router.POST("/auth/register", handler.Register)

	api := router.Group("/api")
	api.Use(auth.Middleware(handler.jwt))
	{
		api.GET("/me", handler.Me)
		api.POST("/me/password", handler.ChangePassword)

		projects := api.Group("/projects")
		{
			projects.POST("", handler.CreateProject)
			projects.GET("", handler.ListProjects)
			projects.GET("/:id", handler.GetProject)
			projects.PUT("/:id", handler.UpdateProject)
			projects.DELETE("/:id", auth.AdminOnly(), handler.DeleteProject)
		}

		tasks := api.Group("/tasks")
		{
			tasks.POST("", handler.CreateTask)
			tasks.GET("", handler.SearchTasks)
			tasks.POST("/view", handler.ListView)
			tasks.GET("/quick/:name", handler.QuickFilterTasks)
			tasks.POST("/bulk/status", handler.BulkChangeStatus)
			tasks.POST("/bulk/assign", handler.BulkAssign)

			tasks.GET("/:id", handler.GetTask)
			tasks.PUT("/:id", handler.UpdateTask)
			tasks.DELETE("/:id", auth.AdminOnly(), handler.DeleteTask)
			tasks.PUT("/:id/status", handler.ChangeTaskStatus)
			tasks.PUT("/:id/assignee", handler.AssignTask)
			tasks.GET("/:id/history", handler.GetStatusHistory)

			tasks.POST("/:id/comments", handler.AddComment)
			tasks.GET("/:id/comments", handler.ListComments)

			tasks.PUT("/:id/labels", handler.SetTaskLabels)

			tasks.POST("/:id/attachments", handler.UploadAttachment)
			tasks.GET("/:id/attachments", handler.ListAttachments)

			tasks.POST("/:id/watchers", handler.WatchTask)
			tasks.DELETE("/:id/watchers", handler.UnwatchTask)
			tasks.GET("/:id/watchers", handler.ListWatchers)

			tasks.POST("/:id/dependencies", handler.AddDependency)
			tasks.GET("/:id/dependencies", handler.ListDependencies)
			tasks.DELETE("/:id/dependencies/:depId", handler.DeleteDependency)
		}

		attachments := api.Group("/attachments")
		{
			attachments.GET("/:id", handler.DownloadAttachment)
			attachments.DELETE("/:id", handler.DeleteAttachment)
		}

		api.GET("/metrics/dashboard", handler.DashboardMetrics)
		api.GET("/metrics/filtered", handler.FilteredMetrics)

		api.GET("/statuses", handler.ListStatuses)
		api.GET("/modules", handler.ListModules)
		api.GET("/versions", handler.ListVersions)
		api.GET("/labels", handler.ListLabels)
		api.POST("/labels", handler.CreateLabel)

		users := api.Group("/users")
		{
			users.GET("", handler.ListUsers)
			users.PUT("/:id/role", auth.AdminOnly(), handler.ChangeUserRole)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", handler.ListNotifications)
			notifications.PUT("/:id/read", handler.MarkNotificationRead)
		}
	}

	return router
}
