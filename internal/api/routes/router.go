package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/linskybing/gpu-portal/internal/api/handlers"
	"github.com/linskybing/gpu-portal/internal/api/middleware"
	"github.com/linskybing/gpu-portal/internal/identity"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/linskybing/gpu-portal/docs"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handlers, gw identity.Gateway) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// --- public ---
	public := r.Group("/auth")
	{
		public.POST("/register", h.Auth.Register)
		public.POST("/login", h.Auth.Login)
		public.GET("/github", h.Auth.GithubStart)
		public.GET("/callback", h.Auth.GithubCallback)
		public.POST("/github-complete", h.Auth.GithubComplete)
		public.POST("/password/forgot", h.Auth.ForgotPassword)
		public.POST("/password/reset", h.Auth.ResetPassword)
	}

	// --- JWT-protected routes ---
	auth := r.Group("/")
	auth.Use(middleware.JWTAuthMiddleware(gw))
	{
		auth.POST("/auth/logout", h.Auth.Logout)
		auth.GET("/auth/status", h.Auth.AuthStatus)

		profile := auth.Group("/profile")
		{
			profile.GET("", h.Profile.GetProfile)
			profile.PUT("", h.Profile.UpdateProfile)
			profile.PUT("/password", h.Profile.ChangePassword)
		}

		auth.GET("/gpus", h.Inventory.ListGPUs)
		auth.GET("/gpu-models", h.Inventory.ListModels)
		racks := auth.Group("/racks")
		{
			racks.GET("", h.Inventory.ListRacks)
			racks.GET("/:id/models", h.Inventory.ListRackModels)
			racks.GET("/:id/models/:model_id/quantity-options", h.Inventory.QuantityOptions)
		}

		requests := auth.Group("/requests")
		{
			requests.POST("", h.Request.Submit)
			requests.GET("", h.Request.History)
			requests.DELETE("/:id", h.Request.Withdraw)
			requests.POST("/:id/attachment", h.Request.UploadAttachment)
			requests.GET("/:id/attachment", h.Request.AttachmentURL)
		}

		auth.GET("/dashboard", h.Dashboard.Overview)

		notifications := auth.Group("/notifications")
		{
			notifications.GET("", h.Notification.ListNotifications)
			notifications.GET("/unread-count", h.Notification.UnreadCount)
			notifications.PUT("/read-all", h.Notification.MarkAllRead)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
		}

		auth.GET("/ws/notifications", h.WS.Notifications)

		admin := auth.Group("/admin", middleware.Admin())
		{
			admin.GET("/requests", h.Admin.ListRequests)
			admin.PUT("/requests/:id/status", h.Admin.ProcessRequest)
			admin.POST("/notifications", h.Admin.CreateNotification)
			admin.GET("/audit/logs", h.Admin.GetAuditLogs)
		}
	}
}
