package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hustlehub/backend/internal/config"
	"github.com/hustlehub/backend/internal/http/handlers"
	"github.com/hustlehub/backend/internal/http/middleware"
	"github.com/hustlehub/backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	taskHandler *handlers.TaskHandler,
	chatHandler *handlers.ChatHandler,
	notificationHandler *handlers.NotificationHandler,
	reviewHandler *handlers.ReviewHandler,
	profileHandler *handlers.ProfileHandler,
	verificationHandler *handlers.VerificationHandler,
	mediaHandler *handlers.MediaHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	// Аутентификация с жёстким rate limit на публичных маршрутах.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/sessions", authHandler.Sessions)
		protectedAuth.DELETE("/sessions/:id", middleware.UUIDValidator("id"), authHandler.RevokeSession)
		protectedAuth.DELETE("/sessions", authHandler.RevokeOtherSessions)
	}

	// Публичные маршруты
	api.GET("/tasks/categories", taskHandler.Categories)
	api.GET("/tasks/:id", middleware.UUIDValidator("id"), taskHandler.Get)
	api.GET("/tasks/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListForTask)
	api.GET("/users/:id", middleware.UUIDValidator("id"), profileHandler.PublicProfile)
	api.GET("/users/username/:username", profileHandler.PublicProfileByUsername)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListForUser)
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", profileHandler.Me)
		protected.PATCH("/profile", profileHandler.Update)

		protected.POST("/tasks", taskHandler.Create)
		protected.GET("/tasks", taskHandler.List)
		protected.GET("/tasks/my", taskHandler.ListMine)
		protected.PUT("/tasks/:id/assign", middleware.UUIDValidator("id"), taskHandler.Assign)
		protected.PUT("/tasks/:id/status", middleware.UUIDValidator("id"), taskHandler.UpdateStatus)
		protected.DELETE("/tasks/:id", middleware.UUIDValidator("id"), taskHandler.Delete)
		protected.GET("/tasks/:id/chat", middleware.UUIDValidator("id"), chatHandler.GetByTask)
		protected.POST("/tasks/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.Create)
		protected.GET("/tasks/:id/reviews/can", middleware.UUIDValidator("id"), reviewHandler.CanReview)

		protected.GET("/chats", chatHandler.List)
		protected.GET("/chats/:id", middleware.UUIDValidator("id"), chatHandler.Get)
		protected.GET("/chats/:id/messages", middleware.UUIDValidator("id"), chatHandler.ListMessages)
		protected.POST("/chats/:id/messages", middleware.UUIDValidator("id"), chatHandler.SendMessage)
		protected.POST("/chats/:id/messages/read", middleware.UUIDValidator("id"), chatHandler.MarkRead)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.GET("/notifications/:id", middleware.UUIDValidator("id"), notificationHandler.Get)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), notificationHandler.Delete)

		protected.POST("/media", mediaHandler.Upload)

		// Чтение статуса не лимитируется, в отличие от выпуска кодов.
		protected.GET("/verification/status", verificationHandler.Status)
	}

	verificationGroup := api.Group("/verification")
	verificationGroup.Use(
		middleware.AuthMiddleware(tokenManager),
		middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod),
	)
	{
		verificationGroup.POST("/request", verificationHandler.RequestCode)
		verificationGroup.POST("/confirm", verificationHandler.ConfirmCode)
	}

	return r
}
