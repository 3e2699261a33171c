package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigconnect/backend/internal/config"
	"github.com/gigconnect/backend/internal/http/handlers"
	"github.com/gigconnect/backend/internal/http/middleware"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	gigHandler *handlers.GigHandler,
	orderHandler *handlers.OrderHandler,
	paymentHandler *handlers.PaymentHandler,
	chatHandler *handlers.ChatHandler,
	projectHandler *handlers.ProjectHandler,
	adminHandler *handlers.AdminHandler,
	uploadHandler *handlers.UploadHandler,
	webhookHandler *handlers.WebhookHandler,
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
	r.StaticFS("/files", http.Dir(cfg.UploadStoragePath))

	// Gateway callbacks sit outside the versioned API and outside the
	// rate limiter; signature verification is their gate.
	r.POST("/webhooks/paystack", webhookHandler.Paystack)
	r.GET("/webhooks/health", healthHandler.Health)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	// Auth endpoints get a tighter limit on top of the global one.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/me", authHandler.Me)
		protectedAuth.PATCH("/me", authHandler.UpdateMe)
	}

	// Public marketplace browsing.
	api.GET("/users/:id", middleware.UUIDValidator("id"), authHandler.GetUserProfile)
	api.GET("/gigs", gigHandler.List)
	api.GET("/gigs/:id", middleware.UUIDValidator("id"), gigHandler.Get)
	api.GET("/projects", projectHandler.List)
	api.GET("/projects/:id", projectHandler.Get)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/gigs", gigHandler.Create)
		protected.PATCH("/gigs/:id", middleware.UUIDValidator("id"), gigHandler.Update)
		protected.DELETE("/gigs/:id", middleware.UUIDValidator("id"), gigHandler.Deactivate)

		protected.POST("/orders", orderHandler.Create)
		protected.GET("/orders", orderHandler.List)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Get)
		protected.PATCH("/orders/:id/status", middleware.UUIDValidator("id"), orderHandler.UpdateStatus)

		protected.POST("/payments/initiate", paymentHandler.Initiate)
		protected.GET("/payments/status/:orderId", middleware.UUIDValidator("orderId"), paymentHandler.Status)
		protected.GET("/payments/wallet", paymentHandler.Wallet)

		protected.POST("/chat/rooms", chatHandler.OpenRoom)
		protected.GET("/chat/rooms", chatHandler.ListRooms)
		protected.GET("/chat/rooms/:id/messages", chatHandler.Messages)
		protected.POST("/chat/rooms/:id/messages", chatHandler.Send)
		protected.POST("/chat/rooms/:id/read", chatHandler.MarkRead)
		protected.GET("/chat/rooms/:id/unread", chatHandler.UnreadCount)

		protected.POST("/projects", projectHandler.Create)
		protected.PATCH("/projects/:id", projectHandler.Update)

		protected.POST("/uploads/:category", uploadHandler.Upload)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager))
	admin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleModerator))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users/verify", adminHandler.VerifyUser)
		admin.PATCH("/users/:id/status", middleware.UUIDValidator("id"), adminHandler.SetUserStatus)
		admin.POST("/escrow/release", adminHandler.ReleaseEscrow)
		admin.POST("/payments/verify", adminHandler.VerifyPayment)
		admin.GET("/transactions", adminHandler.ListTransactions)
		admin.GET("/audit", adminHandler.ListAuditEvents)
	}

	return r
}
