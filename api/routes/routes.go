package routes

import (
	"github.com/KatlegoSeiphemo/careernest/internal/config"
	"github.com/KatlegoSeiphemo/careernest/internal/handlers"
	"github.com/KatlegoSeiphemo/careernest/internal/middleware"
	"github.com/KatlegoSeiphemo/careernest/internal/models"
	"github.com/KatlegoSeiphemo/careernest/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies carries the handlers the router wires up
type HandlerDependencies struct {
	AuthHandler    *handlers.AuthHandler
	PaymentHandler *handlers.PaymentHandler
	CatalogHandler *handlers.CatalogHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, tokens *jwt.TokenService, deps HandlerDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/login", deps.AuthHandler.Login)
		}

		// Gateway callback; the provider cannot carry our bearer tokens
		public.POST("/momo/webhook", deps.PaymentHandler.Webhook)

		// Catalog browsing needs no account
		public.GET("/services", deps.CatalogHandler.ListServices)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(tokens))
	{
		mentor := protected.Group("/mentor")
		mentor.Use(middleware.RequireRole(models.RoleMentor))
		{
			mentor.GET("/sessions", deps.PaymentHandler.GetSessions)
			mentor.GET("/payment-requests", deps.PaymentHandler.GetPaymentRequests)
			mentor.GET("/earnings", deps.PaymentHandler.GetEarnings)
			mentor.POST("/create-payment-request", deps.PaymentHandler.CreatePaymentRequest)
			mentor.POST("/request-session-payment/:sessionId", deps.PaymentHandler.RequestSessionPayment)
		}

		protected.GET("/payments/status/:transactionId", deps.PaymentHandler.CheckPaymentStatus)

		protected.GET("/user/services", deps.CatalogHandler.ListUserServices)
		protected.POST("/services/:id/purchase", deps.CatalogHandler.PurchaseService)
	}

	return router
}
