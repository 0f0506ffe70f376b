package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lablinkriparo/riparo-be/config"
	"github.com/lablinkriparo/riparo-be/controllers"
	"github.com/lablinkriparo/riparo-be/middleware"
	"github.com/lablinkriparo/riparo-be/websocket"
)

func SetupRoutes() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	registerValidations()

	// Initialize controllers
	authController := controllers.NewAuthController()
	adminController := controllers.NewAdminController()
	topupController := controllers.NewTopupController()
	loyaltyController := controllers.NewLoyaltyController()
	webhookController := controllers.NewWebhookController()
	forfeitureController := controllers.NewForfeitureController()
	entityController := controllers.NewEntityController()

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	public := r.Group("/api/v1")
	{
		public.POST("/auth/login", authController.Login)
		public.POST("/loyalty/checkout", loyaltyController.CreateCheckout)
		public.POST("/loyalty/corner-checkout", loyaltyController.CreateCornerCheckout)
		public.POST("/loyalty/confirm", loyaltyController.Confirm)
		public.POST("/topups/confirm", topupController.Confirm)
		public.POST("/webhooks/stripe", webhookController.HandleStripe)
	}

	// Entity routes (centro / corner logins)
	entity := r.Group("/api/v1")
	entity.Use(middleware.AuthMiddleware())
	entity.Use(middleware.EntityOnly())
	{
		entity.GET("/credit/balance", entityController.GetBalance)
		entity.GET("/credit/transactions", entityController.GetTransactions)
		entity.POST("/topups/checkout", topupController.CreateCheckout)
		entity.POST("/topups/manual", topupController.CreateManual)
		entity.GET("/loyalty/cards", loyaltyController.GetCards)
		entity.POST("/loyalty/invitations", loyaltyController.CreateInvitation)
	}

	// Dashboard websocket
	ws := r.Group("/api/v1")
	ws.Use(middleware.AuthMiddleware())
	{
		ws.GET("/ws", websocket.HandleWebSocket(config.WSHub))
	}

	// Admin only routes
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminOnly())
	{
		// Tenant management
		admin.POST("/users", adminController.CreateUser)
		admin.POST("/centri", adminController.CreateCentro)
		admin.GET("/centri", adminController.GetCentri)
		admin.POST("/corners", adminController.CreateCorner)
		admin.GET("/corners", adminController.GetCorners)

		// Credit management
		admin.GET("/topup-requests", adminController.GetTopupRequests)
		admin.PUT("/topup-requests/:id/approve", adminController.ApproveTopupRequest)
		admin.GET("/credit-transactions", adminController.GetCreditTransactions)
		admin.POST("/credit-adjustments", adminController.AdjustCredit)

		// Batch jobs
		admin.POST("/forfeiture/check", forfeitureController.RunCheck)
	}

	return r
}

// registerValidations adds the entitytype binding rule used by admin
// credit adjustments.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("entitytype", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return value == "centro" || value == "corner"
		})
	}
}
