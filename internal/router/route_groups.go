package router

import (
	"billiard_hall_backend/internal/handlers"
	"billiard_hall_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.RegisterUser)
		authRoutes.POST("/login", authHandler.LoginUser)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.POST("/logout", authHandler.LogoutUser)
			authRequiredRoutes.GET("/me", authHandler.GetCurrentUser)
		}
	}
}

// SetupTableCategoryRoutes sets up the table category routes.
func SetupTableCategoryRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	categoryRoutes := authenticatedGroup.Group("/table-categories")
	{
		categoryRoutes.GET("", tableHandler.GetCategories)
		categoryRoutes.GET("/:id", tableHandler.GetCategoryByID)

		adminRoutes := categoryRoutes.Group("")
		adminRoutes.Use(middleware.RoleAuthMiddleware("Admin"))
		{
			adminRoutes.POST("", tableHandler.CreateCategory)
			adminRoutes.PUT("/:id", tableHandler.UpdateCategory)
			adminRoutes.DELETE("/:id", tableHandler.DeleteCategory)
		}
	}
}

// SetupTableRoutes sets up the billiard table routes.
func SetupTableRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	tableRoutes := authenticatedGroup.Group("/tables")
	{
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.GET("/:id", tableHandler.GetTableByID)
		tableRoutes.GET("/:id/available-slots", tableHandler.GetAvailableSlots)

		staffRoutes := tableRoutes.Group("")
		staffRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
		{
			staffRoutes.PATCH("/:id/status", tableHandler.UpdateTableStatus)
		}

		adminRoutes := tableRoutes.Group("")
		adminRoutes.Use(middleware.RoleAuthMiddleware("Admin"))
		{
			adminRoutes.POST("", tableHandler.CreateTable)
			adminRoutes.PUT("/:id", tableHandler.UpdateTable)
			adminRoutes.DELETE("/:id", tableHandler.DeleteTable)
		}
	}
}

// SetupPricingRoutes sets up the dynamic pricing routes.
func SetupPricingRoutes(authenticatedGroup *gin.RouterGroup, pricingHandler *handlers.PricingHandler) {
	pricingRoutes := authenticatedGroup.Group("/pricing")
	{
		pricingRoutes.GET("/quote", pricingHandler.GetQuote)
		pricingRoutes.GET("/applicable", pricingHandler.GetApplicableRules)
	}

	authenticatedGroup.GET("/table-categories/:id/pricing-rules",
		middleware.RoleAuthMiddleware("Admin", "Staff"), pricingHandler.GetRulesByCategory)

	ruleRoutes := authenticatedGroup.Group("/pricing-rules")
	ruleRoutes.Use(middleware.RoleAuthMiddleware("Admin"))
	{
		ruleRoutes.POST("", pricingHandler.CreateRule)
		ruleRoutes.GET("/:id", pricingHandler.GetRuleByID)
		ruleRoutes.PUT("/:id", pricingHandler.UpdateRule)
		ruleRoutes.DELETE("/:id", pricingHandler.DeleteRule)
	}
}

// SetupReservationRoutes sets up the reservation routes.
func SetupReservationRoutes(authenticatedGroup *gin.RouterGroup, reservationHandler *handlers.ReservationHandler) {
	reservationRoutes := authenticatedGroup.Group("/reservations")
	{
		reservationRoutes.POST("", reservationHandler.CreateReservation)
		reservationRoutes.GET("", reservationHandler.GetReservations)
		reservationRoutes.GET("/:id", reservationHandler.GetReservationByID)
		reservationRoutes.PUT("/:id", reservationHandler.UpdateReservation)
		reservationRoutes.POST("/:id/cancel", reservationHandler.CancelReservation)

		staffRoutes := reservationRoutes.Group("")
		staffRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
		{
			staffRoutes.PATCH("/:id/approve", reservationHandler.ApproveReservation)
			staffRoutes.PATCH("/:id/reject", reservationHandler.RejectReservation)
			staffRoutes.PATCH("/:id/expire", reservationHandler.ExpireReservation)
		}
	}
}

// SetupSessionRoutes sets up the session routes.
func SetupSessionRoutes(authenticatedGroup *gin.RouterGroup, sessionHandler *handlers.SessionHandler, paymentHandler *handlers.PaymentHandler) {
	sessionRoutes := authenticatedGroup.Group("/sessions")
	sessionRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		sessionRoutes.POST("/start", sessionHandler.StartSession)
		sessionRoutes.GET("", sessionHandler.GetSessions)
		sessionRoutes.GET("/:id", sessionHandler.GetSessionByID)
		sessionRoutes.GET("/:id/estimate", sessionHandler.GetSessionEstimate)
		sessionRoutes.POST("/:id/end", sessionHandler.CloseSession)
		sessionRoutes.POST("/:id/cancel", sessionHandler.CancelSession)
		sessionRoutes.POST("/:id/penalties", sessionHandler.AddPenalty)
		sessionRoutes.GET("/:id/payments", paymentHandler.GetSessionPayments)
	}
}

// SetupPaymentRoutes sets up the payment routes.
func SetupPaymentRoutes(authenticatedGroup *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	paymentRoutes := authenticatedGroup.Group("/payments")
	paymentRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		paymentRoutes.POST("", paymentHandler.RecordPayment)
	}
}

// SetupSettingsRoutes sets up the system settings routes.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	settingRoutes := authenticatedGroup.Group("/settings")
	{
		settingRoutes.GET("/business-rules", settingHandler.GetBusinessRules)

		adminRoutes := settingRoutes.Group("")
		adminRoutes.Use(middleware.RoleAuthMiddleware("Admin"))
		{
			adminRoutes.GET("", settingHandler.GetSettings)
			adminRoutes.GET("/:key", settingHandler.GetSettingByKey)
			adminRoutes.PUT("", settingHandler.UpsertSetting)
			adminRoutes.DELETE("/:key", settingHandler.DeleteSetting)
		}
	}
}
