package router

import (
	"database/sql"
	"time"

	"billiard_hall_backend/internal/handlers"
	"billiard_hall_backend/internal/middleware"
	"billiard_hall_backend/internal/repositories"
	"billiard_hall_backend/internal/services"
	"billiard_hall_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	categoryRepo := repositories.NewTableCategoryRepository(db)
	tableRepo := repositories.NewBilliardTableRepository(db)
	ruleRepo := repositories.NewPricingRuleRepository(db)
	reservationRepo := repositories.NewReservationRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	penaltyRepo := repositories.NewPenaltyRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	settingRepo := repositories.NewSettingRepository(db)

	// Initialize Services
	jwtSecret := utils.Getenv("JWT_SECRET_KEY", "dev-only-insecure-billiard-hall-jwt-key")
	utils.SetJWTSecret(jwtSecret)
	jwtExpiration := time.Hour * 72

	authService := services.NewAuthService(authRepo, db, jwtSecret, jwtExpiration)
	settingsService := services.NewSettingsService(settingRepo, db)
	pricingService := services.NewPricingService(categoryRepo, ruleRepo, db)
	availabilityService := services.NewAvailabilityService(reservationRepo, sessionRepo, tableRepo, settingsService, db)
	reservationService := services.NewReservationService(reservationRepo, tableRepo, availabilityService, settingsService, db)
	sessionService := services.NewSessionService(sessionRepo, penaltyRepo, tableRepo, reservationRepo, pricingService, db)
	paymentService := services.NewPaymentService(paymentRepo, sessionRepo, sessionService, db)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	tableHandler := handlers.NewTableHandler(categoryRepo, tableRepo, availabilityService, db)
	pricingHandler := handlers.NewPricingHandler(pricingService)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	settingHandler := handlers.NewSettingHandler(settingsService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupTableCategoryRoutes(authenticated, tableHandler)
		SetupTableRoutes(authenticated, tableHandler)
		SetupPricingRoutes(authenticated, pricingHandler)
		SetupReservationRoutes(authenticated, reservationHandler)
		SetupSessionRoutes(authenticated, sessionHandler, paymentHandler)
		SetupPaymentRoutes(authenticated, paymentHandler)
		SetupSettingsRoutes(authenticated, settingHandler)
	}
}
