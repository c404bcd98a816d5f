package router

import (
	"database/sql"

	"pcb_bistro_backend/internal/handlers"
	"pcb_bistro_backend/internal/middleware"
	"pcb_bistro_backend/internal/notifications"
	"pcb_bistro_backend/internal/realtime"
	"pcb_bistro_backend/internal/repositories"
	"pcb_bistro_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, hub *realtime.Hub, sender notifications.Sender, renderer notifications.InvoiceRenderer) {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	invoiceRepo := repositories.NewInvoiceRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)

	// Initialize Services
	authService := services.NewAuthService(authRepo)
	menuService := services.NewMenuService(menuRepo, db)
	pricingService := services.NewPricingService(menuRepo)
	invoiceService := services.NewInvoiceService(invoiceRepo, settingsRepo, orderRepo, menuRepo, renderer, sender, db)
	orderService := services.NewOrderService(orderRepo, settingsRepo, pricingService, invoiceService, sender, hub, repositories.NewTxBeginner(db))

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	menuHandler := handlers.NewMenuHandler(menuService)
	orderHandler := handlers.NewOrderHandler(orderService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)

	apiV1 := engine.Group("/api/v1")

	// Public storefront routes: no authentication, these serve the customer
	// facing ordering flow.
	SetupPublicMenuRoutes(apiV1, menuHandler)
	SetupPublicOrderRoutes(apiV1, orderHandler)
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	// Realtime admin feed. The upgrade request carries the token as a query
	// parameter, so it gets its own auth middleware.
	engine.GET("/ws/admin", middleware.WSAuthMiddleware(), middleware.RoleAuthMiddleware("Admin", "Staff"), hub.ServeWS)

	// Authenticated admin routes
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)

		SetupOrderRoutes(authenticated, orderHandler)
		SetupMenuAdminRoutes(authenticated, menuHandler)
		SetupInvoiceRoutes(authenticated, invoiceHandler)
		SetupSettingsRoutes(authenticated)
		SetupReportRoutes(authenticated)
		SetupDashboardRoutes(authenticated)
	}
}

func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}
