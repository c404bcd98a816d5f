package router

import (
	"pcb_bistro_backend/internal/handlers"
	"pcb_bistro_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPublicMenuRoutes sets up the customer-facing menu routes.
func SetupPublicMenuRoutes(apiGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	apiGroup.GET("/menu", menuHandler.GetMenu)
}

// SetupPublicOrderRoutes sets up the customer-facing ordering routes:
// placing an order and tracking it by its public order number.
func SetupPublicOrderRoutes(apiGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	apiGroup.POST("/orders", orderHandler.CreateOrder)
	apiGroup.GET("/orders/track/:number", orderHandler.TrackOrder)
}

// SetupOrderRoutes sets up the admin order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.PATCH("/:id/accept", orderHandler.AcceptOrder)
		orderRoutes.PATCH("/:id/preparing", orderHandler.MarkPreparing)
		orderRoutes.PATCH("/:id/ready", orderHandler.MarkReady)
		orderRoutes.PATCH("/:id/out-for-delivery", orderHandler.MarkOutForDelivery)
		orderRoutes.PATCH("/:id/complete", orderHandler.CompleteOrder)
		orderRoutes.PATCH("/:id/cancel", orderHandler.CancelOrder)
		orderRoutes.PATCH("/:id/refund", orderHandler.RefundOrder)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
	}
}

// SetupMenuAdminRoutes sets up the menu management routes.
func SetupMenuAdminRoutes(authenticatedGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menuItemRoutes := authenticatedGroup.Group("/menu-items")
	menuItemRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		menuItemRoutes.POST("", menuHandler.CreateMenuItem)
		menuItemRoutes.GET("", menuHandler.GetMenuItems)
		menuItemRoutes.GET("/:id", menuHandler.GetMenuItemByID)
		menuItemRoutes.PUT("/:id", menuHandler.UpdateMenuItem)
		menuItemRoutes.DELETE("/:id", menuHandler.DeleteMenuItem)
		menuItemRoutes.PATCH("/:id/availability", menuHandler.SetMenuItemAvailability)
	}

	optionRoutes := authenticatedGroup.Group("/menu-options")
	optionRoutes.Use(middleware.RoleAuthMiddleware("Admin"))
	{
		optionRoutes.POST("/sauces", menuHandler.CreateSauceOption)
		optionRoutes.POST("/fries", menuHandler.CreateFriesOption)
	}
}

// SetupInvoiceRoutes sets up the invoice routes. Order-scoped lookups live
// under /orders/:id/invoice so /invoices/:id stays free for the row ID.
func SetupInvoiceRoutes(authenticatedGroup *gin.RouterGroup, invoiceHandler *handlers.InvoiceHandler) {
	staff := middleware.RoleAuthMiddleware("Admin", "Staff")

	invoiceRoutes := authenticatedGroup.Group("/invoices")
	invoiceRoutes.Use(staff)
	{
		invoiceRoutes.GET("", invoiceHandler.GetInvoices)
		invoiceRoutes.GET("/:id", invoiceHandler.GetInvoiceByID)
	}

	orderInvoiceRoutes := authenticatedGroup.Group("/orders")
	orderInvoiceRoutes.Use(staff)
	{
		orderInvoiceRoutes.GET("/:id/invoice", invoiceHandler.GetInvoiceByOrderID)
		orderInvoiceRoutes.POST("/:id/invoice/resend", invoiceHandler.ResendInvoice)
	}
}

// SetupSettingsRoutes sets up the application settings routes.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup) {
	settingsRoutes := authenticatedGroup.Group("/settings")
	settingsRoutes.Use(middleware.RoleAuthMiddleware("Admin"))
	{
		settingsRoutes.GET("", handlers.GetApplicationSettings)
		settingsRoutes.POST("", handlers.CreateOrUpdateApplicationSetting)
		settingsRoutes.GET("/:key", handlers.GetApplicationSettingByKey)
		settingsRoutes.DELETE("/:key", handlers.DeleteApplicationSettingByKey)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		reportRoutes.GET("/sales", handlers.GetSalesReports)
	}
}

// SetupDashboardRoutes sets up the dashboard routes.
func SetupDashboardRoutes(authenticatedGroup *gin.RouterGroup) {
	dashboardRoutes := authenticatedGroup.Group("/dashboard")
	dashboardRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		dashboardRoutes.GET("/summary", handlers.GetDashboardSummary)
	}
}
