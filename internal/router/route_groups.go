package router

import (
	"resto_pos_backend/internal/handlers"
	"resto_pos_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupWaiterRoutes sets up the waiter station routes.
func SetupWaiterRoutes(authenticatedGroup *gin.RouterGroup, waiterHandler *handlers.WaiterHandler) {
	waiterRoutes := authenticatedGroup.Group("/waiter")
	waiterRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleWaiter))
	{
		waiterRoutes.POST("/orders", waiterHandler.CreateOrder)
		waiterRoutes.GET("/orders", waiterHandler.GetMyOrders)
		waiterRoutes.GET("/menu", waiterHandler.GetMenu)
		waiterRoutes.GET("/tables", waiterHandler.GetTables)
	}
}

// SetupKitchenRoutes sets up the fulfillment routes shared by the kitchen
// and bar stations; the ticket feed is filtered by the caller's role.
func SetupKitchenRoutes(authenticatedGroup *gin.RouterGroup, kitchenHandler *handlers.KitchenHandler) {
	kitchenRoutes := authenticatedGroup.Group("/kitchen")
	kitchenRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleKitchen, middleware.RoleBar))
	{
		kitchenRoutes.GET("/orders", kitchenHandler.GetTickets)
		kitchenRoutes.PATCH("/orders/:id/lines/:index", kitchenHandler.MarkLinePrepared)
	}
}

// SetupCashierRoutes sets up the cashier station routes.
func SetupCashierRoutes(authenticatedGroup *gin.RouterGroup, cashierHandler *handlers.CashierHandler) {
	cashierRoutes := authenticatedGroup.Group("/cashier")
	cashierRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleCashier))
	{
		cashierRoutes.GET("/orders", cashierHandler.GetOrders)
		cashierRoutes.PATCH("/orders/:id/pay", cashierHandler.TogglePayment)
	}
}

// SetupAdminRoutes sets up the admin pull feeds.
func SetupAdminRoutes(authenticatedGroup *gin.RouterGroup, adminHandler *handlers.AdminHandler) {
	adminRoutes := authenticatedGroup.Group("/admin")
	adminRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleAdmin))
	{
		adminRoutes.GET("/inventory", adminHandler.GetInventory)
		adminRoutes.GET("/reports/inventory", adminHandler.GetUsageReport)
	}
}
