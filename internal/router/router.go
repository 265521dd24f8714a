package router

import (
	"database/sql"

	"resto_pos_backend/internal/handlers"
	"resto_pos_backend/internal/middleware"
	"resto_pos_backend/internal/pubsub"
	"resto_pos_backend/internal/repositories"
	"resto_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, publisher pubsub.Publisher) {
	// Initialize Repositories
	stockRepo := repositories.NewStockRepository(db)
	usageRepo := repositories.NewUsageRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)
	txBeginner := repositories.NewTxBeginner(db)

	// Initialize Services
	recipeService := services.NewRecipeService(menuRepo)
	inventoryService := services.NewInventoryService(stockRepo, usageRepo)
	orderService := services.NewOrderService(orderRepo, settingsRepo, recipeService, inventoryService, txBeginner, publisher)

	// Initialize Handlers
	waiterHandler := handlers.NewWaiterHandler(orderService, recipeService)
	kitchenHandler := handlers.NewKitchenHandler(orderService)
	cashierHandler := handlers.NewCashierHandler(orderService)
	adminHandler := handlers.NewAdminHandler(inventoryService)

	apiV1 := engine.Group("/api/v1")

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupWaiterRoutes(authenticated, waiterHandler)
		SetupKitchenRoutes(authenticated, kitchenHandler)
		SetupCashierRoutes(authenticated, cashierHandler)
		SetupAdminRoutes(authenticated, adminHandler)
	}
}
