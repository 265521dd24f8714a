package handlers

import (
	"errors"
	"net/http"

	"resto_pos_backend/internal/services"
	"resto_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// WaiterHandler serves the waiter station: order submission and the
// price-free read views it needs.
type WaiterHandler struct {
	orderService  services.OrderService
	recipeService services.RecipeService
}

// NewWaiterHandler creates a new WaiterHandler.
func NewWaiterHandler(os services.OrderService, rs services.RecipeService) *WaiterHandler {
	return &WaiterHandler{orderService: os, recipeService: rs}
}

// waiterMenuItem hides prices from the waiter menu listing.
type waiterMenuItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// CreateOrder handles the submission of a new table order.
func (h *WaiterHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateOrder: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	userID, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", "Missing user ID"))
		return
	}
	req.CreatedBy = userID.(int64)

	summary, err := h.orderService.CreateOrder(req)
	if err != nil {
		var insufficient *services.InsufficientStockError
		switch {
		case errors.Is(err, services.ErrEmptyOrder), errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order submission.", err.Error()))
		case errors.Is(err, services.ErrMenuItemNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "One or more menu items not found or unavailable.", err.Error()))
		case errors.As(err, &insufficient):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), insufficient.Shortages))
		default:
			utils.LogError(err, "CreateOrder: Error from orderService.CreateOrder")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create order.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// GetMyOrders returns the caller's own orders, without price data.
func (h *WaiterHandler) GetMyOrders(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", "Missing user ID"))
		return
	}

	summaries, err := h.orderService.GetWaiterOrders(userID.(int64))
	if err != nil {
		utils.LogError(err, "GetMyOrders: Error from orderService.GetWaiterOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch orders.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetMenu returns the active menu selections, names and categories only.
func (h *WaiterHandler) GetMenu(c *gin.Context) {
	items, err := h.recipeService.GetActiveMenu()
	if err != nil {
		utils.LogError(err, "GetMenu: Error from recipeService.GetActiveMenu")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch menu.", "Internal error"))
		return
	}

	menu := make([]waiterMenuItem, 0, len(items))
	for _, item := range items {
		menu = append(menu, waiterMenuItem{ID: item.ID, Name: item.Name, Category: item.Category})
	}
	c.JSON(http.StatusOK, menu)
}

// GetTables returns the floor layout with derived occupancy per table.
func (h *WaiterHandler) GetTables(c *gin.Context) {
	states, err := h.orderService.GetTableStates()
	if err != nil {
		utils.LogError(err, "GetTables: Error from orderService.GetTableStates")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch table states.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, states)
}
