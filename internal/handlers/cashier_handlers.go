package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"resto_pos_backend/internal/services"
	"resto_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CashierHandler serves the cashier station: the priced bill view and the
// payment toggle.
type CashierHandler struct {
	orderService services.OrderService
}

// NewCashierHandler creates a new CashierHandler.
func NewCashierHandler(os services.OrderService) *CashierHandler {
	return &CashierHandler{orderService: os}
}

// GetOrders returns every order with line prices, totals and payment state.
func (h *CashierHandler) GetOrders(c *gin.Context) {
	orders, err := h.orderService.GetCashierOrders()
	if err != nil {
		utils.LogError(err, "GetOrders: Error from orderService.GetCashierOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch orders.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, orders)
}

// TogglePayment flips an order between confirmed and paid.
func (h *CashierHandler) TogglePayment(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format.", err.Error()))
		return
	}

	order, _, err := h.orderService.TogglePayment(orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
			return
		}
		utils.LogError(err, "TogglePayment: Error from orderService.TogglePayment")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to toggle payment.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, order)
}
