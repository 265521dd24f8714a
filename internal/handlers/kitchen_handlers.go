package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"resto_pos_backend/internal/services"
	"resto_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// KitchenHandler serves both fulfillment departments: kitchen and bar
// stations hit the same routes, filtered by the caller's role.
type KitchenHandler struct {
	orderService services.OrderService
}

// NewKitchenHandler creates a new KitchenHandler.
func NewKitchenHandler(os services.OrderService) *KitchenHandler {
	return &KitchenHandler{orderService: os}
}

// GetTickets returns the caller department's pending tickets: confirmed
// orders that still have at least one unprepared line routed to it.
func (h *KitchenHandler) GetTickets(c *gin.Context) {
	department := c.GetString("userRole")

	tickets, err := h.orderService.GetDepartmentTickets(department)
	if err != nil {
		if errors.Is(err, services.ErrUnknownDepartment) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Caller role is not a fulfillment department.", err.Error()))
			return
		}
		utils.LogError(err, "GetTickets: Error from orderService.GetDepartmentTickets")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch tickets.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// MarkLinePrepared flips one order line's prepared flag. Repeating the call
// is a no-op, not an error.
func (h *KitchenHandler) MarkLinePrepared(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format.", err.Error()))
		return
	}
	lineIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid line index format.", err.Error()))
		return
	}

	if err := h.orderService.MarkLinePrepared(orderID, lineIndex); err != nil {
		if errors.Is(err, services.ErrLineNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order line not found.", err.Error()))
			return
		}
		utils.LogError(err, "MarkLinePrepared: Error from orderService.MarkLinePrepared")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to mark line prepared.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Line marked as prepared."})
}
