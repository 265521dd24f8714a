package handlers

import (
	"net/http"
	"time"

	"resto_pos_backend/internal/models"
	"resto_pos_backend/internal/services"
	"resto_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the admin station's pull feeds: current stock and the
// usage audit trail. Inventory and menu editing stay with the external
// collaborator.
type AdminHandler struct {
	inventoryService services.InventoryService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(is services.InventoryService) *AdminHandler {
	return &AdminHandler{inventoryService: is}
}

// GetInventory returns the current stock levels.
func (h *AdminHandler) GetInventory(c *gin.Context) {
	items, err := h.inventoryService.GetStockItems()
	if err != nil {
		utils.LogError(err, "GetInventory: Error from inventoryService.GetStockItems")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch inventory.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetUsageReport returns usage records within the optional from/to window.
// Timestamps accept RFC3339 or YYYY-MM-DD.
func (h *AdminHandler) GetUsageReport(c *gin.Context) {
	var filters models.UsageFilters

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := parseTimeParam(fromStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid 'from' timestamp.", err.Error()))
			return
		}
		filters.From = from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := parseTimeParam(toStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid 'to' timestamp.", err.Error()))
			return
		}
		filters.To = to
	}

	records, err := h.inventoryService.GetUsageRecords(filters)
	if err != nil {
		utils.LogError(err, "GetUsageReport: Error from inventoryService.GetUsageRecords")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch usage records.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, records)
}

func parseTimeParam(s string) (*time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}
