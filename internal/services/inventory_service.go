package services

import (
	"fmt"
	"strings"
	"time"

	"resto_pos_backend/internal/models"
	"resto_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// StockDemand is one (stock item, quantity) requirement of a reservation
// batch.
type StockDemand struct {
	StockItemID int64
	Quantity    decimal.Decimal
}

// Shortage describes one stock item that could not cover its demand.
type Shortage struct {
	StockItemID int64           `json:"stock_item_id"`
	Name        string          `json:"name"`
	Required    decimal.Decimal `json:"required"`
	Available   decimal.Decimal `json:"available"`
}

// InsufficientStockError reports every short item of a rejected batch.
// Nothing has been mutated when it is returned.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("insufficient stock for %q. Required: %s, Available: %s",
			s.Name, s.Required.String(), s.Available.String()))
	}
	return strings.Join(parts, "; ")
}

// InventoryService is the inventory ledger: atomic all-or-nothing batch
// reservation with an append-only usage audit trail, plus the admin pull
// queries.
type InventoryService interface {
	// Reserve validates and deducts a whole demand batch inside the caller's
	// transaction. Either every demand is deducted (one UsageRecord per
	// touched item) or no stock item is modified and an
	// *InsufficientStockError lists every shortage. The updated items are
	// returned so callers can republish them.
	Reserve(executor repositories.SQLExecutor, orderID int64, tableID string, demands []StockDemand) ([]models.StockItem, error)
	GetStockItems() ([]models.StockItem, error)
	GetUsageRecords(filters models.UsageFilters) ([]models.UsageRecord, error)
}

type inventoryService struct {
	stockRepo repositories.StockRepository
	usageRepo repositories.UsageRepository
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(sr repositories.StockRepository, ur repositories.UsageRepository) InventoryService {
	return &inventoryService{stockRepo: sr, usageRepo: ur}
}

func (s *inventoryService) Reserve(executor repositories.SQLExecutor, orderID int64, tableID string, demands []StockDemand) ([]models.StockItem, error) {
	if len(demands) == 0 {
		return []models.StockItem{}, nil
	}

	ids := make([]int64, 0, len(demands))
	for _, d := range demands {
		ids = append(ids, d.StockItemID)
	}

	// Row locks are taken in ascending id order inside LockForUpdate, so two
	// overlapping batches always contend in the same order.
	items, err := s.stockRepo.LockForUpdate(executor, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock items: %w", err)
	}
	byID := make(map[int64]models.StockItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	// Check every demand before touching anything, collecting all shortages
	// so the caller can report them together.
	var shortages []Shortage
	for _, d := range demands {
		item, ok := byID[d.StockItemID]
		if !ok {
			shortages = append(shortages, Shortage{
				StockItemID: d.StockItemID,
				Name:        "unknown",
				Required:    d.Quantity,
				Available:   decimal.Zero,
			})
			continue
		}
		if item.Quantity.LessThan(d.Quantity) {
			shortages = append(shortages, Shortage{
				StockItemID: item.ID,
				Name:        item.Name,
				Required:    d.Quantity,
				Available:   item.Quantity,
			})
		}
	}
	if len(shortages) > 0 {
		return nil, &InsufficientStockError{Shortages: shortages}
	}

	now := time.Now()
	updated := make([]models.StockItem, 0, len(demands))
	for _, d := range demands {
		item := byID[d.StockItemID]
		deduction := d.Quantity.Round(4)
		stockBefore := item.Quantity
		stockAfter := item.Quantity.Sub(deduction).Round(4)

		if err := s.stockRepo.SetQuantity(executor, item.ID, stockAfter, now); err != nil {
			return nil, fmt.Errorf("failed to deduct stock for item %s (ID: %d): %w", item.Name, item.ID, err)
		}

		record := models.UsageRecord{
			StockItemID:   item.ID,
			StockItemName: item.Name,
			QuantityUsed:  deduction,
			StockBefore:   stockBefore,
			StockAfter:    stockAfter,
			OrderID:       orderID,
			TableID:       tableID,
			CreatedAt:     now,
		}
		if _, err := s.usageRepo.Create(executor, &record); err != nil {
			return nil, fmt.Errorf("failed to record stock usage for item %s (ID: %d): %w", item.Name, item.ID, err)
		}

		item.Quantity = stockAfter
		item.LastUpdated = now
		item.UpdatedAt = now
		updated = append(updated, item)
	}

	return updated, nil
}

func (s *inventoryService) GetStockItems() ([]models.StockItem, error) {
	items, err := s.stockRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get stock items: %w", err)
	}
	return items, nil
}

func (s *inventoryService) GetUsageRecords(filters models.UsageFilters) ([]models.UsageRecord, error) {
	records, err := s.usageRepo.GetRecords(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage records: %w", err)
	}
	return records, nil
}
