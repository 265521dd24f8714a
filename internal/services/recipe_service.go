package services

import (
	"errors"
	"fmt"
	"sort"

	"resto_pos_backend/internal/models"
	"resto_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	// ErrMenuItemNotFound rejects the whole order when any referenced menu
	// selection is missing or inactive.
	ErrMenuItemNotFound = errors.New("menu item not found or not available")
	// ErrValidation covers malformed line requests (non-positive quantity).
	ErrValidation = errors.New("validation failed")
)

// OrderLineRequest is one requested line of a new order.
type OrderLineRequest struct {
	MenuItemID int64 `json:"menu_item_id" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required,gt=0"`
}

// ExpandedLine is a requested line with its menu snapshot applied.
type ExpandedLine struct {
	MenuItemID int64
	Name       string
	Price      float64
	Category   string
	Quantity   int
	TotalPrice float64
}

// ExpandedOrder is the result of resolving all lines of one order: line
// snapshots, the order total, and the aggregated stock demand across every
// line. An ingredient shared by two lines appears once with the summed
// quantity, so the ledger validates a single combined figure.
type ExpandedOrder struct {
	Lines      []ExpandedLine
	TotalPrice float64
	Demands    map[int64]decimal.Decimal
}

// SortedDemands flattens the demand map into StockDemand slices ordered by
// stock item id, the fixed global lock order used by the ledger.
func (e *ExpandedOrder) SortedDemands() []StockDemand {
	ids := make([]int64, 0, len(e.Demands))
	for id := range e.Demands {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	demands := make([]StockDemand, 0, len(ids))
	for _, id := range ids {
		demands = append(demands, StockDemand{StockItemID: id, Quantity: e.Demands[id]})
	}
	return demands
}

// RecipeService resolves menu selections into priced line snapshots and
// aggregated ingredient demand. It also serves the read-only menu the
// waiter station composes lines from.
type RecipeService interface {
	Expand(lines []OrderLineRequest) (*ExpandedOrder, error)
	GetActiveMenu() ([]models.MenuItem, error)
}

type recipeService struct {
	menuRepo repositories.MenuRepository
}

// NewRecipeService creates a new instance of RecipeService.
func NewRecipeService(mr repositories.MenuRepository) RecipeService {
	return &recipeService{menuRepo: mr}
}

func (s *recipeService) Expand(lines []OrderLineRequest) (*ExpandedOrder, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity for menu item %d must be at least 1", ErrValidation, line.MenuItemID)
		}
		ids = append(ids, line.MenuItemID)
	}

	menuItems, err := s.menuRepo.GetActiveByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menu items: %w", err)
	}

	expanded := &ExpandedOrder{
		Lines:   make([]ExpandedLine, 0, len(lines)),
		Demands: map[int64]decimal.Decimal{},
	}

	for _, line := range lines {
		menuItem, ok := menuItems[line.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: menu item %d", ErrMenuItemNotFound, line.MenuItemID)
		}

		lineTotal := menuItem.Price * float64(line.Quantity)
		expanded.TotalPrice += lineTotal
		expanded.Lines = append(expanded.Lines, ExpandedLine{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Price:      menuItem.Price,
			Category:   menuItem.Category,
			Quantity:   line.Quantity,
			TotalPrice: lineTotal,
		})

		qty := decimal.NewFromInt(int64(line.Quantity))
		for _, ing := range menuItem.Ingredients {
			needed := ing.Quantity.Mul(qty).Round(4)
			expanded.Demands[ing.StockItemID] = expanded.Demands[ing.StockItemID].Add(needed).Round(4)
		}
	}

	return expanded, nil
}

func (s *recipeService) GetActiveMenu() ([]models.MenuItem, error) {
	items, err := s.menuRepo.GetActiveItems()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menu: %w", err)
	}
	return items, nil
}
