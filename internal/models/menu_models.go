package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is one (stock item, quantity-per-unit) pair of a menu item's
// recipe. Quantity is per one unit of the menu item sold.
type Ingredient struct {
	StockItemID   int64           `json:"stock_item_id" db:"stock_item_id"`
	StockItemName string          `json:"stock_item_name,omitempty" db:"stock_item_name"`
	Quantity      decimal.Decimal `json:"quantity" db:"quantity"`
}

// MenuItem represents a sellable menu selection together with its recipe.
// The engine only reads menu items; editing them belongs to the admin
// collaborator.
type MenuItem struct {
	ID          int64        `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Price       float64      `json:"price" db:"price"`
	Category    string       `json:"category" db:"category"`
	IsActive    bool         `json:"is_active" db:"is_active"`
	Ingredients []Ingredient `json:"ingredients,omitempty"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}
