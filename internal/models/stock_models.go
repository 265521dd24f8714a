package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem represents an inventory-tracked raw ingredient or supply unit.
// Quantity is a fixed-precision decimal (NUMERIC(20,4) in the schema) to
// avoid cumulative floating-point drift across deductions.
type StockItem struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	Unit        string          `json:"unit" db:"unit"`
	LastUpdated time.Time       `json:"last_updated" db:"last_updated"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// UsageRecord is one append-only audit row describing a stock deduction
// triggered by an order. Name is snapshotted so the record stays readable
// after the stock item is renamed or removed.
type UsageRecord struct {
	ID            int64           `json:"id" db:"id"`
	StockItemID   int64           `json:"stock_item_id" db:"stock_item_id"`
	StockItemName string          `json:"stock_item_name" db:"stock_item_name"`
	QuantityUsed  decimal.Decimal `json:"quantity_used" db:"quantity_used"`
	StockBefore   decimal.Decimal `json:"stock_before" db:"stock_before"`
	StockAfter    decimal.Decimal `json:"stock_after" db:"stock_after"`
	OrderID       int64           `json:"order_id" db:"order_id"`
	TableID       string          `json:"table_id" db:"table_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// UsageFilters defines the time-window filters for the usage audit query.
type UsageFilters struct {
	From *time.Time
	To   *time.Time
}
