package models

import "time"

// Order statuses. There are only two: payment toggles between them and no
// cancellation state exists, orders are the audit trail and are never
// deleted.
const (
	OrderStatusConfirmed = "confirmed"
	OrderStatusPaid      = "paid"
)

// OrderLine is one line of an order. Name, price and category are snapshots
// taken at creation time so later menu edits do not rewrite history.
// Prepared starts false and only ever moves to true.
type OrderLine struct {
	ID         int64   `json:"id" db:"id"`
	OrderID    int64   `json:"order_id" db:"order_id"`
	LineIndex  int     `json:"line_index" db:"line_index"`
	MenuItemID int64   `json:"menu_item_id" db:"menu_item_id"`
	Name       string  `json:"name" db:"name"`
	Price      float64 `json:"price" db:"price"`
	Category   string  `json:"category" db:"category"`
	Quantity   int     `json:"quantity" db:"quantity"`
	Prepared   bool    `json:"prepared" db:"prepared"`
}

// Order represents a confirmed table order. TableID is a free-form string:
// numbered hall tables and named cabinets share the representation.
// TotalPrice is computed once at creation from the line snapshots.
type Order struct {
	ID         int64       `json:"id" db:"id"`
	TableID    string      `json:"table_id" db:"table_id"`
	Lines      []OrderLine `json:"lines"`
	TotalPrice float64     `json:"total_price" db:"total_price"`
	Status     string      `json:"status" db:"status"`
	CreatedBy  int64       `json:"created_by" db:"created_by"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	PaidAt     *time.Time  `json:"paid_at,omitempty" db:"paid_at"`
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	Status    *string
	CreatedBy *int64
	TableID   *string
}
