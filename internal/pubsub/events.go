package pubsub

import (
	"time"

	"resto_pos_backend/internal/models"
)

// Event names carried in the Envelope.
const (
	EventNewOrder           = "new-order"
	EventItemPrepared       = "item-prepared"
	EventOrderStatusChanged = "order-status-changed"
	EventTableFreed         = "table-freed"
	EventInventoryChanged   = "inventory-changed"
)

// TicketLine is a department projection of one order line: no price data.
// Index is the line's position in the full order, so a mark-prepared call
// from a station addresses the right line even though the station only sees
// its department's subset.
type TicketLine struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Prepared bool   `json:"prepared"`
}

// NewOrderTicket is the new-order payload sent to the kitchen and bar
// channels, holding only that department's lines.
type NewOrderTicket struct {
	OrderID   int64        `json:"order_id"`
	TableID   string       `json:"table_id"`
	Lines     []TicketLine `json:"lines"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// BillLine is a cashier projection of one order line, prices included.
type BillLine struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// NewOrderBill is the new-order payload sent to the cashier channel: every
// line with prices plus the order total.
type NewOrderBill struct {
	OrderID    int64      `json:"order_id"`
	TableID    string     `json:"table_id"`
	Lines      []BillLine `json:"lines"`
	TotalPrice float64    `json:"total_price"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ItemPrepared announces a line's prepared flag flipping to true.
type ItemPrepared struct {
	OrderID   int64 `json:"order_id"`
	LineIndex int   `json:"line_index"`
}

// OrderStatusChanged announces a payment toggle.
type OrderStatusChanged struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// TableFreed announces that a seating location has no remaining unpaid
// orders.
type TableFreed struct {
	TableID string `json:"table_id"`
}

// InventoryChanged carries the stock items updated by a reservation, for
// the admin live feed.
type InventoryChanged struct {
	Items []models.StockItem `json:"items"`
}
