package models

// Department names. Every order line is routed to exactly one of these two
// fulfillment queues.
const (
	DepartmentKitchen = "kitchen"
	DepartmentBar     = "bar"
)

// Hall types. A hall carries numbered tables; a cabinet is a single named
// room whose name doubles as its table identifier.
const (
	HallTypeHall    = "hall"
	HallTypeCabinet = "cabinet"
)

// DepartmentMapping maps a normalized (trimmed, lowercased) category name to
// a department. It is an immutable snapshot, administered externally and
// re-fetched at each use.
type DepartmentMapping map[string]string

// Hall is a group of seating locations from the floor-layout settings.
// Halls carry numbered tables; cabinets are single named rooms.
type Hall struct {
	ID     int64   `json:"id" db:"id"`
	Name   string  `json:"name" db:"name"`
	Type   string  `json:"type" db:"hall_type"` // "hall" or "cabinet"
	Tables []int64 `json:"tables" db:"tables"`
}
