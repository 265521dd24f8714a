package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"resto_pos_backend/internal/models"
	"resto_pos_backend/internal/pubsub"
	"resto_pos_backend/internal/repositories"
	"resto_pos_backend/pkg/utils"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrLineNotFound      = errors.New("order line not found")
	ErrEmptyOrder        = errors.New("order must contain at least one line")
	ErrUnknownDepartment = errors.New("unknown department")
)

// --- Data Transfer Objects (DTOs) ---

// CreateOrderRequest is used for creating a new order. CreatedBy is filled
// from the authenticated caller, never from the payload.
type CreateOrderRequest struct {
	TableID   string             `json:"table_id" binding:"required"`
	Lines     []OrderLineRequest `json:"lines" binding:"required,dive"`
	CreatedBy int64              `json:"-"`
}

// OrderSummaryLine is the price-free line projection returned to waiters.
type OrderSummaryLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// OrderSummary is the waiter-facing projection of an order: no price data.
type OrderSummary struct {
	OrderID   int64              `json:"order_id"`
	TableID   string             `json:"table_id"`
	Lines     []OrderSummaryLine `json:"lines"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// TableState is one seating location with its derived occupancy: occupied
// means at least one confirmed (unpaid) order references it.
type TableState struct {
	Hall     string `json:"hall"`
	Type     string `json:"type"`
	TableID  string `json:"table_id"`
	Occupied bool   `json:"occupied"`
}

// --- OrderService Interface ---

// OrderService is the order engine: it owns the order lifecycle
// (create -> confirmed -> paid and back), per-line preparation flags, and
// the derived station projections. All fan-out to the notification fabric
// happens after the owning transaction has committed.
type OrderService interface {
	CreateOrder(req CreateOrderRequest) (*OrderSummary, error)
	TogglePayment(orderID int64) (*models.Order, bool, error)
	MarkLinePrepared(orderID int64, lineIndex int) error
	GetDepartmentTickets(department string) ([]pubsub.NewOrderTicket, error)
	GetCashierOrders() ([]models.Order, error)
	GetWaiterOrders(createdBy int64) ([]OrderSummary, error)
	GetTableStates() ([]TableState, error)
}

// --- orderService Implementation ---

type orderService struct {
	orderRepo    repositories.OrderRepository
	settingsRepo repositories.SettingsRepository
	recipes      RecipeService
	inventory    InventoryService
	txb          repositories.TxBeginner
	publisher    pubsub.Publisher

	// dispatch runs post-commit fan-out without blocking the caller.
	// Tests replace it with a synchronous runner.
	dispatch func(func())
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	sr repositories.SettingsRepository,
	rs RecipeService,
	is InventoryService,
	txb repositories.TxBeginner,
	pub pubsub.Publisher,
) OrderService {
	return &orderService{
		orderRepo:    or,
		settingsRepo: sr,
		recipes:      rs,
		inventory:    is,
		txb:          txb,
		publisher:    pub,
		dispatch:     func(f func()) { go f() },
	}
}

// --- Method Implementations ---

func (s *orderService) CreateOrder(req CreateOrderRequest) (*OrderSummary, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	expanded, err := s.recipes.Expand(req.Lines)
	if err != nil {
		return nil, err
	}

	tx, err := s.txb.BeginTx()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order := models.Order{
		TableID:    req.TableID,
		TotalPrice: expanded.TotalPrice,
		Status:     models.OrderStatusConfirmed,
		CreatedBy:  req.CreatedBy,
		CreatedAt:  time.Now(),
	}
	if _, err := s.orderRepo.CreateOrder(tx, &order); err != nil {
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}

	for i, line := range expanded.Lines {
		ol := models.OrderLine{
			OrderID:    order.ID,
			LineIndex:  i,
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Price:      line.Price,
			Category:   line.Category,
			Quantity:   line.Quantity,
		}
		if _, err := s.orderRepo.CreateOrderLine(tx, &ol); err != nil {
			return nil, fmt.Errorf("failed to create order line %d: %w", i, err)
		}
		order.Lines = append(order.Lines, ol)
	}

	// The reservation shares the order's transaction: a rejected batch rolls
	// the order insert back with it, so no partial state is ever committed.
	updatedStock, err := s.inventory.Reserve(tx, order.ID, order.TableID, expanded.SortedDemands())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	s.dispatch(func() { s.publishOrderCreated(order, updatedStock) })

	summary := &OrderSummary{
		OrderID:   order.ID,
		TableID:   order.TableID,
		Lines:     summaryLines(order.Lines),
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
	}
	return summary, nil
}

func (s *orderService) TogglePayment(orderID int64) (*models.Order, bool, error) {
	tx, err := s.txb.BeginTx()
	if err != nil {
		return nil, false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := s.orderRepo.GetOrderForUpdate(tx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, false, ErrOrderNotFound
		}
		return nil, false, fmt.Errorf("failed to fetch order for payment toggle: %w", err)
	}

	var newStatus string
	var paidAt *time.Time
	if current.Status == models.OrderStatusPaid {
		// Reversible by design: a cashier correcting a mis-tap reopens the
		// order and clears the paid timestamp.
		newStatus = models.OrderStatusConfirmed
	} else {
		newStatus = models.OrderStatusPaid
		now := time.Now()
		paidAt = &now
	}

	if err := s.orderRepo.UpdateOrderStatus(tx, orderID, newStatus, paidAt); err != nil {
		return nil, false, fmt.Errorf("failed to update order status: %w", err)
	}

	// The freed check runs in the same transaction as the status update so
	// it cannot race a concurrent creation for the same table.
	freed := false
	if newStatus == models.OrderStatusPaid {
		remaining, err := s.orderRepo.CountConfirmedByTable(tx, current.TableID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to count remaining confirmed orders: %w", err)
		}
		freed = remaining == 0
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit payment toggle: %w", err)
	}

	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload order after payment toggle: %w", err)
	}

	tableID := current.TableID
	s.dispatch(func() { s.publishPaymentToggled(orderID, newStatus, tableID, freed) })

	return order, freed, nil
}

func (s *orderService) MarkLinePrepared(orderID int64, lineIndex int) error {
	if lineIndex < 0 {
		return ErrLineNotFound
	}

	tx, err := s.txb.BeginTx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// prepared only ever moves false -> true, so repeating the update is a
	// no-op rather than an error.
	rowsAffected, err := s.orderRepo.MarkLinePrepared(tx, orderID, lineIndex)
	if err != nil {
		return fmt.Errorf("failed to mark line prepared: %w", err)
	}
	if rowsAffected == 0 {
		return ErrLineNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit line prepared update: %w", err)
	}

	s.dispatch(func() { s.publishLinePrepared(orderID, lineIndex) })
	return nil
}

func (s *orderService) GetDepartmentTickets(department string) ([]pubsub.NewOrderTicket, error) {
	if !IsValidDepartment(department) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDepartment, department)
	}

	// Routing is intentionally re-derived from the live mapping at query
	// time rather than cached on the order.
	mapping, err := s.settingsRepo.GetDepartmentMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to load department mapping: %w", err)
	}

	status := models.OrderStatusConfirmed
	orders, err := s.orderRepo.GetOrders(models.OrderFilters{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch confirmed orders: %w", err)
	}

	tickets := []pubsub.NewOrderTicket{}
	for _, order := range orders {
		lines := departmentLines(order, mapping, department)
		if len(lines) == 0 {
			continue
		}
		pending := false
		for _, l := range lines {
			if !l.Prepared {
				pending = true
				break
			}
		}
		if !pending {
			continue
		}
		tickets = append(tickets, pubsub.NewOrderTicket{
			OrderID:   order.ID,
			TableID:   order.TableID,
			Lines:     lines,
			Status:    order.Status,
			CreatedAt: order.CreatedAt,
		})
	}
	return tickets, nil
}

func (s *orderService) GetCashierOrders() ([]models.Order, error) {
	orders, err := s.orderRepo.GetOrders(models.OrderFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetWaiterOrders(createdBy int64) ([]OrderSummary, error) {
	orders, err := s.orderRepo.GetOrders(models.OrderFilters{CreatedBy: &createdBy})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch waiter orders: %w", err)
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, OrderSummary{
			OrderID:   order.ID,
			TableID:   order.TableID,
			Lines:     summaryLines(order.Lines),
			Status:    order.Status,
			CreatedAt: order.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *orderService) GetTableStates() ([]TableState, error) {
	halls, err := s.settingsRepo.GetHalls()
	if err != nil {
		return nil, fmt.Errorf("failed to load halls: %w", err)
	}
	occupied, err := s.orderRepo.GetOccupiedTables()
	if err != nil {
		return nil, fmt.Errorf("failed to load occupied tables: %w", err)
	}
	occupiedSet := make(map[string]bool, len(occupied))
	for _, t := range occupied {
		occupiedSet[t] = true
	}

	states := []TableState{}
	for _, hall := range halls {
		if hall.Type == models.HallTypeCabinet {
			states = append(states, TableState{
				Hall:     hall.Name,
				Type:     hall.Type,
				TableID:  hall.Name,
				Occupied: occupiedSet[hall.Name],
			})
			continue
		}
		for _, n := range hall.Tables {
			label := strconv.FormatInt(n, 10)
			states = append(states, TableState{
				Hall:     hall.Name,
				Type:     hall.Type,
				TableID:  label,
				Occupied: occupiedSet[label],
			})
		}
	}
	return states, nil
}

// --- Fan-out ---

// publishOrderCreated sends the role-scoped projections of a freshly
// committed order: department tickets without prices, the cashier bill with
// prices, and the inventory delta to the admin feed. Failures are logged
// and swallowed; notification is advisory, not authoritative.
func (s *orderService) publishOrderCreated(order models.Order, updatedStock []models.StockItem) {
	ctx := context.Background()

	mapping, err := s.settingsRepo.GetDepartmentMapping()
	if err != nil {
		utils.LogError(err, "publish new-order: failed to load department mapping, using keyword fallback only")
		mapping = models.DepartmentMapping{}
	}

	departmentChannels := map[string]string{
		models.DepartmentKitchen: pubsub.ChannelKitchen,
		models.DepartmentBar:     pubsub.ChannelBar,
	}
	for dept, channel := range departmentChannels {
		lines := departmentLines(order, mapping, dept)
		if len(lines) == 0 {
			continue
		}
		ticket := pubsub.NewOrderTicket{
			OrderID:   order.ID,
			TableID:   order.TableID,
			Lines:     lines,
			Status:    order.Status,
			CreatedAt: order.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, channel, pubsub.EventNewOrder, ticket); err != nil {
			utils.LogError(err, "publish new-order: "+channel)
		}
	}

	billLines := make([]pubsub.BillLine, 0, len(order.Lines))
	for _, l := range order.Lines {
		billLines = append(billLines, pubsub.BillLine{Name: l.Name, Quantity: l.Quantity, Price: l.Price})
	}
	bill := pubsub.NewOrderBill{
		OrderID:    order.ID,
		TableID:    order.TableID,
		Lines:      billLines,
		TotalPrice: order.TotalPrice,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, pubsub.ChannelCashier, pubsub.EventNewOrder, bill); err != nil {
		utils.LogError(err, "publish new-order: "+pubsub.ChannelCashier)
	}

	if len(updatedStock) > 0 {
		delta := pubsub.InventoryChanged{Items: updatedStock}
		if err := s.publisher.Publish(ctx, pubsub.ChannelAdmin, pubsub.EventInventoryChanged, delta); err != nil {
			utils.LogError(err, "publish inventory-changed: "+pubsub.ChannelAdmin)
		}
	}
}

func (s *orderService) publishPaymentToggled(orderID int64, status, tableID string, freed bool) {
	ctx := context.Background()

	change := pubsub.OrderStatusChanged{OrderID: orderID, Status: status}
	if err := s.publisher.Publish(ctx, pubsub.ChannelKitchen, pubsub.EventOrderStatusChanged, change); err != nil {
		utils.LogError(err, "publish order-status-changed: "+pubsub.ChannelKitchen)
	}

	if freed {
		if err := s.publisher.Publish(ctx, pubsub.ChannelWaiter, pubsub.EventTableFreed, pubsub.TableFreed{TableID: tableID}); err != nil {
			utils.LogError(err, "publish table-freed: "+pubsub.ChannelWaiter)
		}
	}
}

func (s *orderService) publishLinePrepared(orderID int64, lineIndex int) {
	ctx := context.Background()
	payload := pubsub.ItemPrepared{OrderID: orderID, LineIndex: lineIndex}
	for _, channel := range []string{pubsub.ChannelKitchen, pubsub.ChannelBar, pubsub.ChannelCashier} {
		if err := s.publisher.Publish(ctx, channel, pubsub.EventItemPrepared, payload); err != nil {
			utils.LogError(err, "publish item-prepared: "+channel)
		}
	}
}

// --- Helpers ---

// departmentLines projects the order lines routed to the given department,
// preserving each line's index in the full order.
func departmentLines(order models.Order, mapping models.DepartmentMapping, department string) []pubsub.TicketLine {
	lines := []pubsub.TicketLine{}
	for _, l := range order.Lines {
		if RouteCategory(mapping, l.Category) != department {
			continue
		}
		lines = append(lines, pubsub.TicketLine{
			Index:    l.LineIndex,
			Name:     l.Name,
			Quantity: l.Quantity,
			Prepared: l.Prepared,
		})
	}
	return lines
}

func summaryLines(lines []models.OrderLine) []OrderSummaryLine {
	out := make([]OrderSummaryLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, OrderSummaryLine{Name: l.Name, Quantity: l.Quantity})
	}
	return out
}
