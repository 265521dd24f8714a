package services

import (
	"errors"
	"testing"

	"resto_pos_backend/internal/models"
	"resto_pos_backend/internal/pubsub"

	"github.com/shopspring/decimal"
)

// newTestOrderService wires an order service over in-memory mocks with
// synchronous fan-out so tests can assert on publications directly.
func newTestOrderService(t *testing.T) (*orderService, *MockOrderRepo, *MockStockRepo, *MockUsageRepo, *MockPublisher, *MockTxBeginner) {
	t.Helper()

	orderRepo := NewMockOrderRepo()
	stockRepo := testStock()
	usageRepo := &MockUsageRepo{}
	settingsRepo := &MockSettingsRepo{
		Mapping: models.DepartmentMapping{"pizza": models.DepartmentKitchen},
		Halls: []models.Hall{
			{ID: 1, Name: "Main Hall", Type: models.HallTypeHall, Tables: []int64{1, 2, 3}},
			{ID: 2, Name: "VIP", Type: models.HallTypeCabinet},
		},
	}
	publisher := &MockPublisher{}
	txb := &MockTxBeginner{}

	svc := NewOrderService(
		orderRepo,
		settingsRepo,
		NewRecipeService(testMenu()),
		NewInventoryService(stockRepo, usageRepo),
		txb,
		publisher,
	).(*orderService)
	svc.dispatch = func(f func()) { f() }

	return svc, orderRepo, stockRepo, usageRepo, publisher, txb
}

func TestCreateOrderCommitsOrderLinesAndStockTogether(t *testing.T) {
	svc, orderRepo, stockRepo, usageRepo, publisher, txb := newTestOrderService(t)

	summary, err := svc.CreateOrder(CreateOrderRequest{
		TableID:   "2",
		CreatedBy: 7,
		Lines: []OrderLineRequest{
			{MenuItemID: 1, Quantity: 2}, // Margherita, kitchen
			{MenuItemID: 3, Quantity: 1}, // Lemonade, bar via keyword
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if summary.TableID != "2" || summary.Status != models.OrderStatusConfirmed {
		t.Errorf("summary = %+v, want table 2, status confirmed", summary)
	}
	if len(summary.Lines) != 2 {
		t.Fatalf("len(summary.Lines) = %d, want 2", len(summary.Lines))
	}

	order, err := orderRepo.GetOrderByID(summary.OrderID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if order.CreatedBy != 7 {
		t.Errorf("order.CreatedBy = %d, want 7", order.CreatedBy)
	}
	if want := 9.50*2 + 3.00; order.TotalPrice != want {
		t.Errorf("order.TotalPrice = %v, want %v", order.TotalPrice, want)
	}
	if len(order.Lines) != 2 || order.Lines[0].LineIndex != 0 || order.Lines[1].LineIndex != 1 {
		t.Errorf("order lines = %+v, want indices 0 and 1", order.Lines)
	}

	// Stock deducted in the same commit: dough 5-0.5, cheese 4-0.2, lemon 0.5-0.5.
	if !stockRepo.Items[10].Quantity.Equal(decimal.NewFromFloat(4.5)) {
		t.Errorf("dough = %s, want 4.5", stockRepo.Items[10].Quantity)
	}
	if !stockRepo.Items[12].Quantity.Equal(decimal.Zero) {
		t.Errorf("lemon = %s, want 0", stockRepo.Items[12].Quantity)
	}
	if len(usageRepo.Records) != 3 {
		t.Errorf("len(usage) = %d, want 3", len(usageRepo.Records))
	}
	if tx := txb.Last(); tx == nil || !tx.Committed {
		t.Error("transaction was not committed")
	}

	// Fan-out: kitchen ticket, bar ticket, cashier bill, admin inventory delta.
	kitchen := publisher.ByChannel(pubsub.ChannelKitchen)
	if len(kitchen) != 1 || kitchen[0].Event != pubsub.EventNewOrder {
		t.Fatalf("kitchen messages = %+v, want one new-order", kitchen)
	}
	ticket := kitchen[0].Data.(pubsub.NewOrderTicket)
	if len(ticket.Lines) != 1 || ticket.Lines[0].Name != "Margherita" {
		t.Errorf("kitchen ticket lines = %+v, want only Margherita", ticket.Lines)
	}

	bar := publisher.ByChannel(pubsub.ChannelBar)
	if len(bar) != 1 {
		t.Fatalf("bar messages = %+v, want one new-order", bar)
	}
	barTicket := bar[0].Data.(pubsub.NewOrderTicket)
	if len(barTicket.Lines) != 1 || barTicket.Lines[0].Name != "Lemonade" {
		t.Errorf("bar ticket lines = %+v, want only Lemonade", barTicket.Lines)
	}

	cashier := publisher.ByChannel(pubsub.ChannelCashier)
	if len(cashier) != 1 {
		t.Fatalf("cashier messages = %+v, want one new-order bill", cashier)
	}
	bill := cashier[0].Data.(pubsub.NewOrderBill)
	if bill.TotalPrice != order.TotalPrice || len(bill.Lines) != 2 {
		t.Errorf("cashier bill = %+v, want both lines with total %v", bill, order.TotalPrice)
	}

	admin := publisher.ByChannel(pubsub.ChannelAdmin)
	if len(admin) != 1 || admin[0].Event != pubsub.EventInventoryChanged {
		t.Errorf("admin messages = %+v, want one inventory-changed", admin)
	}
}

func TestCreateOrderEmpty(t *testing.T) {
	svc, _, _, _, _, _ := newTestOrderService(t)

	_, err := svc.CreateOrder(CreateOrderRequest{TableID: "1"})
	if !errors.Is(err, ErrEmptyOrder) {
		t.Errorf("CreateOrder() error = %v, want ErrEmptyOrder", err)
	}
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	svc, _, stockRepo, usageRepo, publisher, txb := newTestOrderService(t)

	// Two lemonades need 1.0 lemon but only 0.5 is on hand.
	_, err := svc.CreateOrder(CreateOrderRequest{
		TableID:   "1",
		CreatedBy: 7,
		Lines:     []OrderLineRequest{{MenuItemID: 3, Quantity: 2}},
	})

	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("CreateOrder() error = %v, want *InsufficientStockError", err)
	}

	if tx := txb.Last(); tx == nil || tx.Committed || !tx.RolledBack {
		t.Error("transaction should have been rolled back, not committed")
	}
	if !stockRepo.Items[12].Quantity.Equal(decimal.NewFromFloat(0.5)) {
		t.Errorf("lemon = %s, want untouched 0.5", stockRepo.Items[12].Quantity)
	}
	if len(usageRepo.Records) != 0 {
		t.Errorf("len(usage) = %d, want 0", len(usageRepo.Records))
	}
	if len(publisher.Messages) != 0 {
		t.Errorf("published %d messages for a rejected order, want 0", len(publisher.Messages))
	}
}

func TestTogglePaymentMarksPaidAndFreesTable(t *testing.T) {
	svc, orderRepo, _, _, publisher, _ := newTestOrderService(t)

	summary, err := svc.CreateOrder(CreateOrderRequest{
		TableID: "3", CreatedBy: 7,
		Lines: []OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	publisher.Messages = nil

	order, freed, err := svc.TogglePayment(summary.OrderID)
	if err != nil {
		t.Fatalf("TogglePayment() error = %v", err)
	}
	if order.Status != models.OrderStatusPaid {
		t.Errorf("status = %q, want paid", order.Status)
	}
	if order.PaidAt == nil {
		t.Error("PaidAt not set on paid order")
	}
	if !freed {
		t.Error("freed = false, want true for the table's only order")
	}

	waiter := publisher.ByChannel(pubsub.ChannelWaiter)
	if len(waiter) != 1 || waiter[0].Event != pubsub.EventTableFreed {
		t.Fatalf("waiter messages = %+v, want one table-freed", waiter)
	}
	if tf := waiter[0].Data.(pubsub.TableFreed); tf.TableID != "3" {
		t.Errorf("table-freed payload = %+v, want table 3", tf)
	}
	kitchen := publisher.ByChannel(pubsub.ChannelKitchen)
	if len(kitchen) != 1 || kitchen[0].Event != pubsub.EventOrderStatusChanged {
		t.Errorf("kitchen messages = %+v, want one order-status-changed", kitchen)
	}

	// Toggling back reopens the order and clears the timestamp.
	order, freed, err = svc.TogglePayment(summary.OrderID)
	if err != nil {
		t.Fatalf("second TogglePayment() error = %v", err)
	}
	if order.Status != models.OrderStatusConfirmed || order.PaidAt != nil {
		t.Errorf("after toggle back: status %q, paidAt %v; want confirmed, nil", order.Status, order.PaidAt)
	}
	if freed {
		t.Error("freed = true on reopen, want false")
	}

	stored, _ := orderRepo.GetOrderByID(summary.OrderID)
	if stored.Status != models.OrderStatusConfirmed {
		t.Errorf("persisted status = %q, want confirmed", stored.Status)
	}
}

func TestTogglePaymentTableStaysOccupiedWithOtherOrders(t *testing.T) {
	svc, _, _, _, publisher, _ := newTestOrderService(t)

	first, err := svc.CreateOrder(CreateOrderRequest{
		TableID: "5", CreatedBy: 7,
		Lines: []OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderRequest{
		TableID: "5", CreatedBy: 8,
		Lines: []OrderLineRequest{{MenuItemID: 2, Quantity: 1}},
	}); err != nil {
		t.Fatalf("second CreateOrder() error = %v", err)
	}
	publisher.Messages = nil

	_, freed, err := svc.TogglePayment(first.OrderID)
	if err != nil {
		t.Fatalf("TogglePayment() error = %v", err)
	}
	if freed {
		t.Error("freed = true while the table still has a confirmed order")
	}
	if msgs := publisher.ByChannel(pubsub.ChannelWaiter); len(msgs) != 0 {
		t.Errorf("waiter messages = %+v, want none", msgs)
	}
}

func TestTogglePaymentUnknownOrder(t *testing.T) {
	svc, _, _, _, _, _ := newTestOrderService(t)

	_, _, err := svc.TogglePayment(999)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("TogglePayment(999) error = %v, want ErrOrderNotFound", err)
	}
}

func TestMarkLinePrepared(t *testing.T) {
	svc, orderRepo, _, _, publisher, _ := newTestOrderService(t)

	summary, err := svc.CreateOrder(CreateOrderRequest{
		TableID: "1", CreatedBy: 7,
		Lines: []OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	publisher.Messages = nil

	if err := svc.MarkLinePrepared(summary.OrderID, 0); err != nil {
		t.Fatalf("MarkLinePrepared() error = %v", err)
	}
	order, _ := orderRepo.GetOrderByID(summary.OrderID)
	if !order.Lines[0].Prepared {
		t.Error("line 0 not marked prepared")
	}

	for _, channel := range []string{pubsub.ChannelKitchen, pubsub.ChannelBar, pubsub.ChannelCashier} {
		msgs := publisher.ByChannel(channel)
		if len(msgs) != 1 || msgs[0].Event != pubsub.EventItemPrepared {
			t.Errorf("%s messages = %+v, want one item-prepared", channel, msgs)
		}
	}

	// Repeating the call is a no-op, not an error.
	if err := svc.MarkLinePrepared(summary.OrderID, 0); err != nil {
		t.Errorf("repeated MarkLinePrepared() error = %v, want nil", err)
	}
}

func TestMarkLinePreparedNotFound(t *testing.T) {
	svc, _, _, _, _, _ := newTestOrderService(t)

	summary, err := svc.CreateOrder(CreateOrderRequest{
		TableID: "1", CreatedBy: 7,
		Lines: []OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	tests := []struct {
		name    string
		orderID int64
		index   int
	}{
		{name: "unknownOrder", orderID: 999, index: 0},
		{name: "unknownIndex", orderID: summary.OrderID, index: 5},
		{name: "negativeIndex", orderID: summary.OrderID, index: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.MarkLinePrepared(tt.orderID, tt.index); !errors.Is(err, ErrLineNotFound) {
				t.Errorf("MarkLinePrepared() error = %v, want ErrLineNotFound", err)
			}
		})
	}
}

func TestGetDepartmentTickets(t *testing.T) {
	svc, _, _, _, _, _ := newTestOrderService(t)

	mixed, err := svc.CreateOrder(CreateOrderRequest{
		TableID: "1", CreatedBy: 7,
		Lines: []OrderLineRequest{
			{MenuItemID: 1, Quantity: 1}, // kitchen
			{MenuItemID: 3, Quantity: 2}, // bar
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	kitchen, err := svc.GetDepartmentTickets(models.DepartmentKitchen)
	if err != nil {
		t.Fatalf("GetDepartmentTickets(kitchen) error = %v", err)
	}
	if len(kitchen) != 1 {
		t.Fatalf("kitchen tickets = %d, want 1", len(kitchen))
	}
	if len(kitchen[0].Lines) != 1 || kitchen[0].Lines[0].Name != "Margherita" {
		t.Errorf("kitchen ticket lines = %+v, want only Margherita", kitchen[0].Lines)
	}
	if kitchen[0].Lines[0].Index != 0 {
		t.Errorf("kitchen line index = %d, want original order index 0", kitchen[0].Lines[0].Index)
	}

	bar, err := svc.GetDepartmentTickets(models.DepartmentBar)
	if err != nil {
		t.Fatalf("GetDepartmentTickets(bar) error = %v", err)
	}
	if len(bar) != 1 || bar[0].Lines[0].Index != 1 {
		t.Fatalf("bar tickets = %+v, want one ticket with line index 1", bar)
	}

	// Fully prepared department lines drop the ticket from that feed.
	if err := svc.MarkLinePrepared(mixed.OrderID, 0); err != nil {
		t.Fatalf("MarkLinePrepared() error = %v", err)
	}
	kitchen, err = svc.GetDepartmentTickets(models.DepartmentKitchen)
	if err != nil {
		t.Fatalf("GetDepartmentTickets(kitchen) error = %v", err)
	}
	if len(kitchen) != 0 {
		t.Errorf("kitchen tickets after preparation = %d, want 0", len(kitchen))
	}
	bar, err = svc.GetDepartmentTickets(models.DepartmentBar)
	if err != nil {
		t.Fatalf("GetDepartmentTickets(bar) error = %v", err)
	}
	if len(bar) != 1 {
		t.Errorf("bar tickets = %d, want still 1", len(bar))
	}

	// Paid orders leave both feeds.
	if _, _, err := svc.TogglePayment(mixed.OrderID); err != nil {
		t.Fatalf("TogglePayment() error = %v", err)
	}
	bar, err = svc.GetDepartmentTickets(models.DepartmentBar)
	if err != nil {
		t.Fatalf("GetDepartmentTickets(bar) error = %v", err)
	}
	if len(bar) != 0 {
		t.Errorf("bar tickets for paid order = %d, want 0", len(bar))
	}
}

func TestGetDepartmentTicketsUnknownDepartment(t *testing.T) {
	svc, _, _, _, _, _ := newTestOrderService(t)

	_, err := svc.GetDepartmentTickets("laundry")
	if !errors.Is(err, ErrUnknownDepartment) {
		t.Errorf("GetDepartmentTickets(laundry) error = %v, want ErrUnknownDepartment", err)
	}
}

func TestGetWaiterOrdersFiltersByCreatorAndHidesPrices(t *testing.T) {
	svc, _, _, _, _, _ := newTestOrderService(t)

	if _, err := svc.CreateOrder(CreateOrderRequest{
		TableID: "1", CreatedBy: 7,
		Lines: []OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	}); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderRequest{
		TableID: "2", CreatedBy: 8,
		Lines: []OrderLineRequest{{MenuItemID: 2, Quantity: 1}},
	}); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	orders, err := svc.GetWaiterOrders(7)
	if err != nil {
		t.Fatalf("GetWaiterOrders() error = %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("len(orders) = %d, want 1", len(orders))
	}
	if orders[0].TableID != "1" {
		t.Errorf("orders[0].TableID = %q, want 1", orders[0].TableID)
	}
	if len(orders[0].Lines) != 1 || orders[0].Lines[0].Name != "Margherita" {
		t.Errorf("orders[0].Lines = %+v, want Margherita only", orders[0].Lines)
	}
}

func TestGetTableStates(t *testing.T) {
	svc, _, _, _, _, _ := newTestOrderService(t)

	if _, err := svc.CreateOrder(CreateOrderRequest{
		TableID: "2", CreatedBy: 7,
		Lines: []OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	}); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderRequest{
		TableID: "VIP", CreatedBy: 7,
		Lines: []OrderLineRequest{{MenuItemID: 2, Quantity: 1}},
	}); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	states, err := svc.GetTableStates()
	if err != nil {
		t.Fatalf("GetTableStates() error = %v", err)
	}

	// 3 hall tables plus the cabinet.
	if len(states) != 4 {
		t.Fatalf("len(states) = %d, want 4", len(states))
	}

	byID := map[string]TableState{}
	for _, s := range states {
		byID[s.TableID] = s
	}
	if !byID["2"].Occupied {
		t.Error("table 2 should be occupied")
	}
	if byID["1"].Occupied || byID["3"].Occupied {
		t.Error("tables 1 and 3 should be free")
	}
	vip := byID["VIP"]
	if !vip.Occupied || vip.Type != models.HallTypeCabinet || vip.Hall != "VIP" {
		t.Errorf("cabinet state = %+v, want occupied cabinet keyed by hall name", vip)
	}
}
