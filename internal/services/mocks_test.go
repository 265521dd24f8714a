package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"resto_pos_backend/internal/models"
	"resto_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// MockTx is a no-op transaction handle that records whether the service
// committed or rolled it back.
type MockTx struct {
	Committed  bool
	RolledBack bool
	CommitErr  error
}

func (t *MockTx) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (t *MockTx) QueryRow(query string, args ...interface{}) *sql.Row        { return nil }
func (t *MockTx) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }

func (t *MockTx) Commit() error {
	if t.CommitErr != nil {
		return t.CommitErr
	}
	t.Committed = true
	return nil
}

func (t *MockTx) Rollback() error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTxBeginner hands out MockTx instances and keeps them for inspection.
type MockTxBeginner struct {
	BeginErr error
	Txs      []*MockTx
}

func (b *MockTxBeginner) BeginTx() (repositories.Tx, error) {
	if b.BeginErr != nil {
		return nil, b.BeginErr
	}
	tx := &MockTx{}
	b.Txs = append(b.Txs, tx)
	return tx, nil
}

func (b *MockTxBeginner) Last() *MockTx {
	if len(b.Txs) == 0 {
		return nil
	}
	return b.Txs[len(b.Txs)-1]
}

// MockStockRepo is an in-memory implementation of repositories.StockRepository.
type MockStockRepo struct {
	Items             map[int64]models.StockItem
	LockForUpdateFunc func(ids []int64) ([]models.StockItem, error)
	SetQuantityErr    error
}

func NewMockStockRepo(items ...models.StockItem) *MockStockRepo {
	m := &MockStockRepo{Items: map[int64]models.StockItem{}}
	for _, it := range items {
		m.Items[it.ID] = it
	}
	return m
}

func (m *MockStockRepo) GetAll() ([]models.StockItem, error) {
	return m.itemsByID(nil), nil
}

func (m *MockStockRepo) GetByIDs(executor repositories.SQLExecutor, ids []int64) ([]models.StockItem, error) {
	return m.itemsByID(ids), nil
}

func (m *MockStockRepo) LockForUpdate(executor repositories.SQLExecutor, ids []int64) ([]models.StockItem, error) {
	if m.LockForUpdateFunc != nil {
		return m.LockForUpdateFunc(ids)
	}
	return m.itemsByID(ids), nil
}

func (m *MockStockRepo) SetQuantity(executor repositories.SQLExecutor, id int64, quantity decimal.Decimal, updatedAt time.Time) error {
	if m.SetQuantityErr != nil {
		return m.SetQuantityErr
	}
	item := m.Items[id]
	item.Quantity = quantity
	item.LastUpdated = updatedAt
	item.UpdatedAt = updatedAt
	m.Items[id] = item
	return nil
}

// itemsByID returns the matched items in ascending id order, mirroring the
// real repository. A nil ids slice returns everything.
func (m *MockStockRepo) itemsByID(ids []int64) []models.StockItem {
	if ids == nil {
		ids = make([]int64, 0, len(m.Items))
		for id := range m.Items {
			ids = append(ids, id)
		}
	}
	sorted := append([]int64{}, ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := []models.StockItem{}
	for _, id := range sorted {
		if it, ok := m.Items[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

// MockUsageRepo records usage entries in memory.
type MockUsageRepo struct {
	Records   []models.UsageRecord
	CreateErr error
	nextID    int64
}

func (m *MockUsageRepo) Create(executor repositories.SQLExecutor, record *models.UsageRecord) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextID++
	record.ID = m.nextID
	m.Records = append(m.Records, *record)
	return record.ID, nil
}

func (m *MockUsageRepo) GetRecords(filters models.UsageFilters) ([]models.UsageRecord, error) {
	return m.Records, nil
}

// MockMenuRepo serves menu items from an in-memory map.
type MockMenuRepo struct {
	Items map[int64]models.MenuItem
}

func NewMockMenuRepo(items ...models.MenuItem) *MockMenuRepo {
	m := &MockMenuRepo{Items: map[int64]models.MenuItem{}}
	for _, it := range items {
		m.Items[it.ID] = it
	}
	return m
}

func (m *MockMenuRepo) GetActiveByIDs(ids []int64) (map[int64]models.MenuItem, error) {
	out := map[int64]models.MenuItem{}
	for _, id := range ids {
		if it, ok := m.Items[id]; ok && it.IsActive {
			out[id] = it
		}
	}
	return out, nil
}

func (m *MockMenuRepo) GetActiveItems() ([]models.MenuItem, error) {
	out := []models.MenuItem{}
	for _, it := range m.Items {
		if it.IsActive {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MockOrderRepo is an in-memory implementation of repositories.OrderRepository.
type MockOrderRepo struct {
	Orders map[int64]*models.Order
	nextID int64
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{Orders: map[int64]*models.Order{}}
}

func (m *MockOrderRepo) CreateOrder(executor repositories.SQLExecutor, order *models.Order) (int64, error) {
	m.nextID++
	order.ID = m.nextID
	stored := *order
	m.Orders[order.ID] = &stored
	return order.ID, nil
}

func (m *MockOrderRepo) CreateOrderLine(executor repositories.SQLExecutor, line *models.OrderLine) (int64, error) {
	line.ID = int64(len(m.Orders[line.OrderID].Lines) + 1)
	m.Orders[line.OrderID].Lines = append(m.Orders[line.OrderID].Lines, *line)
	return line.ID, nil
}

func (m *MockOrderRepo) GetOrderByID(orderID int64) (*models.Order, error) {
	order, ok := m.Orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepo) GetOrders(filters models.OrderFilters) ([]models.Order, error) {
	out := []models.Order{}
	ids := make([]int64, 0, len(m.Orders))
	for id := range m.Orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		o := m.Orders[id]
		if filters.Status != nil && o.Status != *filters.Status {
			continue
		}
		if filters.CreatedBy != nil && o.CreatedBy != *filters.CreatedBy {
			continue
		}
		if filters.TableID != nil && o.TableID != *filters.TableID {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *MockOrderRepo) GetOrderForUpdate(executor repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	return m.GetOrderByID(orderID)
}

func (m *MockOrderRepo) UpdateOrderStatus(executor repositories.SQLExecutor, orderID int64, status string, paidAt *time.Time) error {
	order, ok := m.Orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.Status = status
	order.PaidAt = paidAt
	return nil
}

func (m *MockOrderRepo) MarkLinePrepared(executor repositories.SQLExecutor, orderID int64, lineIndex int) (int64, error) {
	order, ok := m.Orders[orderID]
	if !ok {
		return 0, nil
	}
	for i := range order.Lines {
		if order.Lines[i].LineIndex == lineIndex {
			order.Lines[i].Prepared = true
			return 1, nil
		}
	}
	return 0, nil
}

func (m *MockOrderRepo) CountConfirmedByTable(executor repositories.SQLExecutor, tableID string) (int, error) {
	count := 0
	for _, o := range m.Orders {
		if o.TableID == tableID && o.Status == models.OrderStatusConfirmed {
			count++
		}
	}
	return count, nil
}

func (m *MockOrderRepo) GetOccupiedTables() ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	for _, o := range m.Orders {
		if o.Status == models.OrderStatusConfirmed && !seen[o.TableID] {
			seen[o.TableID] = true
			out = append(out, o.TableID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// MockSettingsRepo serves a fixed mapping and hall layout.
type MockSettingsRepo struct {
	Mapping models.DepartmentMapping
	Halls   []models.Hall
}

func (m *MockSettingsRepo) GetDepartmentMapping() (models.DepartmentMapping, error) {
	if m.Mapping == nil {
		return models.DepartmentMapping{}, nil
	}
	return m.Mapping, nil
}

func (m *MockSettingsRepo) GetHalls() ([]models.Hall, error) {
	return m.Halls, nil
}

// publishedMessage is one recorded fabric publication.
type publishedMessage struct {
	Channel string
	Event   string
	Data    interface{}
}

// MockPublisher records every publication for assertion.
type MockPublisher struct {
	mu          sync.Mutex
	Messages    []publishedMessage
	PublishFunc func(ctx context.Context, channel, event string, data interface{}) error
}

func (m *MockPublisher) Publish(ctx context.Context, channel, event string, data interface{}) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, channel, event, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, publishedMessage{Channel: channel, Event: event, Data: data})
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// ByChannel returns the recorded messages published to the given channel.
func (m *MockPublisher) ByChannel(channel string) []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []publishedMessage{}
	for _, msg := range m.Messages {
		if msg.Channel == channel {
			out = append(out, msg)
		}
	}
	return out
}
