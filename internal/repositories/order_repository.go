package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"resto_pos_backend/internal/models"

	"github.com/lib/pq"
)

// OrderRepository defines the interface for order-related database operations.
// Orders are never deleted: they double as the sales audit trail.
type OrderRepository interface {
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	CreateOrderLine(executor SQLExecutor, line *models.OrderLine) (int64, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, error)
	// GetOrderForUpdate locks the order header row for the duration of the
	// surrounding transaction so the payment toggle and its table-freed
	// check read a consistent snapshot.
	GetOrderForUpdate(executor SQLExecutor, orderID int64) (*models.Order, error)
	UpdateOrderStatus(executor SQLExecutor, orderID int64, status string, paidAt *time.Time) error
	// MarkLinePrepared flips the prepared flag; the flag is monotonic so the
	// update is naturally idempotent. Returns rows affected (0 = not found).
	MarkLinePrepared(executor SQLExecutor, orderID int64, lineIndex int) (int64, error)
	CountConfirmedByTable(executor SQLExecutor, tableID string) (int, error)
	GetOccupiedTables() ([]string, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders (table_id, total_price, status, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		order.TableID, order.TotalPrice, order.Status, order.CreatedBy, order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) CreateOrderLine(executor SQLExecutor, line *models.OrderLine) (int64, error) {
	query := `INSERT INTO order_lines
	            (order_id, line_index, menu_item_id, name, price, category, quantity, prepared)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	err := executor.QueryRow(query,
		line.OrderID, line.LineIndex, line.MenuItemID, line.Name, line.Price,
		line.Category, line.Quantity, line.Prepared,
	).Scan(&line.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: creating order line (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating order line: %v", ErrDatabaseError, err)
	}
	return line.ID, nil
}

func (r *orderRepository) GetOrderByID(orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT id, table_id, total_price, status, created_by, created_at, paid_at
	          FROM orders
	          WHERE id = $1`
	err := r.db.QueryRow(query, orderID).Scan(
		&order.ID, &order.TableID, &order.TotalPrice, &order.Status,
		&order.CreatedBy, &order.CreatedAt, &order.PaidAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}

	lines, err := r.getLinesForOrders([]int64{orderID})
	if err != nil {
		return nil, err
	}
	order.Lines = lines[orderID]
	return order, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT id, table_id, total_price, status, created_by, created_at, paid_at
        FROM orders
    `)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argCounter))
		args = append(args, *filters.CreatedBy)
		argCounter++
	}
	if filters.TableID != nil && *filters.TableID != "" {
		conditions = append(conditions, fmt.Sprintf("table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	ids := []int64{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.TableID, &o.TotalPrice, &o.Status,
			&o.CreatedBy, &o.CreatedAt, &o.PaidAt); err != nil {
			return nil, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}

	lines, err := r.getLinesForOrders(ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

// getLinesForOrders fetches lines for a batch of orders in one round trip.
func (r *orderRepository) getLinesForOrders(orderIDs []int64) (map[int64][]models.OrderLine, error) {
	result := map[int64][]models.OrderLine{}
	if len(orderIDs) == 0 {
		return result, nil
	}

	query := `SELECT id, order_id, line_index, menu_item_id, name, price, category, quantity, prepared
	          FROM order_lines
	          WHERE order_id = ANY($1)
	          ORDER BY order_id, line_index`
	rows, err := r.db.Query(query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying order lines: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.LineIndex, &l.MenuItemID, &l.Name,
			&l.Price, &l.Category, &l.Quantity, &l.Prepared); err != nil {
			return nil, fmt.Errorf("%w: scanning order line: %v", ErrDatabaseError, err)
		}
		result[l.OrderID] = append(result[l.OrderID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order line rows: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *orderRepository) GetOrderForUpdate(executor SQLExecutor, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT id, table_id, total_price, status, created_by, created_at, paid_at
	          FROM orders
	          WHERE id = $1
	          FOR UPDATE`
	err := executor.QueryRow(query, orderID).Scan(
		&order.ID, &order.TableID, &order.TotalPrice, &order.Status,
		&order.CreatedBy, &order.CreatedAt, &order.PaidAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking order %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) UpdateOrderStatus(executor SQLExecutor, orderID int64, status string, paidAt *time.Time) error {
	query := `UPDATE orders SET status = $1, paid_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, status, paidAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order status update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) MarkLinePrepared(executor SQLExecutor, orderID int64, lineIndex int) (int64, error) {
	query := `UPDATE order_lines SET prepared = TRUE WHERE order_id = $1 AND line_index = $2`
	result, err := executor.Exec(query, orderID, lineIndex)
	if err != nil {
		return 0, fmt.Errorf("%w: marking line %d of order %d prepared: %v", ErrDatabaseError, lineIndex, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for line prepared update: %v", ErrDatabaseError, err)
	}
	return rowsAffected, nil
}

func (r *orderRepository) CountConfirmedByTable(executor SQLExecutor, tableID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE table_id = $1 AND status = $2`
	err := executor.QueryRow(query, tableID, models.OrderStatusConfirmed).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting confirmed orders for table %s: %v", ErrDatabaseError, tableID, err)
	}
	return count, nil
}

func (r *orderRepository) GetOccupiedTables() ([]string, error) {
	query := `SELECT DISTINCT table_id FROM orders WHERE status = $1`
	rows, err := r.db.Query(query, models.OrderStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("%w: querying occupied tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%w: scanning occupied table: %v", ErrDatabaseError, err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating occupied table rows: %v", ErrDatabaseError, err)
	}
	return tables, nil
}
