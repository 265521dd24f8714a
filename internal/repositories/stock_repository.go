package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"resto_pos_backend/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// StockRepository defines the interface for stock-item database operations.
// Administrative creation/adjustment of stock items lives in an external
// collaborator; the engine only reads, locks and deducts.
type StockRepository interface {
	GetAll() ([]models.StockItem, error)
	GetByIDs(executor SQLExecutor, ids []int64) ([]models.StockItem, error)
	// LockForUpdate fetches the rows for the given ids in ascending id order
	// with FOR UPDATE. The fixed global order prevents deadlock between two
	// reservations contending for overlapping item sets.
	LockForUpdate(executor SQLExecutor, ids []int64) ([]models.StockItem, error)
	SetQuantity(executor SQLExecutor, id int64, quantity decimal.Decimal, updatedAt time.Time) error
}

type stockRepository struct {
	db *sql.DB
}

// NewStockRepository creates a new instance of StockRepository.
func NewStockRepository(db *sql.DB) StockRepository {
	return &stockRepository{db: db}
}

const stockItemColumns = `id, name, quantity, unit, last_updated, created_at, updated_at`

func scanStockItems(rows *sql.Rows) ([]models.StockItem, error) {
	items := []models.StockItem{}
	for rows.Next() {
		var it models.StockItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Quantity, &it.Unit,
			&it.LastUpdated, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning stock item: %v", ErrDatabaseError, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating stock item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *stockRepository) GetAll() ([]models.StockItem, error) {
	query := `SELECT ` + stockItemColumns + ` FROM stock_items ORDER BY name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying stock items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	return scanStockItems(rows)
}

func (r *stockRepository) GetByIDs(executor SQLExecutor, ids []int64) ([]models.StockItem, error) {
	if len(ids) == 0 {
		return []models.StockItem{}, nil
	}
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE id = ANY($1) ORDER BY id`
	rows, err := executor.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying stock items by ids: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	return scanStockItems(rows)
}

func (r *stockRepository) LockForUpdate(executor SQLExecutor, ids []int64) ([]models.StockItem, error) {
	if len(ids) == 0 {
		return []models.StockItem{}, nil
	}
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := executor.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: locking stock items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	return scanStockItems(rows)
}

func (r *stockRepository) SetQuantity(executor SQLExecutor, id int64, quantity decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE stock_items SET quantity = $1, last_updated = $2, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, quantity, updatedAt, id)
	if err != nil {
		return fmt.Errorf("%w: updating stock quantity for item %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for stock update %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
