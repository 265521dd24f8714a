package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"resto_pos_backend/internal/models"
)

// UsageRepository persists the append-only stock usage audit trail.
// Records are never updated or deleted.
type UsageRepository interface {
	Create(executor SQLExecutor, record *models.UsageRecord) (int64, error)
	GetRecords(filters models.UsageFilters) ([]models.UsageRecord, error)
}

type usageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new instance of UsageRepository.
func NewUsageRepository(db *sql.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Create(executor SQLExecutor, record *models.UsageRecord) (int64, error) {
	query := `INSERT INTO usage_records
	            (stock_item_id, stock_item_name, quantity_used, stock_before,
	             stock_after, order_id, table_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		record.StockItemID, record.StockItemName, record.QuantityUsed, record.StockBefore,
		record.StockAfter, record.OrderID, record.TableID, record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating usage record: %v", ErrDatabaseError, err)
	}
	return record.ID, nil
}

func (r *usageRepository) GetRecords(filters models.UsageFilters) ([]models.UsageRecord, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT id, stock_item_id, stock_item_name, quantity_used, stock_before,
               stock_after, order_id, table_id, created_at
        FROM usage_records
    `)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argCounter))
		args = append(args, *filters.From)
		argCounter++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argCounter))
		args = append(args, *filters.To)
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying usage records: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	records := []models.UsageRecord{}
	for rows.Next() {
		var rec models.UsageRecord
		if err := rows.Scan(&rec.ID, &rec.StockItemID, &rec.StockItemName, &rec.QuantityUsed,
			&rec.StockBefore, &rec.StockAfter, &rec.OrderID, &rec.TableID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning usage record: %v", ErrDatabaseError, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating usage record rows: %v", ErrDatabaseError, err)
	}
	return records, nil
}
