package repositories

import (
	"database/sql"
	"fmt"

	"resto_pos_backend/internal/models"

	"github.com/lib/pq"
)

// MenuRepository reads menu selections and their recipes. The engine never
// writes menu data; that belongs to the admin collaborator.
type MenuRepository interface {
	// GetActiveByIDs returns the active menu items among the given ids,
	// ingredients included. Callers detect missing/inactive selections by
	// absent map keys.
	GetActiveByIDs(ids []int64) (map[int64]models.MenuItem, error)
	GetActiveItems() ([]models.MenuItem, error)
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) GetActiveByIDs(ids []int64) (map[int64]models.MenuItem, error) {
	items := map[int64]models.MenuItem{}
	if len(ids) == 0 {
		return items, nil
	}

	query := `SELECT id, name, price, category, is_active, created_at, updated_at
	          FROM menu_items
	          WHERE id = ANY($1) AND is_active = TRUE`
	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu items by ids: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var mi models.MenuItem
		if err := rows.Scan(&mi.ID, &mi.Name, &mi.Price, &mi.Category, &mi.IsActive,
			&mi.CreatedAt, &mi.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items[mi.ID] = mi
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu item rows: %v", ErrDatabaseError, err)
	}

	ingQuery := `SELECT mi.menu_item_id, mi.stock_item_id, si.name, mi.quantity
	             FROM menu_item_ingredients mi
	             JOIN stock_items si ON mi.stock_item_id = si.id
	             WHERE mi.menu_item_id = ANY($1)
	             ORDER BY mi.menu_item_id, mi.stock_item_id`
	ingRows, err := r.db.Query(ingQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu item ingredients: %v", ErrDatabaseError, err)
	}
	defer ingRows.Close()

	for ingRows.Next() {
		var menuItemID int64
		var ing models.Ingredient
		if err := ingRows.Scan(&menuItemID, &ing.StockItemID, &ing.StockItemName, &ing.Quantity); err != nil {
			return nil, fmt.Errorf("%w: scanning menu item ingredient: %v", ErrDatabaseError, err)
		}
		item, ok := items[menuItemID]
		if !ok {
			continue
		}
		item.Ingredients = append(item.Ingredients, ing)
		items[menuItemID] = item
	}
	if err := ingRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu ingredient rows: %v", ErrDatabaseError, err)
	}

	return items, nil
}

func (r *menuRepository) GetActiveItems() ([]models.MenuItem, error) {
	query := `SELECT id, name, price, category, is_active, created_at, updated_at
	          FROM menu_items
	          WHERE is_active = TRUE
	          ORDER BY category, name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		var mi models.MenuItem
		if err := rows.Scan(&mi.ID, &mi.Name, &mi.Price, &mi.Category, &mi.IsActive,
			&mi.CreatedAt, &mi.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, mi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}
