package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"resto_pos_backend/internal/models"

	"github.com/lib/pq"
)

// SettingsRepository reads the floor-layout and routing configuration.
// Settings administration is an external collaborator; the engine consumes
// immutable snapshots.
type SettingsRepository interface {
	// GetDepartmentMapping returns the category-to-department map with
	// normalized (trimmed, lowercased) keys.
	GetDepartmentMapping() (models.DepartmentMapping, error)
	GetHalls() ([]models.Hall, error)
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetDepartmentMapping() (models.DepartmentMapping, error) {
	query := `SELECT name, department FROM category_departments`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying category departments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	mapping := models.DepartmentMapping{}
	for rows.Next() {
		var name, department string
		if err := rows.Scan(&name, &department); err != nil {
			return nil, fmt.Errorf("%w: scanning category department: %v", ErrDatabaseError, err)
		}
		mapping[strings.ToLower(strings.TrimSpace(name))] = department
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating category department rows: %v", ErrDatabaseError, err)
	}
	return mapping, nil
}

func (r *settingsRepository) GetHalls() ([]models.Hall, error) {
	query := `SELECT id, name, hall_type, tables FROM halls ORDER BY id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying halls: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	halls := []models.Hall{}
	for rows.Next() {
		var h models.Hall
		var tables pq.Int64Array
		if err := rows.Scan(&h.ID, &h.Name, &h.Type, &tables); err != nil {
			return nil, fmt.Errorf("%w: scanning hall: %v", ErrDatabaseError, err)
		}
		h.Tables = []int64(tables)
		halls = append(halls, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating hall rows: %v", ErrDatabaseError, err)
	}
	return halls, nil
}
