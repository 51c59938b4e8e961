package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"billiard_hall_backend/internal/models"

	"github.com/lib/pq"
)

// BilliardTableRepository defines the interface for billiard table database operations.
type BilliardTableRepository interface {
	CreateTable(executor SQLExecutor, table *models.BilliardTable) (int64, error)
	GetTableByID(id int64) (*models.BilliardTable, error)
	// GetTableByIDForUpdate locks the table row until the surrounding
	// transaction commits. Callers must pass a *sql.Tx.
	GetTableByIDForUpdate(executor SQLExecutor, id int64) (*models.BilliardTable, error)
	GetTables(status *int, categoryID *int64) ([]models.BilliardTable, error)
	UpdateTable(executor SQLExecutor, table *models.BilliardTable) error
	UpdateTableStatus(executor SQLExecutor, id int64, status models.TableStatus) error
	DeleteTable(executor SQLExecutor, id int64) error
}

type billiardTableRepository struct {
	db *sql.DB
}

// NewBilliardTableRepository creates a new instance of BilliardTableRepository.
func NewBilliardTableRepository(db *sql.DB) BilliardTableRepository {
	return &billiardTableRepository{db: db}
}

const selectTableFields = `
	bt.id, bt.category_id, bt.code, bt.status, bt.created_at, bt.updated_at,
	tc.id, tc.name, tc.description, tc.base_price, tc.is_active, tc.created_at, tc.updated_at
`

// scanTableRow scans a billiard table joined with its category.
func scanTableRow(row scanner) (*models.BilliardTable, error) {
	var table models.BilliardTable
	var category models.TableCategory

	err := row.Scan(
		&table.ID, &table.CategoryID, &table.Code, &table.Status, &table.CreatedAt, &table.UpdatedAt,
		&category.ID, &category.Name, &category.Description, &category.BasePrice,
		&category.IsActive, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning billiard table: %v", ErrDatabaseError, err)
	}
	table.Category = &category
	return &table, nil
}

func (r *billiardTableRepository) CreateTable(executor SQLExecutor, table *models.BilliardTable) (int64, error) {
	query := `INSERT INTO billiard_tables (category_id, code, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	currentTime := time.Now()
	table.CreatedAt = currentTime
	table.UpdatedAt = currentTime
	if table.Status == 0 {
		table.Status = models.TableStatusAvailable
	}

	var id int64
	err := executor.QueryRow(query,
		table.CategoryID, table.Code, table.Status, table.CreatedAt, table.UpdatedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: table code '%s' already exists", ErrDuplicateKey, table.Code)
		}
		return 0, fmt.Errorf("%w: creating billiard table: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *billiardTableRepository) GetTableByID(id int64) (*models.BilliardTable, error) {
	query := "SELECT " + selectTableFields + `
		FROM billiard_tables bt
		JOIN table_categories tc ON bt.category_id = tc.id
		WHERE bt.id = $1`
	return scanTableRow(r.db.QueryRow(query, id))
}

func (r *billiardTableRepository) GetTableByIDForUpdate(executor SQLExecutor, id int64) (*models.BilliardTable, error) {
	// Only the billiard_tables row is locked; the category join happens
	// in a second read to keep FOR UPDATE off the joined table.
	var table models.BilliardTable
	query := `SELECT id, category_id, code, status, created_at, updated_at
	          FROM billiard_tables WHERE id = $1 FOR UPDATE`
	err := executor.QueryRow(query, id).Scan(
		&table.ID, &table.CategoryID, &table.Code, &table.Status, &table.CreatedAt, &table.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking billiard table ID %d: %v", ErrDatabaseError, id, err)
	}
	return &table, nil
}

func (r *billiardTableRepository) GetTables(status *int, categoryID *int64) ([]models.BilliardTable, error) {
	query := "SELECT " + selectTableFields + `
		FROM billiard_tables bt
		JOIN table_categories tc ON bt.category_id = tc.id`

	var conditions []string
	var args []interface{}
	argCount := 1
	if status != nil {
		conditions = append(conditions, fmt.Sprintf("bt.status = $%d", argCount))
		args = append(args, *status)
		argCount++
	}
	if categoryID != nil {
		conditions = append(conditions, fmt.Sprintf("bt.category_id = $%d", argCount))
		args = append(args, *categoryID)
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY bt.code"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying billiard tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	tables := []models.BilliardTable{}
	for rows.Next() {
		table, scanErr := scanTableRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tables = append(tables, *table)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating billiard table rows: %v", ErrDatabaseError, err)
	}
	return tables, nil
}

func (r *billiardTableRepository) UpdateTable(executor SQLExecutor, table *models.BilliardTable) error {
	query := `UPDATE billiard_tables SET category_id = $1, code = $2, status = $3, updated_at = $4
	          WHERE id = $5
	          RETURNING updated_at`
	table.UpdatedAt = time.Now()

	err := executor.QueryRow(query,
		table.CategoryID, table.Code, table.Status, table.UpdatedAt, table.ID,
	).Scan(&table.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: updating billiard table ID %d: %v", ErrDatabaseError, table.ID, err)
	}
	return nil
}

func (r *billiardTableRepository) UpdateTableStatus(executor SQLExecutor, id int64, status models.TableStatus) error {
	result, err := executor.Exec(`UPDATE billiard_tables SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: updating status of billiard table ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *billiardTableRepository) DeleteTable(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM billiard_tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting billiard table ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
