package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"billiard_hall_backend/internal/models"

	"github.com/lib/pq"
)

// TableCategoryRepository defines the interface for table category database operations.
type TableCategoryRepository interface {
	CreateCategory(executor SQLExecutor, category *models.TableCategory) (int64, error)
	GetCategoryByID(id int64) (*models.TableCategory, error)
	GetCategories(activeOnly bool) ([]models.TableCategory, error)
	UpdateCategory(executor SQLExecutor, category *models.TableCategory) error
	DeleteCategory(executor SQLExecutor, id int64) error
}

type tableCategoryRepository struct {
	db *sql.DB
}

// NewTableCategoryRepository creates a new instance of TableCategoryRepository.
func NewTableCategoryRepository(db *sql.DB) TableCategoryRepository {
	return &tableCategoryRepository{db: db}
}

func (r *tableCategoryRepository) CreateCategory(executor SQLExecutor, category *models.TableCategory) (int64, error) {
	query := `INSERT INTO table_categories (name, description, base_price, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	currentTime := time.Now()
	category.CreatedAt = currentTime
	category.UpdatedAt = currentTime

	var id int64
	err := executor.QueryRow(query,
		category.Name, category.Description, category.BasePrice, category.IsActive,
		category.CreatedAt, category.UpdatedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateKey, pqErr.Message)
		}
		return 0, fmt.Errorf("%w: creating table category: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *tableCategoryRepository) GetCategoryByID(id int64) (*models.TableCategory, error) {
	var category models.TableCategory
	query := `SELECT id, name, description, base_price, is_active, created_at, updated_at
	          FROM table_categories WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&category.ID, &category.Name, &category.Description, &category.BasePrice,
		&category.IsActive, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: fetching table category ID %d: %v", ErrDatabaseError, id, err)
	}
	return &category, nil
}

func (r *tableCategoryRepository) GetCategories(activeOnly bool) ([]models.TableCategory, error) {
	query := `SELECT id, name, description, base_price, is_active, created_at, updated_at
	          FROM table_categories`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying table categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	categories := []models.TableCategory{}
	for rows.Next() {
		var category models.TableCategory
		if err := rows.Scan(
			&category.ID, &category.Name, &category.Description, &category.BasePrice,
			&category.IsActive, &category.CreatedAt, &category.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning table category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating table category rows: %v", ErrDatabaseError, err)
	}
	return categories, nil
}

func (r *tableCategoryRepository) UpdateCategory(executor SQLExecutor, category *models.TableCategory) error {
	query := `UPDATE table_categories SET name = $1, description = $2, base_price = $3, is_active = $4, updated_at = $5
	          WHERE id = $6
	          RETURNING updated_at`
	category.UpdatedAt = time.Now()

	err := executor.QueryRow(query,
		category.Name, category.Description, category.BasePrice, category.IsActive,
		category.UpdatedAt, category.ID,
	).Scan(&category.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: updating table category ID %d: %v", ErrDatabaseError, category.ID, err)
	}
	return nil
}

func (r *tableCategoryRepository) DeleteCategory(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM table_categories WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: category ID %d is referenced by tables or pricing rules", ErrDatabaseError, id)
		}
		return fmt.Errorf("%w: deleting table category ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
