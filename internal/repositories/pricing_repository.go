package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"billiard_hall_backend/internal/models"
)

// PricingRuleRepository defines the interface for dynamic pricing rule database operations.
type PricingRuleRepository interface {
	CreateRule(executor SQLExecutor, rule *models.DynamicPricingRule) (int64, error)
	GetRuleByID(id int64) (*models.DynamicPricingRule, error)
	// GetActiveRulesByCategory returns the active rules for a category,
	// unevaluated; applicability against an instant is service logic.
	GetActiveRulesByCategory(categoryID int64) ([]models.DynamicPricingRule, error)
	GetRulesByCategory(categoryID int64) ([]models.DynamicPricingRule, error)
	UpdateRule(executor SQLExecutor, rule *models.DynamicPricingRule) error
	DeleteRule(executor SQLExecutor, id int64) error
}

type pricingRuleRepository struct {
	db *sql.DB
}

// NewPricingRuleRepository creates a new instance of PricingRuleRepository.
func NewPricingRuleRepository(db *sql.DB) PricingRuleRepository {
	return &pricingRuleRepository{db: db}
}

const selectRuleFields = `
	id, category_id, adjustment_type, percentage, time_start, time_end,
	weekday, date_start, date_end, is_active, created_at, updated_at
`

func scanRuleRow(row scanner) (*models.DynamicPricingRule, error) {
	var rule models.DynamicPricingRule
	err := row.Scan(
		&rule.ID, &rule.CategoryID, &rule.AdjustmentType, &rule.Percentage,
		&rule.TimeStart, &rule.TimeEnd, &rule.Weekday, &rule.DateStart, &rule.DateEnd,
		&rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning pricing rule: %v", ErrDatabaseError, err)
	}
	return &rule, nil
}

func (r *pricingRuleRepository) CreateRule(executor SQLExecutor, rule *models.DynamicPricingRule) (int64, error) {
	query := `INSERT INTO dynamic_pricing
	            (category_id, adjustment_type, percentage, time_start, time_end, weekday, date_start, date_end, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`

	currentTime := time.Now()
	rule.CreatedAt = currentTime
	rule.UpdatedAt = currentTime

	var id int64
	err := executor.QueryRow(query,
		rule.CategoryID, rule.AdjustmentType, rule.Percentage, rule.TimeStart, rule.TimeEnd,
		rule.Weekday, rule.DateStart, rule.DateEnd, rule.IsActive,
		rule.CreatedAt, rule.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: creating pricing rule: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *pricingRuleRepository) GetRuleByID(id int64) (*models.DynamicPricingRule, error) {
	query := "SELECT " + selectRuleFields + " FROM dynamic_pricing WHERE id = $1"
	return scanRuleRow(r.db.QueryRow(query, id))
}

func (r *pricingRuleRepository) getRules(categoryID int64, activeOnly bool) ([]models.DynamicPricingRule, error) {
	query := "SELECT " + selectRuleFields + " FROM dynamic_pricing WHERE category_id = $1"
	if activeOnly {
		query += " AND is_active = true"
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying pricing rules for category %d: %v", ErrDatabaseError, categoryID, err)
	}
	defer rows.Close()

	rules := []models.DynamicPricingRule{}
	for rows.Next() {
		rule, scanErr := scanRuleRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rules = append(rules, *rule)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating pricing rule rows: %v", ErrDatabaseError, err)
	}
	return rules, nil
}

func (r *pricingRuleRepository) GetActiveRulesByCategory(categoryID int64) ([]models.DynamicPricingRule, error) {
	return r.getRules(categoryID, true)
}

func (r *pricingRuleRepository) GetRulesByCategory(categoryID int64) ([]models.DynamicPricingRule, error) {
	return r.getRules(categoryID, false)
}

func (r *pricingRuleRepository) UpdateRule(executor SQLExecutor, rule *models.DynamicPricingRule) error {
	query := `UPDATE dynamic_pricing SET
	            category_id = $1, adjustment_type = $2, percentage = $3, time_start = $4, time_end = $5,
	            weekday = $6, date_start = $7, date_end = $8, is_active = $9, updated_at = $10
	          WHERE id = $11
	          RETURNING updated_at`
	rule.UpdatedAt = time.Now()

	err := executor.QueryRow(query,
		rule.CategoryID, rule.AdjustmentType, rule.Percentage, rule.TimeStart, rule.TimeEnd,
		rule.Weekday, rule.DateStart, rule.DateEnd, rule.IsActive,
		rule.UpdatedAt, rule.ID,
	).Scan(&rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: updating pricing rule ID %d: %v", ErrDatabaseError, rule.ID, err)
	}
	return nil
}

func (r *pricingRuleRepository) DeleteRule(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM dynamic_pricing WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting pricing rule ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
