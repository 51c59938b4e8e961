package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"billiard_hall_backend/internal/models"
)

// SettingRepository defines the interface for system setting database operations.
type SettingRepository interface {
	GetAllSettings() ([]models.SystemSetting, error)
	GetSettingByKey(key string) (*models.SystemSetting, error)
	UpsertSetting(executor SQLExecutor, setting *models.SystemSetting) error
	DeleteSettingByKey(executor SQLExecutor, key string) error
}

type settingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new instance of SettingRepository.
func NewSettingRepository(db *sql.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) GetAllSettings() ([]models.SystemSetting, error) {
	query := `SELECT id, setting_key, setting_value, value_type, description, created_at, updated_at
	          FROM system_settings ORDER BY setting_key`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying system settings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	settings := []models.SystemSetting{}
	for rows.Next() {
		var s models.SystemSetting
		if err := rows.Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.ValueType, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning system setting: %v", ErrDatabaseError, err)
		}
		settings = append(settings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating system setting rows: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *settingRepository) GetSettingByKey(key string) (*models.SystemSetting, error) {
	var s models.SystemSetting
	query := `SELECT id, setting_key, setting_value, value_type, description, created_at, updated_at
	          FROM system_settings WHERE setting_key = $1`
	err := r.db.QueryRow(query, key).Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.ValueType, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: fetching system setting %s: %v", ErrDatabaseError, key, err)
	}
	return &s, nil
}

func (r *settingRepository) UpsertSetting(executor SQLExecutor, setting *models.SystemSetting) error {
	query := `
	    INSERT INTO system_settings (setting_key, setting_value, value_type, description, created_at, updated_at)
	    VALUES ($1, $2, $3, $4, $5, $6)
	    ON CONFLICT (setting_key)
	    DO UPDATE SET setting_value = EXCLUDED.setting_value, value_type = EXCLUDED.value_type,
	                  description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
	    RETURNING id, created_at, updated_at`

	now := time.Now()
	err := executor.QueryRow(query,
		setting.SettingKey, setting.SettingValue, setting.ValueType, setting.Description, now, now,
	).Scan(&setting.ID, &setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: upserting system setting %s: %v", ErrDatabaseError, setting.SettingKey, err)
	}
	return nil
}

func (r *settingRepository) DeleteSettingByKey(executor SQLExecutor, key string) error {
	result, err := executor.Exec(`DELETE FROM system_settings WHERE setting_key = $1`, key)
	if err != nil {
		return fmt.Errorf("%w: deleting system setting %s: %v", ErrDatabaseError, key, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
