package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"billiard_hall_backend/internal/models"
	"billiard_hall_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Settings ---
var (
	ErrSettingNotFound   = errors.New("system setting not found")
	ErrSettingValidation = errors.New("setting validation error")
)

// Setting keys consumed by the reservation and session lifecycles.
const (
	SettingOpeningTime        = "opening_time"
	SettingClosingTime        = "closing_time"
	SettingBusinessDays       = "business_days"
	SettingMinReservationMins = "min_reservation_duration"
	SettingMaxReservationMins = "max_reservation_duration"
	SettingMinAdvanceHours    = "min_advance_hours"
	SettingMaxAdvanceDays     = "max_advance_days"
	SettingTaxRate            = "tax_rate"
	SettingHourlyPenaltyRate  = "hourly_penalty_rate"
)

// --- Settings DTOs ---
type UpsertSettingRequest struct {
	SettingKey   string  `json:"setting_key" binding:"required"`
	SettingValue *string `json:"setting_value"`
	ValueType    string  `json:"value_type"`
	Description  *string `json:"description"`
}

// SettingsService resolves the hall's business rules. It is injected into
// the reservation and session services so the rules are an explicit
// dependency rather than ambient state read at every call site.
type SettingsService interface {
	BusinessRules() (*models.BusinessRules, error)
	GetSettings() ([]models.SystemSetting, error)
	GetSettingByKey(key string) (*models.SystemSetting, error)
	UpsertSetting(req UpsertSettingRequest) (*models.SystemSetting, error)
	DeleteSetting(key string) error
}

type settingsService struct {
	settingRepo repositories.SettingRepository
	db          *sql.DB
}

// NewSettingsService creates a new instance of SettingsService.
func NewSettingsService(sr repositories.SettingRepository, db *sql.DB) SettingsService {
	return &settingsService{settingRepo: sr, db: db}
}

// defaultBusinessRules are applied for keys absent from system_settings.
func defaultBusinessRules() models.BusinessRules {
	return models.BusinessRules{
		OpeningTime:           "09:00:00",
		ClosingTime:           "23:00:00",
		BusinessDays:          []int{1, 2, 3, 4, 5, 6, 7},
		MinReservationMinutes: 30,
		MaxReservationMinutes: 240,
		MinAdvanceHours:       1,
		MaxAdvanceDays:        14,
		TaxRate:               decimal.Zero,
		HourlyPenaltyRate:     decimal.Zero,
	}
}

func (s *settingsService) BusinessRules() (*models.BusinessRules, error) {
	settings, err := s.settingRepo.GetAllSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load system settings: %w", err)
	}

	rules := defaultBusinessRules()
	for _, setting := range settings {
		if setting.SettingValue == nil {
			continue
		}
		value := strings.TrimSpace(*setting.SettingValue)
		if value == "" {
			continue
		}

		switch setting.SettingKey {
		case SettingOpeningTime:
			rules.OpeningTime = normalizeTimeOfDay(value)
		case SettingClosingTime:
			rules.ClosingTime = normalizeTimeOfDay(value)
		case SettingBusinessDays:
			if days, parseErr := parseBusinessDays(value); parseErr == nil {
				rules.BusinessDays = days
			}
		case SettingMinReservationMins:
			if n, parseErr := strconv.Atoi(value); parseErr == nil && n > 0 {
				rules.MinReservationMinutes = n
			}
		case SettingMaxReservationMins:
			if n, parseErr := strconv.Atoi(value); parseErr == nil && n > 0 {
				rules.MaxReservationMinutes = n
			}
		case SettingMinAdvanceHours:
			if n, parseErr := strconv.Atoi(value); parseErr == nil && n >= 0 {
				rules.MinAdvanceHours = n
			}
		case SettingMaxAdvanceDays:
			if n, parseErr := strconv.Atoi(value); parseErr == nil && n > 0 {
				rules.MaxAdvanceDays = n
			}
		case SettingTaxRate:
			if d, parseErr := decimal.NewFromString(value); parseErr == nil {
				rules.TaxRate = d
			}
		case SettingHourlyPenaltyRate:
			if d, parseErr := decimal.NewFromString(value); parseErr == nil {
				rules.HourlyPenaltyRate = d
			}
		}
	}
	return &rules, nil
}

// normalizeTimeOfDay pads "HH:MM" to "HH:MM:SS" so that time-of-day
// strings compare lexicographically regardless of how they were stored.
func normalizeTimeOfDay(value string) string {
	if len(value) == 5 { // "HH:MM"
		return value + ":00"
	}
	return value
}

// parseBusinessDays parses a comma-separated list of ISO weekdays,
// normalizing Sunday given as 0 to 7.
func parseBusinessDays(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	days := make([]int, 0, len(parts))
	for _, part := range parts {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid business day '%s'", ErrSettingValidation, part)
		}
		if day == 0 {
			day = 7
		}
		if day < 1 || day > 7 {
			return nil, fmt.Errorf("%w: business day %d out of range", ErrSettingValidation, day)
		}
		days = append(days, day)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: empty business day list", ErrSettingValidation)
	}
	return days, nil
}

func (s *settingsService) GetSettings() ([]models.SystemSetting, error) {
	settings, err := s.settingRepo.GetAllSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get system settings: %w", err)
	}
	return settings, nil
}

func (s *settingsService) GetSettingByKey(key string) (*models.SystemSetting, error) {
	setting, err := s.settingRepo.GetSettingByKey(key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
		}
		return nil, fmt.Errorf("failed to get system setting: %w", err)
	}
	return setting, nil
}

func (s *settingsService) UpsertSetting(req UpsertSettingRequest) (*models.SystemSetting, error) {
	if strings.TrimSpace(req.SettingKey) == "" {
		return nil, fmt.Errorf("%w: setting key cannot be empty", ErrSettingValidation)
	}
	valueType := req.ValueType
	if valueType == "" {
		valueType = "string"
	}
	switch valueType {
	case "string", "number", "boolean", "time", "json":
	default:
		return nil, fmt.Errorf("%w: unknown value type '%s'", ErrSettingValidation, valueType)
	}

	setting := &models.SystemSetting{
		SettingKey:   req.SettingKey,
		SettingValue: req.SettingValue,
		ValueType:    valueType,
		Description:  req.Description,
	}
	if err := s.settingRepo.UpsertSetting(s.db, setting); err != nil {
		return nil, fmt.Errorf("failed to upsert system setting: %w", err)
	}
	return setting, nil
}

func (s *settingsService) DeleteSetting(key string) error {
	err := s.settingRepo.DeleteSettingByKey(s.db, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrSettingNotFound, key)
		}
		return fmt.Errorf("failed to delete system setting: %w", err)
	}
	return nil
}
