package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SystemSetting represents a key-value pair for hall configuration
type SystemSetting struct {
	ID           int64     `json:"id" db:"id"`
	SettingKey   string    `json:"setting_key" db:"setting_key" binding:"required"`
	SettingValue *string   `json:"setting_value,omitempty" db:"setting_value"`
	ValueType    string    `json:"value_type" db:"value_type"` // string, number, boolean, time, json
	Description  *string   `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// BusinessRules is the resolved, typed view of the system_settings rows
// that drive reservation validation and penalty/tax math. Built by the
// settings service; absent keys fall back to defaults there.
type BusinessRules struct {
	OpeningTime           string          `json:"opening_time"`  // "HH:MM:SS"
	ClosingTime           string          `json:"closing_time"`  // "HH:MM:SS"
	BusinessDays          []int           `json:"business_days"` // ISO weekdays, 1=Mon .. 7=Sun
	MinReservationMinutes int             `json:"min_reservation_minutes"`
	MaxReservationMinutes int             `json:"max_reservation_minutes"`
	MinAdvanceHours       int             `json:"min_advance_hours"`
	MaxAdvanceDays        int             `json:"max_advance_days"`
	TaxRate               decimal.Decimal `json:"tax_rate"`            // percent
	HourlyPenaltyRate     decimal.Decimal `json:"hourly_penalty_rate"` // flat amount staff apply per overdue hour
}

// IsBusinessDay reports whether the given ISO weekday is an open day.
func (r BusinessRules) IsBusinessDay(isoWeekday int) bool {
	for _, d := range r.BusinessDays {
		if d == isoWeekday {
			return true
		}
	}
	return false
}
