package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TableStatus is the lifecycle status of a billiard table.
// Stored as a small integer in the billiard_tables table.
type TableStatus int

const (
	TableStatusAvailable   TableStatus = 1
	TableStatusOccupied    TableStatus = 2
	TableStatusMaintenance TableStatus = 3
)

// IsValidTableStatus checks if the provided code is a known TableStatus.
func IsValidTableStatus(status int) bool {
	s := TableStatus(status)
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusMaintenance:
		return true
	default:
		return false
	}
}

func (s TableStatus) String() string {
	switch s {
	case TableStatusAvailable:
		return "available"
	case TableStatusOccupied:
		return "occupied"
	case TableStatusMaintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}

// TableCategory groups billiard tables that share a base hourly rate
// (e.g. Pool, Snooker, Russian Pyramid). Dynamic pricing rules attach
// to a category, not to individual tables.
type TableCategory struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name" binding:"required"`
	Description *string         `json:"description,omitempty" db:"description"`
	BasePrice   decimal.Decimal `json:"base_price" db:"base_price"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// BilliardTable represents a physical table in the hall.
// At most one active session may reference a table at any time; its
// status column is flipped by the session lifecycle, never edited
// directly while occupied.
type BilliardTable struct {
	ID         int64          `json:"id" db:"id"`
	CategoryID int64          `json:"category_id" db:"category_id" binding:"required"`
	Code       string         `json:"code" db:"code" binding:"required"` // unique per hall, e.g. "T-07"
	Status     TableStatus    `json:"status" db:"status"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
	Category   *TableCategory `json:"category,omitempty"` // For joining with TableCategory
}
