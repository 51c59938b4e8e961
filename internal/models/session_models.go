package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle status of a table session.
type SessionStatus int

const (
	SessionStatusActive    SessionStatus = 1
	SessionStatusClosed    SessionStatus = 2
	SessionStatusCancelled SessionStatus = 3
)

// IsValidSessionStatus checks if the provided code is a known SessionStatus.
func IsValidSessionStatus(status int) bool {
	s := SessionStatus(status)
	switch s {
	case SessionStatusActive, SessionStatusClosed, SessionStatusCancelled:
		return true
	default:
		return false
	}
}

func (s SessionStatus) String() string {
	switch s {
	case SessionStatusActive:
		return "active"
	case SessionStatusClosed:
		return "closed"
	case SessionStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// SessionType records how a session came to exist.
type SessionType int

const (
	SessionTypeFromReservation SessionType = 1
	SessionTypeWalkIn          SessionType = 2
)

// IsValidSessionType checks if the provided code is a known SessionType.
func IsValidSessionType(t int) bool {
	st := SessionType(t)
	return st == SessionTypeFromReservation || st == SessionTypeWalkIn
}

func (t SessionType) String() string {
	switch t {
	case SessionTypeFromReservation:
		return "from_reservation"
	case SessionTypeWalkIn:
		return "walk_in"
	default:
		return "unknown"
	}
}

// Session is one continuous occupancy of a table. FinalCost stays zero
// while the session is active and is fixed exactly once, at close.
type Session struct {
	ID            int64           `json:"id" db:"id"`
	UserID        *int64          `json:"user_id,omitempty" db:"user_id"`
	ReservationID *int64          `json:"reservation_id,omitempty" db:"reservation_id"`
	TableID       int64           `json:"table_id" db:"table_id"`
	StartTime     time.Time       `json:"start_time" db:"start_time"`
	EndTime       *time.Time      `json:"end_time,omitempty" db:"end_time"` // nil while active
	SessionType   SessionType     `json:"session_type" db:"session_type"`
	FinalCost     decimal.Decimal `json:"final_cost" db:"final_cost"`
	Status        SessionStatus   `json:"status" db:"status"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	Table         *BilliardTable  `json:"table,omitempty"` // For joining with BilliardTable
}

// Penalty is an append-only surcharge attached to a session before or at
// close time. Amounts are strictly positive.
type Penalty struct {
	ID        int64           `json:"id" db:"id"`
	SessionID int64           `json:"session_id" db:"session_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Reason    string          `json:"reason" db:"reason"`
	AppliedBy int64           `json:"applied_by" db:"applied_by"` // staff user id
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// SessionFilters defines the available filters for querying sessions.
type SessionFilters struct {
	TableID  *int64     `form:"table_id"`
	UserID   *int64     `form:"user_id"`
	Status   *int       `form:"status"`
	DateFrom *time.Time `form:"date_from"`
	DateTo   *time.Time `form:"date_to"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// SessionCloseResult is returned by the close operation so the payment
// flow knows the exact amount due.
type SessionCloseResult struct {
	Session        *Session        `json:"session"`
	Pricing        *PriceQuote     `json:"pricing"`
	Penalties      []Penalty       `json:"penalties"`
	TotalPenalties decimal.Decimal `json:"total_penalties"`
	FinalCost      decimal.Decimal `json:"final_cost"`
}
