package models

import "time"

// ReservationStatus is the lifecycle status of a reservation.
type ReservationStatus int

const (
	ReservationStatusPending   ReservationStatus = 1
	ReservationStatusConfirmed ReservationStatus = 2
	ReservationStatusCancelled ReservationStatus = 3
	ReservationStatusExpired   ReservationStatus = 4
)

// IsValidReservationStatus checks if the provided code is a known ReservationStatus.
func IsValidReservationStatus(status int) bool {
	s := ReservationStatus(status)
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCancelled, ReservationStatusExpired:
		return true
	default:
		return false
	}
}

func (s ReservationStatus) String() string {
	switch s {
	case ReservationStatusPending:
		return "pending"
	case ReservationStatusConfirmed:
		return "confirmed"
	case ReservationStatusCancelled:
		return "cancelled"
	case ReservationStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCancelled || s == ReservationStatusExpired
}

// Reservation is a client's claim on a table for a future time window.
// StartTime/EndTime are full timestamps on ReservationDate's calendar day.
type Reservation struct {
	ID              int64             `json:"id" db:"id"`
	UserID          int64             `json:"user_id" db:"user_id"`
	TableID         int64             `json:"table_id" db:"table_id"`
	ReservationDate time.Time         `json:"reservation_date" db:"reservation_date"`
	StartTime       time.Time         `json:"start_time" db:"start_time"`
	EndTime         time.Time         `json:"end_time" db:"end_time"`
	Status          ReservationStatus `json:"status" db:"status"`
	Notes           *string           `json:"notes,omitempty" db:"notes"`
	RejectReason    *string           `json:"reject_reason,omitempty" db:"reject_reason"`
	ApprovedBy      *int64            `json:"approved_by,omitempty" db:"approved_by"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
	User            *User             `json:"user,omitempty"`  // For joining with User
	Table           *BilliardTable    `json:"table,omitempty"` // For joining with BilliardTable
}

// ReservationFilters defines the available filters for querying reservations.
type ReservationFilters struct {
	UserID   *int64     `form:"user_id"`
	TableID  *int64     `form:"table_id"`
	Status   *int       `form:"status"`
	DateFrom *time.Time `form:"date_from"`
	DateTo   *time.Time `form:"date_to"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// TimeSlot is one bookable window returned by the available-slots query.
type TimeSlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
