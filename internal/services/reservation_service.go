package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"billiard_hall_backend/internal/models"
	"billiard_hall_backend/internal/repositories"
)

// --- Custom Service Errors for Reservations ---
var (
	ErrReservationNotFound     = errors.New("reservation not found")
	ErrReservationValidation   = errors.New("reservation data validation error")
	ErrNotBusinessDay          = errors.New("hall is closed on the requested day")
	ErrOutsideBusinessHours    = errors.New("reservation is outside business hours")
	ErrDurationOutOfRange      = errors.New("reservation duration is out of the allowed range")
	ErrAdvanceNoticeViolation  = errors.New("reservation start violates the advance notice window")
	ErrTableNotAvailable       = errors.New("table is not available for the requested time")
	ErrInvalidStatusTransition = errors.New("operation invalid for the reservation's current status")
	ErrAlreadyCancelled        = errors.New("reservation is already cancelled")
)

const defaultRejectReason = "no reason specified"

// --- Reservation DTOs ---
type CreateReservationRequest struct {
	UserID          int64   `json:"user_id" binding:"required"`
	TableID         int64   `json:"table_id" binding:"required"`
	ReservationDate string  `json:"reservation_date" binding:"required"` // "2006-01-02"
	StartTime       string  `json:"start_time" binding:"required"`       // "HH:MM" or "HH:MM:SS"
	EndTime         string  `json:"end_time" binding:"required"`
	Notes           *string `json:"notes"`
}

type UpdateReservationRequest struct {
	TableID         *int64  `json:"table_id"`
	ReservationDate *string `json:"reservation_date"`
	StartTime       *string `json:"start_time"`
	EndTime         *string `json:"end_time"`
	Notes           *string `json:"notes"`
}

// ReservationService drives the reservation lifecycle:
// Pending -> {Confirmed, Cancelled}; Confirmed -> Cancelled;
// Pending/Confirmed -> Expired. Cancelled and Expired are terminal.
type ReservationService interface {
	CreateReservation(req CreateReservationRequest) (*models.Reservation, error)
	GetReservationByID(id int64) (*models.Reservation, error)
	GetReservations(filters models.ReservationFilters) ([]models.Reservation, int, error)
	UpdateReservation(id int64, req UpdateReservationRequest) (*models.Reservation, error)
	ApproveReservation(id, adminUserID int64) (*models.Reservation, error)
	RejectReservation(id, adminUserID int64, reason string) (*models.Reservation, error)
	CancelReservation(id int64) (*models.Reservation, error)
	ExpireReservation(id int64) (*models.Reservation, error)
}

type reservationService struct {
	reservationRepo repositories.ReservationRepository
	tableRepo       repositories.BilliardTableRepository
	availability    AvailabilityService
	settingsService SettingsService
	db              *sql.DB
}

// NewReservationService creates a new instance of ReservationService.
func NewReservationService(
	rr repositories.ReservationRepository,
	tr repositories.BilliardTableRepository,
	av AvailabilityService,
	ss SettingsService,
	db *sql.DB,
) ReservationService {
	return &reservationService{
		reservationRepo: rr,
		tableRepo:       tr,
		availability:    av,
		settingsService: ss,
		db:              db,
	}
}

// parseReservationWindow combines a calendar date with wall-clock start
// and end values into concrete timestamps.
func parseReservationWindow(dateStr, startStr, endStr string) (date, start, end time.Time, err error) {
	date, err = time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		return date, start, end, fmt.Errorf("%w: invalid reservation_date, use YYYY-MM-DD", ErrReservationValidation)
	}

	startClock, err := parseTimeOfDay(startStr)
	if err != nil {
		return date, start, end, fmt.Errorf("%w: invalid start_time, use HH:MM or HH:MM:SS", ErrReservationValidation)
	}
	endClock, err := parseTimeOfDay(endStr)
	if err != nil {
		return date, start, end, fmt.Errorf("%w: invalid end_time, use HH:MM or HH:MM:SS", ErrReservationValidation)
	}

	start, err = atTimeOfDay(date, startClock)
	if err != nil {
		return date, start, end, fmt.Errorf("%w: invalid start_time", ErrReservationValidation)
	}
	end, err = atTimeOfDay(date, endClock)
	if err != nil {
		return date, start, end, fmt.Errorf("%w: invalid end_time", ErrReservationValidation)
	}
	if !end.After(start) {
		return date, start, end, fmt.Errorf("%w: end time must be after start time", ErrReservationValidation)
	}
	return date, start, end, nil
}

// validateBusinessRules runs the settings-driven checks in their fixed
// order; the first failing rule aborts with its own error so the caller
// can show which rule was violated.
func (s *reservationService) validateBusinessRules(start, end time.Time, now time.Time) error {
	rules, err := s.settingsService.BusinessRules()
	if err != nil {
		return err
	}

	if !rules.IsBusinessDay(isoWeekday(start)) {
		return fmt.Errorf("%w: %s is not a business day", ErrNotBusinessDay, start.Weekday())
	}

	startClock := start.Format("15:04:05")
	endClock := end.Format("15:04:05")
	if startClock < rules.OpeningTime || endClock > rules.ClosingTime {
		return fmt.Errorf("%w: reservation must be between %s and %s",
			ErrOutsideBusinessHours, rules.OpeningTime, rules.ClosingTime)
	}

	durationMinutes := int(end.Sub(start) / time.Minute)
	if durationMinutes < rules.MinReservationMinutes {
		return fmt.Errorf("%w: minimum duration is %d minutes", ErrDurationOutOfRange, rules.MinReservationMinutes)
	}
	if durationMinutes > rules.MaxReservationMinutes {
		return fmt.Errorf("%w: maximum duration is %d minutes", ErrDurationOutOfRange, rules.MaxReservationMinutes)
	}

	notice := start.Sub(now)
	if notice < time.Duration(rules.MinAdvanceHours)*time.Hour {
		return fmt.Errorf("%w: reservations require at least %d hours notice", ErrAdvanceNoticeViolation, rules.MinAdvanceHours)
	}
	if notice > time.Duration(rules.MaxAdvanceDays)*24*time.Hour {
		return fmt.Errorf("%w: reservations cannot be made more than %d days ahead", ErrAdvanceNoticeViolation, rules.MaxAdvanceDays)
	}
	return nil
}

func (s *reservationService) CreateReservation(req CreateReservationRequest) (*models.Reservation, error) {
	date, start, end, err := parseReservationWindow(req.ReservationDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if _, err := s.tableRepo.GetTableByID(req.TableID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrTableNotFound, req.TableID)
		}
		return nil, fmt.Errorf("failed to validate table for reservation: %w", err)
	}

	if err := s.validateBusinessRules(start, end, time.Now()); err != nil {
		return nil, err
	}

	// Availability is re-checked while holding the table row lock so two
	// concurrent requests cannot both pass the check and double-book.
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start reservation transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.tableRepo.GetTableByIDForUpdate(tx, req.TableID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrTableNotFound, req.TableID)
		}
		return nil, fmt.Errorf("failed to lock table for reservation: %w", err)
	}

	available, err := s.availability.CheckTableAvailabilityOn(tx, req.TableID, start, end, nil)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrTableNotAvailable
	}

	reservation := &models.Reservation{
		UserID:          req.UserID,
		TableID:         req.TableID,
		ReservationDate: date,
		StartTime:       start,
		EndTime:         end,
		Status:          models.ReservationStatusPending,
		Notes:           req.Notes,
	}
	id, err := s.reservationRepo.CreateReservation(tx, reservation)
	if err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reservation transaction: %w", err)
	}

	return s.reservationRepo.GetReservationByID(id)
}

func (s *reservationService) GetReservationByID(id int64) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation by ID: %w", err)
	}
	return reservation, nil
}

func (s *reservationService) GetReservations(filters models.ReservationFilters) ([]models.Reservation, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 10
	}
	reservations, totalCount, err := s.reservationRepo.GetReservations(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get reservations: %w", err)
	}
	return reservations, totalCount, nil
}

func (s *reservationService) UpdateReservation(id int64, req UpdateReservationRequest) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to find reservation for update: %w", err)
	}

	if reservation.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot update a reservation that is %s",
			ErrInvalidStatusTransition, reservation.Status)
	}

	if req.TableID != nil && *req.TableID != reservation.TableID {
		if _, err := s.tableRepo.GetTableByID(*req.TableID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: ID %d", ErrTableNotFound, *req.TableID)
			}
			return nil, fmt.Errorf("failed to validate table for reservation update: %w", err)
		}
		reservation.TableID = *req.TableID
	}

	timeChanged := req.ReservationDate != nil || req.StartTime != nil || req.EndTime != nil
	if timeChanged {
		dateStr := reservation.ReservationDate.Format("2006-01-02")
		startStr := reservation.StartTime.Format("15:04:05")
		endStr := reservation.EndTime.Format("15:04:05")
		if req.ReservationDate != nil {
			dateStr = *req.ReservationDate
		}
		if req.StartTime != nil {
			startStr = *req.StartTime
		}
		if req.EndTime != nil {
			endStr = *req.EndTime
		}

		date, start, end, parseErr := parseReservationWindow(dateStr, startStr, endStr)
		if parseErr != nil {
			return nil, parseErr
		}
		// Changed time fields go through the same pipeline as creation.
		if err := s.validateBusinessRules(start, end, time.Now()); err != nil {
			return nil, err
		}
		reservation.ReservationDate = date
		reservation.StartTime = start
		reservation.EndTime = end
	}

	if timeChanged || req.TableID != nil {
		available, availErr := s.availability.CheckTableAvailability(
			reservation.TableID, reservation.StartTime, reservation.EndTime, &id)
		if availErr != nil {
			return nil, availErr
		}
		if !available {
			return nil, ErrTableNotAvailable
		}
	}

	if req.Notes != nil {
		reservation.Notes = req.Notes
	}

	if err := s.reservationRepo.UpdateReservation(s.db, reservation); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}
	return s.reservationRepo.GetReservationByID(id)
}

func (s *reservationService) ApproveReservation(id, adminUserID int64) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to find reservation for approval: %w", err)
	}

	if reservation.Status != models.ReservationStatusPending {
		return nil, fmt.Errorf("%w: only pending reservations can be approved, current status is %s",
			ErrInvalidStatusTransition, reservation.Status)
	}

	reservation.Status = models.ReservationStatusConfirmed
	reservation.ApprovedBy = &adminUserID
	if err := s.reservationRepo.UpdateReservation(s.db, reservation); err != nil {
		return nil, fmt.Errorf("failed to approve reservation: %w", err)
	}
	return s.reservationRepo.GetReservationByID(id)
}

func (s *reservationService) RejectReservation(id, adminUserID int64, reason string) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to find reservation for rejection: %w", err)
	}

	if reservation.Status != models.ReservationStatusPending {
		return nil, fmt.Errorf("%w: only pending reservations can be rejected, current status is %s",
			ErrInvalidStatusTransition, reservation.Status)
	}

	// An omitted reason is substituted rather than rejected. Known
	// looseness kept for compatibility with the admin console.
	if strings.TrimSpace(reason) == "" {
		reason = defaultRejectReason
	}

	reservation.Status = models.ReservationStatusCancelled
	reservation.RejectReason = &reason
	reservation.ApprovedBy = &adminUserID
	if err := s.reservationRepo.UpdateReservation(s.db, reservation); err != nil {
		return nil, fmt.Errorf("failed to reject reservation: %w", err)
	}
	return s.reservationRepo.GetReservationByID(id)
}

func (s *reservationService) CancelReservation(id int64) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to find reservation for cancellation: %w", err)
	}

	if reservation.Status == models.ReservationStatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if reservation.Status == models.ReservationStatusExpired {
		return nil, fmt.Errorf("%w: cannot cancel an expired reservation", ErrInvalidStatusTransition)
	}

	reservation.Status = models.ReservationStatusCancelled
	if err := s.reservationRepo.UpdateReservation(s.db, reservation); err != nil {
		return nil, fmt.Errorf("failed to cancel reservation: %w", err)
	}
	return s.reservationRepo.GetReservationByID(id)
}

func (s *reservationService) ExpireReservation(id int64) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to find reservation for expiry: %w", err)
	}

	if reservation.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot expire a reservation that is %s",
			ErrInvalidStatusTransition, reservation.Status)
	}

	reservation.Status = models.ReservationStatusExpired
	if err := s.reservationRepo.UpdateReservation(s.db, reservation); err != nil {
		return nil, fmt.Errorf("failed to expire reservation: %w", err)
	}
	return s.reservationRepo.GetReservationByID(id)
}
