package services

import (
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"billiard_hall_backend/internal/models"
	"billiard_hall_backend/internal/repositories"
)

// --- Custom Service Errors for Availability ---
var (
	ErrTableNotFound = errors.New("billiard table not found")
)

// SlotDuration is the granularity of the available-slots query. Slots
// are generated on hourly boundaries within business hours.
const SlotDuration = time.Hour

// AvailabilityService determines whether a table can be committed to a
// time window, and enumerates the windows still open on a given day.
type AvailabilityService interface {
	// CheckTableAvailability reports whether the table has no pending or
	// confirmed reservation and no active session intersecting
	// [startTime, endTime). excludeReservationID lets an update-in-place
	// skip comparing a reservation against itself.
	CheckTableAvailability(tableID int64, startTime, endTime time.Time, excludeReservationID *int64) (bool, error)
	// CheckTableAvailabilityOn is CheckTableAvailability running on the
	// given executor, for re-checks inside a transaction.
	CheckTableAvailabilityOn(executor repositories.SQLExecutor, tableID int64, startTime, endTime time.Time, excludeReservationID *int64) (bool, error)
	// AvailableSlots returns the bookable windows on the table for the
	// given calendar date. The sequence is finite and restartable; it is
	// recomputed from the same snapshot on every iteration.
	AvailableSlots(tableID int64, date time.Time) (iter.Seq[models.TimeSlot], error)
}

type availabilityService struct {
	reservationRepo repositories.ReservationRepository
	sessionRepo     repositories.SessionRepository
	tableRepo       repositories.BilliardTableRepository
	settingsService SettingsService
	db              *sql.DB
}

// NewAvailabilityService creates a new instance of AvailabilityService.
func NewAvailabilityService(
	rr repositories.ReservationRepository,
	sr repositories.SessionRepository,
	tr repositories.BilliardTableRepository,
	ss SettingsService,
	db *sql.DB,
) AvailabilityService {
	return &availabilityService{
		reservationRepo: rr,
		sessionRepo:     sr,
		tableRepo:       tr,
		settingsService: ss,
		db:              db,
	}
}

func (s *availabilityService) CheckTableAvailability(tableID int64, startTime, endTime time.Time, excludeReservationID *int64) (bool, error) {
	return s.CheckTableAvailabilityOn(s.db, tableID, startTime, endTime, excludeReservationID)
}

func (s *availabilityService) CheckTableAvailabilityOn(executor repositories.SQLExecutor, tableID int64, startTime, endTime time.Time, excludeReservationID *int64) (bool, error) {
	reservationConflicts, err := s.reservationRepo.CountOverlapping(executor, tableID, startTime, endTime, excludeReservationID)
	if err != nil {
		return false, fmt.Errorf("failed to check reservation conflicts: %w", err)
	}
	if reservationConflicts > 0 {
		return false, nil
	}

	sessionConflicts, err := s.sessionRepo.CountActiveOverlapping(executor, tableID, startTime, endTime)
	if err != nil {
		return false, fmt.Errorf("failed to check session conflicts: %w", err)
	}
	return sessionConflicts == 0, nil
}

// busyInterval is an occupied window on a table, clamped to the day.
type busyInterval struct {
	start time.Time
	end   time.Time
}

func (s *availabilityService) AvailableSlots(tableID int64, date time.Time) (iter.Seq[models.TimeSlot], error) {
	if _, err := s.tableRepo.GetTableByID(tableID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrTableNotFound, tableID)
		}
		return nil, fmt.Errorf("failed to fetch table for slots: %w", err)
	}

	rules, err := s.settingsService.BusinessRules()
	if err != nil {
		return nil, err
	}

	year, month, day := date.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, date.Location())

	if !rules.IsBusinessDay(isoWeekday(midnight)) {
		return emptySlots, nil
	}

	open, err := atTimeOfDay(midnight, rules.OpeningTime)
	if err != nil {
		return nil, err
	}
	close, err := atTimeOfDay(midnight, rules.ClosingTime)
	if err != nil {
		return nil, err
	}
	if !close.After(open) {
		return emptySlots, nil
	}

	busy, err := s.collectBusyIntervals(tableID, open, close)
	if err != nil {
		return nil, err
	}

	return func(yield func(models.TimeSlot) bool) {
		for t := open; !t.Add(SlotDuration).After(close); t = t.Add(SlotDuration) {
			slotEnd := t.Add(SlotDuration)
			if overlapsAny(busy, t, slotEnd) {
				continue
			}
			if !yield(models.TimeSlot{StartTime: t, EndTime: slotEnd}) {
				return
			}
		}
	}, nil
}

var emptySlots iter.Seq[models.TimeSlot] = func(yield func(models.TimeSlot) bool) {}

// collectBusyIntervals gathers the table's commitments intersecting
// [open, close): pending/confirmed reservations and active sessions. An
// open-ended session blocks through close.
func (s *availabilityService) collectBusyIntervals(tableID int64, open, close time.Time) ([]busyInterval, error) {
	reservations, err := s.reservationRepo.GetCommittedForTableBetween(tableID, open, close)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reservations for slots: %w", err)
	}
	sessions, err := s.sessionRepo.GetActiveForTableBetween(tableID, open, close)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions for slots: %w", err)
	}

	busy := make([]busyInterval, 0, len(reservations)+len(sessions))
	for _, reservation := range reservations {
		busy = append(busy, busyInterval{start: reservation.StartTime, end: reservation.EndTime})
	}
	for _, session := range sessions {
		end := close
		if session.EndTime != nil {
			end = *session.EndTime
		}
		busy = append(busy, busyInterval{start: session.StartTime, end: end})
	}
	return busy, nil
}

func overlapsAny(busy []busyInterval, start, end time.Time) bool {
	for _, interval := range busy {
		if interval.start.Before(end) && start.Before(interval.end) {
			return true
		}
	}
	return false
}

// atTimeOfDay combines a midnight anchor with an "HH:MM:SS" wall-clock value.
func atTimeOfDay(midnight time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time of day '%s'", ErrSettingValidation, clock)
	}
	return midnight.Add(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second), nil
}
