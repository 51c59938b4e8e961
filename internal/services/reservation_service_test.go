package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billiard_hall_backend/internal/models"
)

type reservationFixture struct {
	service         ReservationService
	reservationRepo *stubReservationRepo
	sessionRepo     *stubSessionRepo
	tableRepo       *stubTableRepo
	settingRepo     *stubSettingRepo
}

func newReservationFixture() *reservationFixture {
	f := &reservationFixture{
		reservationRepo: &stubReservationRepo{},
		sessionRepo:     &stubSessionRepo{},
		tableRepo: &stubTableRepo{
			tables: map[int64]*models.BilliardTable{
				1: {ID: 1, CategoryID: 1, Code: "T-01", Status: models.TableStatusAvailable},
			},
		},
		settingRepo: &stubSettingRepo{},
	}
	settings := NewSettingsService(f.settingRepo, nil)
	availability := NewAvailabilityService(f.reservationRepo, f.sessionRepo, f.tableRepo, settings, nil)
	f.service = NewReservationService(f.reservationRepo, f.tableRepo, availability, settings, nil)
	return f
}

// dateDaysAhead formats the calendar date the given number of days from now.
func dateDaysAhead(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

// upcoming finds the first date at least minDaysAhead days out that falls
// on the given weekday.
func upcoming(weekday time.Weekday, minDaysAhead int) time.Time {
	d := time.Now().AddDate(0, 0, minDaysAhead)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func TestCreateReservation_InvalidWindow(t *testing.T) {
	f := newReservationFixture()

	_, err := f.service.CreateReservation(CreateReservationRequest{
		UserID: 1, TableID: 1,
		ReservationDate: "03/01/2026",
		StartTime:       "10:00", EndTime: "12:00",
	})
	assert.ErrorIs(t, err, ErrReservationValidation)

	_, err = f.service.CreateReservation(CreateReservationRequest{
		UserID: 1, TableID: 1,
		ReservationDate: dateDaysAhead(2),
		StartTime:       "12:00", EndTime: "10:00",
	})
	assert.ErrorIs(t, err, ErrReservationValidation)
}

func TestCreateReservation_UnknownTable(t *testing.T) {
	f := newReservationFixture()

	_, err := f.service.CreateReservation(CreateReservationRequest{
		UserID: 1, TableID: 99,
		ReservationDate: dateDaysAhead(2),
		StartTime:       "10:00", EndTime: "12:00",
	})
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestCreateReservation_NonBusinessDay(t *testing.T) {
	f := newReservationFixture()
	f.settingRepo.set(SettingBusinessDays, "1,2,3,4,5")

	saturday := upcoming(time.Saturday, 2)
	_, err := f.service.CreateReservation(CreateReservationRequest{
		UserID: 1, TableID: 1,
		ReservationDate: saturday.Format("2006-01-02"),
		StartTime:       "10:00", EndTime: "12:00",
	})
	assert.ErrorIs(t, err, ErrNotBusinessDay)
}

func TestCreateReservation_OutsideBusinessHours(t *testing.T) {
	f := newReservationFixture()

	_, err := f.service.CreateReservation(CreateReservationRequest{
		UserID: 1, TableID: 1,
		ReservationDate: dateDaysAhead(2),
		StartTime:       "07:30", EndTime: "09:30",
	})
	assert.ErrorIs(t, err, ErrOutsideBusinessHours)

	_, err = f.service.CreateReservation(CreateReservationRequest{
		UserID: 1, TableID: 1,
		ReservationDate: dateDaysAhead(2),
		StartTime:       "22:00", EndTime: "23:30",
	})
	assert.ErrorIs(t, err, ErrOutsideBusinessHours)
}

func TestCreateReservation_DurationOutOfRange(t *testing.T) {
	f := newReservationFixture()

	_, err := f.service.CreateReservation(CreateReservationRequest{
		UserID: 1, TableID: 1,
		ReservationDate: dateDaysAhead(2),
		StartTime:       "10:00", EndTime: "10:15",
	})
	assert.ErrorIs(t, err, ErrDurationOutOfRange)

	_, err = f.service.CreateReservation(CreateReservationRequest{
		UserID: 1, TableID: 1,
		ReservationDate: dateDaysAhead(2),
		StartTime:       "10:00", EndTime: "15:00",
	})
	assert.ErrorIs(t, err, ErrDurationOutOfRange)
}

func TestCreateReservation_AdvanceNotice(t *testing.T) {
	f := newReservationFixture()

	// Too far ahead for the default 14-day horizon.
	_, err := f.service.CreateReservation(CreateReservationRequest{
		UserID: 1, TableID: 1,
		ReservationDate: dateDaysAhead(30),
		StartTime:       "10:00", EndTime: "12:00",
	})
	assert.ErrorIs(t, err, ErrAdvanceNoticeViolation)

	// Raising the minimum notice makes a near-term reservation too soon.
	f.settingRepo.set(SettingMinAdvanceHours, "1000")
	_, err = f.service.CreateReservation(CreateReservationRequest{
		UserID: 1, TableID: 1,
		ReservationDate: dateDaysAhead(2),
		StartTime:       "10:00", EndTime: "12:00",
	})
	assert.ErrorIs(t, err, ErrAdvanceNoticeViolation)
}

func TestApproveReservation(t *testing.T) {
	f := newReservationFixture()
	f.reservationRepo.put(&models.Reservation{
		UserID: 1, TableID: 1, Status: models.ReservationStatusPending,
	})

	reservation, err := f.service.ApproveReservation(1, 7)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, reservation.Status)
	require.NotNil(t, reservation.ApprovedBy)
	assert.Equal(t, int64(7), *reservation.ApprovedBy)

	// A confirmed reservation cannot be approved again.
	_, err = f.service.ApproveReservation(1, 7)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestRejectReservation(t *testing.T) {
	f := newReservationFixture()
	f.reservationRepo.put(&models.Reservation{
		UserID: 1, TableID: 1, Status: models.ReservationStatusPending,
	})
	f.reservationRepo.put(&models.Reservation{
		UserID: 2, TableID: 1, Status: models.ReservationStatusPending,
	})

	// An omitted reason is substituted, not rejected.
	reservation, err := f.service.RejectReservation(1, 7, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, reservation.Status)
	require.NotNil(t, reservation.RejectReason)
	assert.Equal(t, "no reason specified", *reservation.RejectReason)

	reservation, err = f.service.RejectReservation(2, 7, "table closed for repair")
	require.NoError(t, err)
	require.NotNil(t, reservation.RejectReason)
	assert.Equal(t, "table closed for repair", *reservation.RejectReason)

	_, err = f.service.RejectReservation(1, 7, "again")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestCancelReservation(t *testing.T) {
	f := newReservationFixture()
	f.reservationRepo.put(&models.Reservation{
		UserID: 1, TableID: 1, Status: models.ReservationStatusConfirmed,
	})
	f.reservationRepo.put(&models.Reservation{
		UserID: 1, TableID: 1, Status: models.ReservationStatusExpired,
	})

	reservation, err := f.service.CancelReservation(1)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, reservation.Status)

	_, err = f.service.CancelReservation(1)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	_, err = f.service.CancelReservation(2)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestExpireReservation(t *testing.T) {
	f := newReservationFixture()
	f.reservationRepo.put(&models.Reservation{
		UserID: 1, TableID: 1, Status: models.ReservationStatusPending,
	})

	reservation, err := f.service.ExpireReservation(1)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusExpired, reservation.Status)

	_, err = f.service.ExpireReservation(1)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestUpdateReservation_NotesOnly(t *testing.T) {
	f := newReservationFixture()
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local)
	f.reservationRepo.put(&models.Reservation{
		UserID: 1, TableID: 1,
		ReservationDate: day,
		StartTime:       day.Add(10 * time.Hour),
		EndTime:         day.Add(12 * time.Hour),
		Status:          models.ReservationStatusPending,
	})

	reservation, err := f.service.UpdateReservation(1, UpdateReservationRequest{
		Notes: strPtr("birthday party"),
	})
	require.NoError(t, err)
	require.NotNil(t, reservation.Notes)
	assert.Equal(t, "birthday party", *reservation.Notes)
	assert.Equal(t, day.Add(10*time.Hour), reservation.StartTime)
}

func TestUpdateReservation_ConflictingTime(t *testing.T) {
	f := newReservationFixture()
	day := upcoming(time.Monday, 2)
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)

	f.reservationRepo.put(&models.Reservation{
		UserID: 1, TableID: 1,
		ReservationDate: midnight,
		StartTime:       midnight.Add(10 * time.Hour),
		EndTime:         midnight.Add(12 * time.Hour),
		Status:          models.ReservationStatusPending,
	})
	f.reservationRepo.put(&models.Reservation{
		UserID: 2, TableID: 1,
		ReservationDate: midnight,
		StartTime:       midnight.Add(13 * time.Hour),
		EndTime:         midnight.Add(15 * time.Hour),
		Status:          models.ReservationStatusPending,
	})

	// Moving the second reservation onto the first one's window fails.
	_, err := f.service.UpdateReservation(2, UpdateReservationRequest{
		StartTime: strPtr("11:00"),
		EndTime:   strPtr("13:00"),
	})
	assert.ErrorIs(t, err, ErrTableNotAvailable)

	// Moving it to a free window succeeds.
	reservation, err := f.service.UpdateReservation(2, UpdateReservationRequest{
		StartTime: strPtr("15:00"),
		EndTime:   strPtr("17:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, midnight.Add(15*time.Hour), reservation.StartTime)
}

func TestUpdateReservation_Terminal(t *testing.T) {
	f := newReservationFixture()
	f.reservationRepo.put(&models.Reservation{
		UserID: 1, TableID: 1, Status: models.ReservationStatusCancelled,
	})

	_, err := f.service.UpdateReservation(1, UpdateReservationRequest{Notes: strPtr("x")})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestGetReservationByID_NotFound(t *testing.T) {
	f := newReservationFixture()

	_, err := f.service.GetReservationByID(404)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}
