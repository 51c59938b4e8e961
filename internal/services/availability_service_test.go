package services

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billiard_hall_backend/internal/models"
)

type availabilityFixture struct {
	service         AvailabilityService
	reservationRepo *stubReservationRepo
	sessionRepo     *stubSessionRepo
	tableRepo       *stubTableRepo
	settingRepo     *stubSettingRepo
}

func newAvailabilityFixture() *availabilityFixture {
	f := &availabilityFixture{
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
	f.service = NewAvailabilityService(f.reservationRepo, f.sessionRepo, f.tableRepo, settings, nil)
	return f
}

func int64Ptr(i int64) *int64 { return &i }

func TestCheckTableAvailability_ReservationBlocks(t *testing.T) {
	f := newAvailabilityFixture()
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC) // Tuesday
	f.reservationRepo.put(&models.Reservation{
		TableID:   1,
		StartTime: day.Add(14 * time.Hour),
		EndTime:   day.Add(16 * time.Hour),
		Status:    models.ReservationStatusPending,
	})

	available, err := f.service.CheckTableAvailability(1, day.Add(15*time.Hour), day.Add(17*time.Hour), nil)
	require.NoError(t, err)
	assert.False(t, available)

	// Windows touching at the boundary do not conflict.
	available, err = f.service.CheckTableAvailability(1, day.Add(16*time.Hour), day.Add(18*time.Hour), nil)
	require.NoError(t, err)
	assert.True(t, available)

	// A different table is unaffected.
	available, err = f.service.CheckTableAvailability(2, day.Add(15*time.Hour), day.Add(17*time.Hour), nil)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestCheckTableAvailability_TerminalReservationDoesNotBlock(t *testing.T) {
	f := newAvailabilityFixture()
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	f.reservationRepo.put(&models.Reservation{
		TableID:   1,
		StartTime: day.Add(14 * time.Hour),
		EndTime:   day.Add(16 * time.Hour),
		Status:    models.ReservationStatusCancelled,
	})

	available, err := f.service.CheckTableAvailability(1, day.Add(14*time.Hour), day.Add(16*time.Hour), nil)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestCheckTableAvailability_ExcludesOwnReservation(t *testing.T) {
	f := newAvailabilityFixture()
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	reservation := &models.Reservation{
		TableID:   1,
		StartTime: day.Add(14 * time.Hour),
		EndTime:   day.Add(16 * time.Hour),
		Status:    models.ReservationStatusConfirmed,
	}
	f.reservationRepo.put(reservation)

	available, err := f.service.CheckTableAvailability(1, day.Add(14*time.Hour), day.Add(16*time.Hour), nil)
	require.NoError(t, err)
	assert.False(t, available)

	available, err = f.service.CheckTableAvailability(1, day.Add(14*time.Hour), day.Add(16*time.Hour), &reservation.ID)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestCheckTableAvailability_OpenEndedSessionBlocks(t *testing.T) {
	f := newAvailabilityFixture()
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	f.sessionRepo.put(&models.Session{
		TableID:   1,
		StartTime: day.Add(13 * time.Hour),
		Status:    models.SessionStatusActive,
	})

	// No end time yet, so the session blocks arbitrarily far ahead.
	available, err := f.service.CheckTableAvailability(1, day.Add(18*time.Hour), day.Add(19*time.Hour), nil)
	require.NoError(t, err)
	assert.False(t, available)
}

func TestCheckTableAvailability_ClosedSessionDoesNotBlock(t *testing.T) {
	f := newAvailabilityFixture()
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	end := day.Add(15 * time.Hour)
	f.sessionRepo.put(&models.Session{
		TableID:   1,
		StartTime: day.Add(13 * time.Hour),
		EndTime:   &end,
		Status:    models.SessionStatusClosed,
	})

	available, err := f.service.CheckTableAvailability(1, day.Add(13*time.Hour), day.Add(15*time.Hour), nil)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestAvailableSlots_FullOpenDay(t *testing.T) {
	f := newAvailabilityFixture()
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC) // Tuesday

	seq, err := f.service.AvailableSlots(1, day)
	require.NoError(t, err)
	slots := slices.Collect(seq)

	// Default hours 09:00 to 23:00 give 14 hourly slots.
	require.Len(t, slots, 14)
	assert.Equal(t, day.Add(9*time.Hour), slots[0].StartTime)
	assert.Equal(t, day.Add(10*time.Hour), slots[0].EndTime)
	assert.Equal(t, day.Add(22*time.Hour), slots[len(slots)-1].StartTime)
	assert.Equal(t, day.Add(23*time.Hour), slots[len(slots)-1].EndTime)

	// The sequence is restartable.
	assert.Len(t, slices.Collect(seq), 14)
}

func TestAvailableSlots_ReservationCarvesOutSlots(t *testing.T) {
	f := newAvailabilityFixture()
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	f.reservationRepo.put(&models.Reservation{
		TableID:   1,
		StartTime: day.Add(14 * time.Hour),
		EndTime:   day.Add(16 * time.Hour),
		Status:    models.ReservationStatusConfirmed,
	})

	seq, err := f.service.AvailableSlots(1, day)
	require.NoError(t, err)
	slots := slices.Collect(seq)

	require.Len(t, slots, 12)
	for _, slot := range slots {
		overlaps := slot.StartTime.Before(day.Add(16*time.Hour)) &&
			day.Add(14*time.Hour).Before(slot.EndTime)
		assert.False(t, overlaps, "slot %v overlaps the reservation", slot)
	}
}

func TestAvailableSlots_OpenEndedSessionBlocksRestOfDay(t *testing.T) {
	f := newAvailabilityFixture()
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	f.sessionRepo.put(&models.Session{
		TableID:   1,
		StartTime: day.Add(18 * time.Hour),
		Status:    models.SessionStatusActive,
	})

	seq, err := f.service.AvailableSlots(1, day)
	require.NoError(t, err)
	slots := slices.Collect(seq)

	// 09:00 through 18:00 remain, everything after is gone.
	require.Len(t, slots, 9)
	assert.Equal(t, day.Add(18*time.Hour), slots[len(slots)-1].EndTime)
}

func TestAvailableSlots_NonBusinessDay(t *testing.T) {
	f := newAvailabilityFixture()
	f.settingRepo.set(SettingBusinessDays, "1,2,3,4,5")

	saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	seq, err := f.service.AvailableSlots(1, saturday)
	require.NoError(t, err)
	assert.Empty(t, slices.Collect(seq))
}

func TestAvailableSlots_UnknownTable(t *testing.T) {
	f := newAvailabilityFixture()

	_, err := f.service.AvailableSlots(99, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrTableNotFound)
}
