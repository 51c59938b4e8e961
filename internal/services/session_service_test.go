package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billiard_hall_backend/internal/models"
)

type sessionFixture struct {
	service         SessionService
	sessionRepo     *stubSessionRepo
	penaltyRepo     *stubPenaltyRepo
	tableRepo       *stubTableRepo
	reservationRepo *stubReservationRepo
}

func newSessionFixture() *sessionFixture {
	categoryRepo := &stubCategoryRepo{
		categories: map[int64]*models.TableCategory{
			1: {ID: 1, Name: "Standard", BasePrice: decimal.RequireFromString("10.00"), IsActive: true},
		},
	}
	f := &sessionFixture{
		sessionRepo:     &stubSessionRepo{},
		penaltyRepo:     &stubPenaltyRepo{},
		reservationRepo: &stubReservationRepo{},
		tableRepo: &stubTableRepo{
			tables: map[int64]*models.BilliardTable{
				1: {ID: 1, CategoryID: 1, Code: "T-01", Status: models.TableStatusAvailable},
			},
		},
	}
	pricing := NewPricingService(categoryRepo, &stubRuleRepo{}, nil)
	f.service = NewSessionService(f.sessionRepo, f.penaltyRepo, f.tableRepo, f.reservationRepo, pricing, nil)
	return f
}

func TestStartSession_WalkInRequiresTable(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.StartSession(StartSessionRequest{})
	assert.ErrorIs(t, err, ErrSessionValidation)
}

func TestStartSession_UnknownTable(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.StartSession(StartSessionRequest{TableID: 99})
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestStartSession_TableUnavailable(t *testing.T) {
	f := newSessionFixture()
	f.tableRepo.tables[1].Status = models.TableStatusMaintenance

	_, err := f.service.StartSession(StartSessionRequest{TableID: 1})
	assert.ErrorIs(t, err, ErrTableUnderMaintenance)

	f.tableRepo.tables[1].Status = models.TableStatusOccupied
	_, err = f.service.StartSession(StartSessionRequest{TableID: 1})
	assert.ErrorIs(t, err, ErrTableOccupied)
}

func TestStartSession_ReservationMustBeConfirmed(t *testing.T) {
	f := newSessionFixture()
	f.reservationRepo.put(&models.Reservation{
		UserID: 4, TableID: 1, Status: models.ReservationStatusPending,
	})

	_, err := f.service.StartSession(StartSessionRequest{ReservationID: int64Ptr(1)})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = f.service.StartSession(StartSessionRequest{ReservationID: int64Ptr(404)})
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestStartSession_ReservationTableMismatch(t *testing.T) {
	f := newSessionFixture()
	f.reservationRepo.put(&models.Reservation{
		UserID: 4, TableID: 1, Status: models.ReservationStatusConfirmed,
	})

	_, err := f.service.StartSession(StartSessionRequest{TableID: 2, ReservationID: int64Ptr(1)})
	assert.ErrorIs(t, err, ErrSessionValidation)
}

func TestFinalizeSession_TimePlusPenalties(t *testing.T) {
	f := newSessionFixture()
	start := time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC)
	session := &models.Session{
		TableID:     1,
		StartTime:   start,
		SessionType: models.SessionTypeWalkIn,
		Status:      models.SessionStatusActive,
	}
	f.sessionRepo.put(session)
	f.tableRepo.tables[1].Status = models.TableStatusOccupied
	f.penaltyRepo.penalties = []models.Penalty{
		{ID: 1, SessionID: session.ID, Amount: decimal.RequireFromString("15.00"), Reason: "torn cloth"},
		{ID: 2, SessionID: session.ID, Amount: decimal.RequireFromString("5.00"), Reason: "lost chalk"},
	}

	end := start.Add(2*time.Hour + 30*time.Minute)
	result, err := f.service.FinalizeSession(nil, session, end)
	require.NoError(t, err)

	// 2.5h at 10.00/h plus 20.00 in penalties.
	assert.Equal(t, "25", result.Pricing.FinalPrice.String())
	assert.Equal(t, "20", result.TotalPenalties.String())
	assert.Equal(t, "45", result.FinalCost.String())
	assert.Len(t, result.Penalties, 2)

	assert.Equal(t, models.SessionStatusClosed, result.Session.Status)
	require.NotNil(t, result.Session.EndTime)
	assert.Equal(t, end, *result.Session.EndTime)
	assert.Equal(t, models.TableStatusAvailable, f.tableRepo.tables[1].Status)

	stored, err := f.sessionRepo.GetSessionByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "45", stored.FinalCost.String())
}

func TestFinalizeSession_NotActive(t *testing.T) {
	f := newSessionFixture()
	end := time.Now()
	session := &models.Session{
		TableID: 1, StartTime: end.Add(-time.Hour), EndTime: &end,
		Status: models.SessionStatusClosed,
	}
	f.sessionRepo.put(session)

	_, err := f.service.FinalizeSession(nil, session, time.Now())
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestAddPenalty(t *testing.T) {
	f := newSessionFixture()
	f.sessionRepo.put(&models.Session{
		TableID: 1, StartTime: time.Now(), Status: models.SessionStatusActive,
	})

	penalty, err := f.service.AddPenalty(1, AddPenaltyRequest{
		Amount: decimal.RequireFromString("12.349"), Reason: "broken cue", AppliedBy: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "12.35", penalty.Amount.String())
	assert.Equal(t, int64(7), penalty.AppliedBy)
}

func TestAddPenalty_Validation(t *testing.T) {
	f := newSessionFixture()
	f.sessionRepo.put(&models.Session{
		TableID: 1, StartTime: time.Now(), Status: models.SessionStatusActive,
	})

	_, err := f.service.AddPenalty(1, AddPenaltyRequest{
		Amount: decimal.Zero, Reason: "x", AppliedBy: 7,
	})
	assert.ErrorIs(t, err, ErrPenaltyValidation)

	_, err = f.service.AddPenalty(1, AddPenaltyRequest{
		Amount: decimal.RequireFromString("10"), AppliedBy: 7,
	})
	assert.ErrorIs(t, err, ErrPenaltyValidation)

	_, err = f.service.AddPenalty(404, AddPenaltyRequest{
		Amount: decimal.RequireFromString("10"), Reason: "x", AppliedBy: 7,
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAddPenalty_ClosedSession(t *testing.T) {
	f := newSessionFixture()
	end := time.Now()
	f.sessionRepo.put(&models.Session{
		TableID: 1, StartTime: end.Add(-time.Hour), EndTime: &end,
		Status: models.SessionStatusClosed,
	})

	_, err := f.service.AddPenalty(1, AddPenaltyRequest{
		Amount: decimal.RequireFromString("10"), Reason: "x", AppliedBy: 7,
	})
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestEstimateCurrentCost_DoesNotMutate(t *testing.T) {
	f := newSessionFixture()
	session := &models.Session{
		TableID: 1, StartTime: time.Now().Add(-90 * time.Minute),
		Status: models.SessionStatusActive,
	}
	f.sessionRepo.put(session)
	f.tableRepo.tables[1].Status = models.TableStatusOccupied
	f.penaltyRepo.penalties = []models.Penalty{
		{ID: 1, SessionID: session.ID, Amount: decimal.RequireFromString("5.00"), Reason: "late start"},
	}

	estimate, err := f.service.EstimateCurrentCost(session.ID)
	require.NoError(t, err)

	assert.True(t, estimate.FinalCost.Equal(estimate.Pricing.FinalPrice.Add(estimate.TotalPenalties)))
	assert.Equal(t, "5", estimate.TotalPenalties.String())

	// The session and table are untouched by an estimate.
	stored, err := f.sessionRepo.GetSessionByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, stored.Status)
	assert.Nil(t, stored.EndTime)
	assert.Equal(t, models.TableStatusOccupied, f.tableRepo.tables[1].Status)
}

func TestEstimateCurrentCost_NotActive(t *testing.T) {
	f := newSessionFixture()
	end := time.Now()
	f.sessionRepo.put(&models.Session{
		TableID: 1, StartTime: end.Add(-time.Hour), EndTime: &end,
		Status: models.SessionStatusCancelled,
	})

	_, err := f.service.EstimateCurrentCost(1)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}
