package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"billiard_hall_backend/internal/models"
	"billiard_hall_backend/internal/repositories"
)

// --- Custom Service Errors for Sessions ---
var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionValidation     = errors.New("session data validation error")
	ErrSessionNotActive      = errors.New("session is not active")
	ErrTableOccupied         = errors.New("table already has an active session")
	ErrTableUnderMaintenance = errors.New("table is under maintenance")
	ErrPenaltyValidation     = errors.New("penalty data validation error")
)

// --- Session DTOs ---
type StartSessionRequest struct {
	TableID       int64   `json:"table_id"`
	UserID        *int64  `json:"user_id"`
	ReservationID *int64  `json:"reservation_id"`
	Notes         *string `json:"notes"`
}

type AddPenaltyRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reason    string          `json:"reason" binding:"required"`
	AppliedBy int64           `json:"applied_by"`
}

// SessionService drives table sessions from start to settlement.
// A session is either started from a confirmed reservation or as a
// walk-in; in both cases starting it flips the table to occupied and
// closing it flips the table back and fixes the final cost.
type SessionService interface {
	StartSession(req StartSessionRequest) (*models.Session, error)
	CloseSession(id int64, notes *string) (*models.SessionCloseResult, error)
	CancelSession(id int64) (*models.Session, error)
	GetSessionByID(id int64) (*models.Session, error)
	GetSessions(filters models.SessionFilters) ([]models.Session, int, error)
	AddPenalty(sessionID int64, req AddPenaltyRequest) (*models.Penalty, error)
	EstimateCurrentCost(id int64) (*models.SessionCloseResult, error)

	// FinalizeSession runs the close computation for an already locked
	// active session. The caller owns the transaction; table status and
	// session row updates run on the given executor.
	FinalizeSession(executor repositories.SQLExecutor, session *models.Session, endTime time.Time) (*models.SessionCloseResult, error)
}

type sessionService struct {
	sessionRepo     repositories.SessionRepository
	penaltyRepo     repositories.PenaltyRepository
	tableRepo       repositories.BilliardTableRepository
	reservationRepo repositories.ReservationRepository
	pricingService  PricingService
	db              *sql.DB
}

// NewSessionService creates a new instance of SessionService.
func NewSessionService(
	sr repositories.SessionRepository,
	pr repositories.PenaltyRepository,
	tr repositories.BilliardTableRepository,
	rr repositories.ReservationRepository,
	ps PricingService,
	db *sql.DB,
) SessionService {
	return &sessionService{
		sessionRepo:     sr,
		penaltyRepo:     pr,
		tableRepo:       tr,
		reservationRepo: rr,
		pricingService:  ps,
		db:              db,
	}
}

func (s *sessionService) StartSession(req StartSessionRequest) (*models.Session, error) {
	session := &models.Session{
		TableID:     req.TableID,
		UserID:      req.UserID,
		SessionType: models.SessionTypeWalkIn,
		Status:      models.SessionStatusActive,
		Notes:       req.Notes,
	}

	if req.ReservationID != nil {
		reservation, err := s.reservationRepo.GetReservationByID(*req.ReservationID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrReservationNotFound
			}
			return nil, fmt.Errorf("failed to load reservation for session start: %w", err)
		}
		if reservation.Status != models.ReservationStatusConfirmed {
			return nil, fmt.Errorf("%w: only confirmed reservations can be started, current status is %s",
				ErrInvalidStatusTransition, reservation.Status)
		}
		if req.TableID != 0 && req.TableID != reservation.TableID {
			return nil, fmt.Errorf("%w: table_id does not match the reservation's table", ErrSessionValidation)
		}
		session.TableID = reservation.TableID
		session.UserID = &reservation.UserID
		session.ReservationID = req.ReservationID
		session.SessionType = models.SessionTypeFromReservation
	} else if req.TableID == 0 {
		return nil, fmt.Errorf("%w: table_id is required for a walk-in session", ErrSessionValidation)
	}

	table, err := s.tableRepo.GetTableByID(session.TableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrTableNotFound, session.TableID)
		}
		return nil, fmt.Errorf("failed to validate table for session start: %w", err)
	}
	if table.Status == models.TableStatusMaintenance {
		return nil, fmt.Errorf("%w: ID %d", ErrTableUnderMaintenance, table.ID)
	}
	if table.Status == models.TableStatusOccupied {
		return nil, fmt.Errorf("%w: ID %d", ErrTableOccupied, table.ID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start session transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-check under the row lock: another request may have started a
	// session on this table between the pre-check and here.
	locked, err := s.tableRepo.GetTableByIDForUpdate(tx, session.TableID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock table for session start: %w", err)
	}
	if locked.Status != models.TableStatusAvailable {
		return nil, fmt.Errorf("%w: ID %d", ErrTableOccupied, locked.ID)
	}
	if _, err := s.sessionRepo.GetActiveSessionByTable(tx, session.TableID); err == nil {
		return nil, fmt.Errorf("%w: ID %d", ErrTableOccupied, session.TableID)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check active session for table: %w", err)
	}

	session.StartTime = time.Now()
	id, err := s.sessionRepo.CreateSession(tx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := s.tableRepo.UpdateTableStatus(tx, session.TableID, models.TableStatusOccupied); err != nil {
		return nil, fmt.Errorf("failed to mark table occupied: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session transaction: %w", err)
	}
	return s.sessionRepo.GetSessionByID(id)
}

func (s *sessionService) CloseSession(id int64, notes *string) (*models.SessionCloseResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start close transaction: %w", err)
	}
	defer tx.Rollback()

	session, err := s.sessionRepo.GetSessionByIDForUpdate(tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to lock session for close: %w", err)
	}
	if notes != nil {
		session.Notes = notes
	}

	result, err := s.FinalizeSession(tx, session, time.Now())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit close transaction: %w", err)
	}
	return result, nil
}

func (s *sessionService) FinalizeSession(executor repositories.SQLExecutor, session *models.Session, endTime time.Time) (*models.SessionCloseResult, error) {
	if session.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("%w: current status is %s", ErrSessionNotActive, session.Status)
	}

	table, err := s.tableRepo.GetTableByID(session.TableID)
	if err != nil {
		return nil, fmt.Errorf("failed to load table for session close: %w", err)
	}

	quote, err := s.pricingService.CalculateSessionPrice(table.CategoryID, session.StartTime, &endTime)
	if err != nil {
		return nil, fmt.Errorf("failed to price session: %w", err)
	}

	penalties, err := s.penaltyRepo.GetPenaltiesBySession(executor, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load penalties for session close: %w", err)
	}
	totalPenalties := decimal.Zero
	for _, p := range penalties {
		totalPenalties = totalPenalties.Add(p.Amount)
	}

	finalCost := quote.FinalPrice.Add(totalPenalties)
	if err := s.sessionRepo.CloseSession(executor, session.ID, endTime, finalCost, models.SessionStatusClosed); err != nil {
		return nil, fmt.Errorf("failed to close session: %w", err)
	}
	if err := s.tableRepo.UpdateTableStatus(executor, session.TableID, models.TableStatusAvailable); err != nil {
		return nil, fmt.Errorf("failed to release table: %w", err)
	}

	session.EndTime = &endTime
	session.FinalCost = finalCost
	session.Status = models.SessionStatusClosed

	return &models.SessionCloseResult{
		Session:        session,
		Pricing:        quote,
		Penalties:      penalties,
		TotalPenalties: totalPenalties,
		FinalCost:      finalCost,
	}, nil
}

func (s *sessionService) CancelSession(id int64) (*models.Session, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start cancel transaction: %w", err)
	}
	defer tx.Rollback()

	session, err := s.sessionRepo.GetSessionByIDForUpdate(tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to lock session for cancel: %w", err)
	}
	if session.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("%w: current status is %s", ErrSessionNotActive, session.Status)
	}

	// A cancelled session bills nothing; penalties are kept on record
	// but not charged.
	now := time.Now()
	if err := s.sessionRepo.CloseSession(tx, id, now, decimal.Zero, models.SessionStatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel session: %w", err)
	}
	if err := s.tableRepo.UpdateTableStatus(tx, session.TableID, models.TableStatusAvailable); err != nil {
		return nil, fmt.Errorf("failed to release table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancel transaction: %w", err)
	}
	return s.sessionRepo.GetSessionByID(id)
}

func (s *sessionService) GetSessionByID(id int64) (*models.Session, error) {
	session, err := s.sessionRepo.GetSessionByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session by ID: %w", err)
	}
	return session, nil
}

func (s *sessionService) GetSessions(filters models.SessionFilters) ([]models.Session, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 10
	}
	sessions, totalCount, err := s.sessionRepo.GetSessions(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get sessions: %w", err)
	}
	return sessions, totalCount, nil
}

func (s *sessionService) AddPenalty(sessionID int64, req AddPenaltyRequest) (*models.Penalty, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrPenaltyValidation)
	}
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrPenaltyValidation)
	}

	session, err := s.sessionRepo.GetSessionByID(sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session for penalty: %w", err)
	}
	if session.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("%w: penalties can only be added to active sessions", ErrSessionNotActive)
	}

	penalty := &models.Penalty{
		SessionID: sessionID,
		Amount:    req.Amount.Round(2),
		Reason:    req.Reason,
		AppliedBy: req.AppliedBy,
	}
	id, err := s.penaltyRepo.CreatePenalty(s.db, penalty)
	if err != nil {
		return nil, fmt.Errorf("failed to create penalty: %w", err)
	}
	penalty.ID = id
	return penalty, nil
}

func (s *sessionService) EstimateCurrentCost(id int64) (*models.SessionCloseResult, error) {
	session, err := s.sessionRepo.GetSessionByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session for estimate: %w", err)
	}
	if session.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("%w: current status is %s", ErrSessionNotActive, session.Status)
	}

	table, err := s.tableRepo.GetTableByID(session.TableID)
	if err != nil {
		return nil, fmt.Errorf("failed to load table for estimate: %w", err)
	}

	// Estimate prices the session as if it were closed right now,
	// without touching the session or table rows.
	quote, err := s.pricingService.CalculateSessionPrice(table.CategoryID, session.StartTime, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to price session estimate: %w", err)
	}

	penalties, err := s.penaltyRepo.GetPenaltiesBySession(s.db, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load penalties for estimate: %w", err)
	}
	totalPenalties := decimal.Zero
	for _, p := range penalties {
		totalPenalties = totalPenalties.Add(p.Amount)
	}

	return &models.SessionCloseResult{
		Session:        session,
		Pricing:        quote,
		Penalties:      penalties,
		TotalPenalties: totalPenalties,
		FinalCost:      quote.FinalPrice.Add(totalPenalties),
	}, nil
}
