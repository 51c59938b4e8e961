package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"billiard_hall_backend/internal/models"
	"billiard_hall_backend/internal/repositories"
)

// --- Custom Service Errors for Payments ---
var (
	ErrPaymentValidation  = errors.New("payment data validation error")
	ErrPaymentNotAllowed  = errors.New("session cannot accept payments")
	ErrSessionAlreadyPaid = errors.New("session is already fully paid")
	ErrPaymentExceedsOwed = errors.New("payment exceeds the outstanding balance")
)

// --- Payment DTOs ---
type RecordPaymentRequest struct {
	SessionID int64           `json:"session_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Method    int             `json:"method" binding:"required"`
}

// PaymentService records payments against sessions and reconciles them
// with the session's final cost. Paying an active session closes it
// first so the amount owed is fixed before money is taken.
type PaymentService interface {
	RecordPayment(req RecordPaymentRequest) (*models.Payment, *models.PaymentSummary, error)
	GetPaymentsBySession(sessionID int64) (*models.PaymentSummary, error)
}

type paymentService struct {
	paymentRepo    repositories.PaymentRepository
	sessionRepo    repositories.SessionRepository
	sessionService SessionService
	db             *sql.DB
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(
	pr repositories.PaymentRepository,
	sr repositories.SessionRepository,
	ss SessionService,
	db *sql.DB,
) PaymentService {
	return &paymentService{
		paymentRepo:    pr,
		sessionRepo:    sr,
		sessionService: ss,
		db:             db,
	}
}

// newReceiptNumber builds a human-quotable receipt reference.
func newReceiptNumber() string {
	return "RCP-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *paymentService) RecordPayment(req RecordPaymentRequest) (*models.Payment, *models.PaymentSummary, error) {
	if !req.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: amount must be positive", ErrPaymentValidation)
	}
	if !models.IsValidPaymentMethod(req.Method) {
		return nil, nil, fmt.Errorf("%w: unknown payment method %d", ErrPaymentValidation, req.Method)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start payment transaction: %w", err)
	}
	defer tx.Rollback()

	session, err := s.sessionRepo.GetSessionByIDForUpdate(tx, req.SessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("failed to lock session for payment: %w", err)
	}

	switch session.Status {
	case models.SessionStatusCancelled:
		return nil, nil, fmt.Errorf("%w: session is cancelled", ErrPaymentNotAllowed)
	case models.SessionStatusActive:
		// The session row is locked, so closing here cannot race with a
		// concurrent close or another payment.
		result, finErr := s.sessionService.FinalizeSession(tx, session, time.Now())
		if finErr != nil {
			return nil, nil, fmt.Errorf("failed to close session before payment: %w", finErr)
		}
		session = result.Session
	}

	alreadyPaid, err := s.paymentRepo.SumPaymentsBySession(tx, session.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sum payments for session: %w", err)
	}
	outstanding := session.FinalCost.Sub(alreadyPaid)
	if !outstanding.IsPositive() {
		return nil, nil, fmt.Errorf("%w: final cost %s, already paid %s",
			ErrSessionAlreadyPaid, session.FinalCost.StringFixed(2), alreadyPaid.StringFixed(2))
	}

	amount := req.Amount.Round(2)
	if amount.GreaterThan(outstanding) {
		return nil, nil, fmt.Errorf("%w: outstanding balance is %s",
			ErrPaymentExceedsOwed, outstanding.StringFixed(2))
	}

	payment := &models.Payment{
		SessionID:     session.ID,
		Amount:        amount,
		Method:        models.PaymentMethod(req.Method),
		ReceiptNumber: newReceiptNumber(),
	}
	id, err := s.paymentRepo.CreatePayment(tx, payment)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record payment: %w", err)
	}
	payment.ID = id

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit payment transaction: %w", err)
	}

	totalPaid := alreadyPaid.Add(amount)
	summary := &models.PaymentSummary{
		SessionID:   session.ID,
		FinalCost:   session.FinalCost,
		TotalPaid:   totalPaid,
		Outstanding: session.FinalCost.Sub(totalPaid),
		Settled:     totalPaid.GreaterThanOrEqual(session.FinalCost),
	}
	return payment, summary, nil
}

func (s *paymentService) GetPaymentsBySession(sessionID int64) (*models.PaymentSummary, error) {
	session, err := s.sessionRepo.GetSessionByID(sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session for payment summary: %w", err)
	}

	payments, err := s.paymentRepo.GetPaymentsBySession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments for session: %w", err)
	}

	totalPaid := decimal.Zero
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.Amount)
	}

	// An active session has no fixed cost yet; its outstanding balance
	// is only meaningful once it is closed.
	summary := &models.PaymentSummary{
		SessionID: sessionID,
		FinalCost: session.FinalCost,
		TotalPaid: totalPaid,
		Payments:  payments,
	}
	if session.Status == models.SessionStatusClosed {
		summary.Outstanding = session.FinalCost.Sub(totalPaid)
		summary.Settled = totalPaid.GreaterThanOrEqual(session.FinalCost)
	}
	return summary, nil
}
