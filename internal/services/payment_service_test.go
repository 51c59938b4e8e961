package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billiard_hall_backend/internal/models"
)

func TestRecordPayment_Validation(t *testing.T) {
	svc := NewPaymentService(&stubPaymentRepo{}, &stubSessionRepo{}, nil, nil)

	_, _, err := svc.RecordPayment(RecordPaymentRequest{
		SessionID: 1, Amount: decimal.Zero, Method: int(models.PaymentMethodCash),
	})
	assert.ErrorIs(t, err, ErrPaymentValidation)

	_, _, err = svc.RecordPayment(RecordPaymentRequest{
		SessionID: 1, Amount: decimal.RequireFromString("-5"), Method: int(models.PaymentMethodCash),
	})
	assert.ErrorIs(t, err, ErrPaymentValidation)

	_, _, err = svc.RecordPayment(RecordPaymentRequest{
		SessionID: 1, Amount: decimal.RequireFromString("10"), Method: 99,
	})
	assert.ErrorIs(t, err, ErrPaymentValidation)
}

func TestGetPaymentsBySession_ClosedSession(t *testing.T) {
	paymentRepo := &stubPaymentRepo{}
	sessionRepo := &stubSessionRepo{}
	end := time.Now()
	sessionRepo.put(&models.Session{
		TableID: 1, StartTime: end.Add(-2 * time.Hour), EndTime: &end,
		FinalCost: decimal.RequireFromString("45.00"),
		Status:    models.SessionStatusClosed,
	})
	paymentRepo.payments = []models.Payment{
		{ID: 1, SessionID: 1, Amount: decimal.RequireFromString("20.00"), Method: models.PaymentMethodCash},
		{ID: 2, SessionID: 1, Amount: decimal.RequireFromString("25.00"), Method: models.PaymentMethodCard},
	}
	svc := NewPaymentService(paymentRepo, sessionRepo, nil, nil)

	summary, err := svc.GetPaymentsBySession(1)
	require.NoError(t, err)

	assert.Equal(t, "45", summary.TotalPaid.String())
	assert.True(t, summary.Outstanding.IsZero())
	assert.True(t, summary.Settled)
	assert.Len(t, summary.Payments, 2)
}

func TestGetPaymentsBySession_PartiallyPaid(t *testing.T) {
	paymentRepo := &stubPaymentRepo{}
	sessionRepo := &stubSessionRepo{}
	end := time.Now()
	sessionRepo.put(&models.Session{
		TableID: 1, StartTime: end.Add(-2 * time.Hour), EndTime: &end,
		FinalCost: decimal.RequireFromString("45.00"),
		Status:    models.SessionStatusClosed,
	})
	paymentRepo.payments = []models.Payment{
		{ID: 1, SessionID: 1, Amount: decimal.RequireFromString("20.00"), Method: models.PaymentMethodQR},
	}
	svc := NewPaymentService(paymentRepo, sessionRepo, nil, nil)

	summary, err := svc.GetPaymentsBySession(1)
	require.NoError(t, err)

	assert.Equal(t, "20", summary.TotalPaid.String())
	assert.Equal(t, "25", summary.Outstanding.String())
	assert.False(t, summary.Settled)
}

func TestGetPaymentsBySession_ActiveSessionHasNoBalance(t *testing.T) {
	paymentRepo := &stubPaymentRepo{}
	sessionRepo := &stubSessionRepo{}
	sessionRepo.put(&models.Session{
		TableID: 1, StartTime: time.Now(), Status: models.SessionStatusActive,
	})
	svc := NewPaymentService(paymentRepo, sessionRepo, nil, nil)

	summary, err := svc.GetPaymentsBySession(1)
	require.NoError(t, err)

	// No fixed cost yet, so no outstanding balance is reported.
	assert.True(t, summary.Outstanding.IsZero())
	assert.False(t, summary.Settled)
	assert.True(t, summary.TotalPaid.IsZero())
}

func TestGetPaymentsBySession_NotFound(t *testing.T) {
	svc := NewPaymentService(&stubPaymentRepo{}, &stubSessionRepo{}, nil, nil)

	_, err := svc.GetPaymentsBySession(404)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNewReceiptNumber_Format(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		receipt := newReceiptNumber()
		require.Len(t, receipt, 12)
		assert.Equal(t, "RCP-", receipt[:4])
		assert.False(t, seen[receipt], "receipt numbers must not repeat")
		seen[receipt] = true
	}
}
