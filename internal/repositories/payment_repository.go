package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"billiard_hall_backend/internal/models"

	"github.com/shopspring/decimal"
)

// PaymentRepository defines the interface for payment database operations.
type PaymentRepository interface {
	CreatePayment(executor SQLExecutor, payment *models.Payment) (int64, error)
	GetPaymentsBySession(sessionID int64) ([]models.Payment, error)
	SumPaymentsBySession(executor SQLExecutor, sessionID int64) (decimal.Decimal, error)
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreatePayment(executor SQLExecutor, payment *models.Payment) (int64, error) {
	query := `INSERT INTO payments (session_id, amount, method, receipt_number, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	payment.CreatedAt = time.Now()

	var id int64
	err := executor.QueryRow(query,
		payment.SessionID, payment.Amount, payment.Method, payment.ReceiptNumber, payment.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: creating payment: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *paymentRepository) GetPaymentsBySession(sessionID int64) ([]models.Payment, error) {
	query := `SELECT id, session_id, amount, method, receipt_number, created_at
	          FROM payments WHERE session_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payments for session %d: %v", ErrDatabaseError, sessionID, err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var payment models.Payment
		if err := rows.Scan(
			&payment.ID, &payment.SessionID, &payment.Amount, &payment.Method,
			&payment.ReceiptNumber, &payment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning payment: %v", ErrDatabaseError, err)
		}
		payments = append(payments, payment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment rows: %v", ErrDatabaseError, err)
	}
	return payments, nil
}

func (r *paymentRepository) SumPaymentsBySession(executor SQLExecutor, sessionID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE session_id = $1`
	if err := executor.QueryRow(query, sessionID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%w: summing payments for session %d: %v", ErrDatabaseError, sessionID, err)
	}
	return total, nil
}
