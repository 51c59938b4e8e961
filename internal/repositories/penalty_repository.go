package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"billiard_hall_backend/internal/models"

	"github.com/shopspring/decimal"
)

// PenaltyRepository defines the interface for penalty database operations.
// Penalties are append-only; there is no update or delete.
type PenaltyRepository interface {
	CreatePenalty(executor SQLExecutor, penalty *models.Penalty) (int64, error)
	GetPenaltiesBySession(executor SQLExecutor, sessionID int64) ([]models.Penalty, error)
	SumPenaltiesBySession(executor SQLExecutor, sessionID int64) (decimal.Decimal, error)
}

type penaltyRepository struct {
	db *sql.DB
}

// NewPenaltyRepository creates a new instance of PenaltyRepository.
func NewPenaltyRepository(db *sql.DB) PenaltyRepository {
	return &penaltyRepository{db: db}
}

func (r *penaltyRepository) CreatePenalty(executor SQLExecutor, penalty *models.Penalty) (int64, error) {
	query := `INSERT INTO penalties (session_id, amount, reason, applied_by, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	penalty.CreatedAt = time.Now()

	var id int64
	err := executor.QueryRow(query,
		penalty.SessionID, penalty.Amount, penalty.Reason, penalty.AppliedBy, penalty.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: creating penalty: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *penaltyRepository) GetPenaltiesBySession(executor SQLExecutor, sessionID int64) ([]models.Penalty, error) {
	query := `SELECT id, session_id, amount, reason, applied_by, created_at
	          FROM penalties WHERE session_id = $1 ORDER BY created_at`

	rows, err := executor.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying penalties for session %d: %v", ErrDatabaseError, sessionID, err)
	}
	defer rows.Close()

	penalties := []models.Penalty{}
	for rows.Next() {
		var penalty models.Penalty
		if err := rows.Scan(
			&penalty.ID, &penalty.SessionID, &penalty.Amount, &penalty.Reason,
			&penalty.AppliedBy, &penalty.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning penalty: %v", ErrDatabaseError, err)
		}
		penalties = append(penalties, penalty)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating penalty rows: %v", ErrDatabaseError, err)
	}
	return penalties, nil
}

func (r *penaltyRepository) SumPenaltiesBySession(executor SQLExecutor, sessionID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM penalties WHERE session_id = $1`
	if err := executor.QueryRow(query, sessionID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%w: summing penalties for session %d: %v", ErrDatabaseError, sessionID, err)
	}
	return total, nil
}
