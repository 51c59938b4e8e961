package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"billiard_hall_backend/internal/models"

	"github.com/shopspring/decimal"
)

// SessionRepository defines the interface for session database operations.
type SessionRepository interface {
	CreateSession(executor SQLExecutor, session *models.Session) (int64, error)
	GetSessionByID(id int64) (*models.Session, error)
	// GetSessionByIDForUpdate locks the session row until the surrounding
	// transaction commits. Callers must pass a *sql.Tx.
	GetSessionByIDForUpdate(executor SQLExecutor, id int64) (*models.Session, error)
	GetSessions(filters models.SessionFilters) ([]models.Session, int, error)
	GetActiveSessionByTable(executor SQLExecutor, tableID int64) (*models.Session, error)
	// CountActiveOverlapping counts active sessions on the table whose
	// window intersects [startTime, endTime). An open-ended session is
	// treated as unbounded into the future.
	CountActiveOverlapping(executor SQLExecutor, tableID int64, startTime, endTime time.Time) (int, error)
	// GetActiveForTableBetween returns active sessions on the table whose
	// window intersects the given range.
	GetActiveForTableBetween(tableID int64, from, to time.Time) ([]models.Session, error)
	CloseSession(executor SQLExecutor, id int64, endTime time.Time, finalCost decimal.Decimal, status models.SessionStatus) error
}

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db}
}

const selectSessionFields = `
	id, user_id, reservation_id, table_id, start_time, end_time,
	session_type, final_cost, status, notes, created_at, updated_at
`

func scanSessionRow(row scanner) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID, &session.UserID, &session.ReservationID, &session.TableID,
		&session.StartTime, &session.EndTime, &session.SessionType, &session.FinalCost,
		&session.Status, &session.Notes, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning session: %v", ErrDatabaseError, err)
	}
	return &session, nil
}

func (r *sessionRepository) CreateSession(executor SQLExecutor, session *models.Session) (int64, error) {
	query := `INSERT INTO sessions
	            (user_id, reservation_id, table_id, start_time, end_time, session_type, final_cost, status, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`

	currentTime := time.Now()
	session.CreatedAt = currentTime
	session.UpdatedAt = currentTime

	var id int64
	err := executor.QueryRow(query,
		session.UserID, session.ReservationID, session.TableID, session.StartTime, session.EndTime,
		session.SessionType, session.FinalCost, session.Status, session.Notes,
		session.CreatedAt, session.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: creating session: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *sessionRepository) GetSessionByID(id int64) (*models.Session, error) {
	query := "SELECT " + selectSessionFields + " FROM sessions WHERE id = $1"
	return scanSessionRow(r.db.QueryRow(query, id))
}

func (r *sessionRepository) GetSessionByIDForUpdate(executor SQLExecutor, id int64) (*models.Session, error) {
	query := "SELECT " + selectSessionFields + " FROM sessions WHERE id = $1 FOR UPDATE"
	return scanSessionRow(executor.QueryRow(query, id))
}

func (r *sessionRepository) GetSessions(filters models.SessionFilters) ([]models.Session, int, error) {
	sessions := []models.Session{}
	var totalCount int

	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectSessionFields + ", COUNT(*) OVER() as total_count FROM sessions")

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("table_id = $%d", argCount))
		args = append(args, *filters.TableID)
		argCount++
	}
	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argCount))
		args = append(args, *filters.UserID)
		argCount++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", argCount))
		args = append(args, *filters.DateFrom)
		argCount++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("start_time <= $%d", argCount))
		args = append(args, *filters.DateTo)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY start_time DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying sessions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var session models.Session
		if err := rows.Scan(
			&session.ID, &session.UserID, &session.ReservationID, &session.TableID,
			&session.StartTime, &session.EndTime, &session.SessionType, &session.FinalCost,
			&session.Status, &session.Notes, &session.CreatedAt, &session.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning session row: %v", ErrDatabaseError, err)
		}
		sessions = append(sessions, session)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating session rows: %v", ErrDatabaseError, err)
	}
	if len(sessions) == 0 {
		totalCount = 0
	}
	return sessions, totalCount, nil
}

func (r *sessionRepository) GetActiveSessionByTable(executor SQLExecutor, tableID int64) (*models.Session, error) {
	query := "SELECT " + selectSessionFields + " FROM sessions WHERE table_id = $1 AND status = $2"
	return scanSessionRow(executor.QueryRow(query, tableID, models.SessionStatusActive))
}

func (r *sessionRepository) CountActiveOverlapping(executor SQLExecutor, tableID int64, startTime, endTime time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM sessions
	          WHERE table_id = $1
	          AND status = $2
	          AND start_time < $4
	          AND (end_time IS NULL OR end_time > $3)`

	var count int
	err := executor.QueryRow(query, tableID, models.SessionStatusActive, startTime, endTime).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting overlapping sessions: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *sessionRepository) GetActiveForTableBetween(tableID int64, from, to time.Time) ([]models.Session, error) {
	query := "SELECT " + selectSessionFields + ` FROM sessions
	          WHERE table_id = $1
	          AND status = $2
	          AND start_time < $4
	          AND (end_time IS NULL OR end_time > $3)
	          ORDER BY start_time`

	rows, err := r.db.Query(query, tableID, models.SessionStatusActive, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active sessions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		session, scanErr := scanSessionRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating active session rows: %v", ErrDatabaseError, err)
	}
	return sessions, nil
}

func (r *sessionRepository) CloseSession(executor SQLExecutor, id int64, endTime time.Time, finalCost decimal.Decimal, status models.SessionStatus) error {
	query := `UPDATE sessions SET end_time = $1, final_cost = $2, status = $3, updated_at = $4
	          WHERE id = $5`
	result, err := executor.Exec(query, endTime, finalCost, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: closing session ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
