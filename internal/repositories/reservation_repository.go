package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"billiard_hall_backend/internal/models"
)

// ReservationRepository defines the interface for reservation database operations.
type ReservationRepository interface {
	CreateReservation(executor SQLExecutor, reservation *models.Reservation) (int64, error)
	GetReservationByID(id int64) (*models.Reservation, error)
	GetReservations(filters models.ReservationFilters) ([]models.Reservation, int, error)
	UpdateReservation(executor SQLExecutor, reservation *models.Reservation) error
	// CountOverlapping counts pending/confirmed reservations on the table
	// whose [start_time, end_time) window intersects [startTime, endTime).
	CountOverlapping(executor SQLExecutor, tableID int64, startTime, endTime time.Time, excludeReservationID *int64) (int, error)
	// GetCommittedForTableBetween returns pending/confirmed reservations
	// on the table intersecting the given window, ordered by start time.
	GetCommittedForTableBetween(tableID int64, from, to time.Time) ([]models.Reservation, error)
}

type reservationRepository struct {
	db *sql.DB
}

// NewReservationRepository creates a new instance of ReservationRepository.
func NewReservationRepository(db *sql.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

const selectReservationFields = `
	r.id, r.user_id, r.table_id, r.reservation_date, r.start_time, r.end_time,
	r.status, r.notes, r.reject_reason, r.approved_by, r.created_at, r.updated_at,
	bt.id, bt.category_id, bt.code, bt.status, bt.created_at, bt.updated_at,
	COALESCE(u.username, ''), u.full_name
`

const reservationJoins = `
	FROM reservations r
	JOIN billiard_tables bt ON r.table_id = bt.id
	LEFT JOIN users u ON r.user_id = u.id
`

// scanReservationRow scans a reservation row joined with its table and user.
func scanReservationRow(row scanner, isList bool) (*models.Reservation, int, error) {
	var reservation models.Reservation
	var table models.BilliardTable
	var user models.User
	var userFullName sql.NullString
	var totalCount int

	scanDest := []interface{}{
		&reservation.ID, &reservation.UserID, &reservation.TableID, &reservation.ReservationDate,
		&reservation.StartTime, &reservation.EndTime, &reservation.Status, &reservation.Notes,
		&reservation.RejectReason, &reservation.ApprovedBy, &reservation.CreatedAt, &reservation.UpdatedAt,
		&table.ID, &table.CategoryID, &table.Code, &table.Status, &table.CreatedAt, &table.UpdatedAt,
		&user.Username, &userFullName,
	}
	if isList {
		scanDest = append(scanDest, &totalCount)
	}

	if err := row.Scan(scanDest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: scanning reservation: %v", ErrDatabaseError, err)
	}

	reservation.Table = &table
	if user.Username != "" {
		user.ID = reservation.UserID
		if userFullName.Valid {
			user.FullName = &userFullName.String
		}
		reservation.User = &user
	}
	return &reservation, totalCount, nil
}

func (r *reservationRepository) CreateReservation(executor SQLExecutor, reservation *models.Reservation) (int64, error) {
	query := `INSERT INTO reservations
	            (user_id, table_id, reservation_date, start_time, end_time, status, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`

	currentTime := time.Now()
	reservation.CreatedAt = currentTime
	reservation.UpdatedAt = currentTime

	var id int64
	err := executor.QueryRow(query,
		reservation.UserID, reservation.TableID, reservation.ReservationDate,
		reservation.StartTime, reservation.EndTime, reservation.Status, reservation.Notes,
		reservation.CreatedAt, reservation.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: creating reservation: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *reservationRepository) GetReservationByID(id int64) (*models.Reservation, error) {
	query := "SELECT " + selectReservationFields + reservationJoins + " WHERE r.id = $1"
	reservation, _, err := scanReservationRow(r.db.QueryRow(query, id), false)
	return reservation, err
}

func (r *reservationRepository) GetReservations(filters models.ReservationFilters) ([]models.Reservation, int, error) {
	reservations := []models.Reservation{}
	var totalCount int

	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectReservationFields + ", COUNT(*) OVER() as total_count " + reservationJoins)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("r.user_id = $%d", argCount))
		args = append(args, *filters.UserID)
		argCount++
	}
	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("r.table_id = $%d", argCount))
		args = append(args, *filters.TableID)
		argCount++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("r.start_time >= $%d", argCount))
		args = append(args, *filters.DateFrom)
		argCount++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("r.end_time <= $%d", argCount))
		args = append(args, *filters.DateTo)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY r.start_time DESC")

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
		return nil, 0, fmt.Errorf("%w: querying reservations: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		reservation, scannedTotalCount, scanErr := scanReservationRow(rows, true)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		reservations = append(reservations, *reservation)
		totalCount = scannedTotalCount
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating reservation rows: %v", ErrDatabaseError, err)
	}
	if len(reservations) == 0 {
		totalCount = 0
	}
	return reservations, totalCount, nil
}

func (r *reservationRepository) UpdateReservation(executor SQLExecutor, reservation *models.Reservation) error {
	query := `UPDATE reservations SET
	            user_id = $1, table_id = $2, reservation_date = $3, start_time = $4, end_time = $5,
	            status = $6, notes = $7, reject_reason = $8, approved_by = $9, updated_at = $10
	          WHERE id = $11
	          RETURNING updated_at`
	reservation.UpdatedAt = time.Now()

	err := executor.QueryRow(query,
		reservation.UserID, reservation.TableID, reservation.ReservationDate,
		reservation.StartTime, reservation.EndTime, reservation.Status, reservation.Notes,
		reservation.RejectReason, reservation.ApprovedBy, reservation.UpdatedAt, reservation.ID,
	).Scan(&reservation.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: updating reservation ID %d: %v", ErrDatabaseError, reservation.ID, err)
	}
	return nil
}

func (r *reservationRepository) CountOverlapping(executor SQLExecutor, tableID int64, startTime, endTime time.Time, excludeReservationID *int64) (int, error) {
	// Half-open overlap: [s1,e1) and [s2,e2) conflict iff s1 < e2 AND s2 < e1.
	query := `SELECT COUNT(*) FROM reservations
	          WHERE table_id = $1
	          AND status IN ($2, $3)
	          AND start_time < $5 AND end_time > $4`
	args := []interface{}{tableID, models.ReservationStatusPending, models.ReservationStatusConfirmed, startTime, endTime}

	if excludeReservationID != nil {
		query += " AND id != $6"
		args = append(args, *excludeReservationID)
	}

	var count int
	if err := executor.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting overlapping reservations: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *reservationRepository) GetCommittedForTableBetween(tableID int64, from, to time.Time) ([]models.Reservation, error) {
	query := `SELECT id, user_id, table_id, reservation_date, start_time, end_time,
	                 status, notes, reject_reason, approved_by, created_at, updated_at
	          FROM reservations
	          WHERE table_id = $1
	          AND status IN ($2, $3)
	          AND start_time < $5 AND end_time > $4
	          ORDER BY start_time`

	rows, err := r.db.Query(query, tableID, models.ReservationStatusPending, models.ReservationStatusConfirmed, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying committed reservations: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	reservations := []models.Reservation{}
	for rows.Next() {
		var reservation models.Reservation
		if err := rows.Scan(
			&reservation.ID, &reservation.UserID, &reservation.TableID, &reservation.ReservationDate,
			&reservation.StartTime, &reservation.EndTime, &reservation.Status, &reservation.Notes,
			&reservation.RejectReason, &reservation.ApprovedBy, &reservation.CreatedAt, &reservation.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning committed reservation: %v", ErrDatabaseError, err)
		}
		reservations = append(reservations, reservation)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating committed reservation rows: %v", ErrDatabaseError, err)
	}
	return reservations, nil
}
