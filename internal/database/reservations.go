package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"courtbook/internal/booking"
	"courtbook/internal/models"
)

var _ booking.Store = (*DB)(nil)

const reservationColumns = `id, court_id, requester_id, start_time, end_time, status, created_at, updated_at`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanReservation(row interface{ Scan(dest ...any) error }) (*models.Reservation, error) {
	var (
		r                            models.Reservation
		start, end, created, updated int64
		status                       string
	)
	if err := row.Scan(&r.ID, &r.CourtID, &r.RequesterID, &start, &end, &status, &created, &updated); err != nil {
		return nil, err
	}
	r.StartTime = fromDB(start)
	r.EndTime = fromDB(end)
	r.Status = models.Status(status)
	r.CreatedAt = fromDB(created)
	r.UpdatedAt = fromDB(updated)
	return &r, nil
}

func collectReservations(rows *sql.Rows) ([]models.Reservation, error) {
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func statusArgs(statuses []models.Status) (string, []any) {
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	return strings.Join(placeholders, ", "), args
}

func findActive(ctx context.Context, q queryer, courtID string, window models.TimeWindow, statuses []models.Status) ([]models.Reservation, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	in, args := statusArgs(statuses)
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE court_id = ? AND start_time < ? AND end_time > ? AND status IN (` + in + `)
		ORDER BY start_time`
	args = append([]any{courtID, toDB(window.End), toDB(window.Start)}, args...)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query active reservations: %w", err)
	}
	return collectReservations(rows)
}

// FindActiveReservations returns reservations of courtID in one of statuses
// that intersect window.
func (db *DB) FindActiveReservations(ctx context.Context, courtID string, window models.TimeWindow, statuses []models.Status) ([]models.Reservation, error) {
	return findActive(ctx, db.DB, courtID, window, statuses)
}

func findByID(ctx context.Context, q queryer, id string) (*models.Reservation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (db *DB) FindReservationByID(ctx context.Context, id string) (*models.Reservation, error) {
	return findByID(ctx, db.DB, id)
}

// ListReservations returns reservations matching filter ordered by start
// time. A zero Limit returns every match.
func (db *DB) ListReservations(ctx context.Context, filter booking.QueryFilter) ([]models.Reservation, error) {
	var (
		where []string
		args  []any
	)
	if filter.CourtID != "" {
		where = append(where, "court_id = ?")
		args = append(args, filter.CourtID)
	}
	if filter.RequesterID != "" {
		where = append(where, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.From.IsZero() {
		where = append(where, "start_time >= ?")
		args = append(args, toDB(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "start_time < ?")
		args = append(args, toDB(filter.To))
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time, id LIMIT ? OFFSET ?"
	limit := -1
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	args = append(args, limit, filter.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return collectReservations(rows)
}

// AtomicInsert verifies check against the court's active reservations and
// inserts r in one immediate transaction.
func (db *DB) AtomicInsert(ctx context.Context, r *models.Reservation, window models.TimeWindow, check booking.ConflictPredicate) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM courts WHERE id = ?", r.CourtID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check court: %w", err)
	}

	if check != nil {
		existing, err := findActive(ctx, tx, r.CourtID, window, models.ActiveStatuses)
		if err != nil {
			return err
		}
		if res := check(existing); res.HasConflict {
			db.logger.Debug().
				Str("court_id", r.CourtID).
				Str("reason", string(res.Reason)).
				Msg("Insert rejected at commit time")
			return &booking.ConflictSignal{Result: res}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CourtID, r.RequesterID,
		toDB(r.StartTime), toDB(r.EndTime), string(r.Status),
		toDB(r.CreatedAt), toDB(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// AtomicUpdateStatus applies a compare-and-set status change. When
// update.Check is set the court's active reservations are re-evaluated
// inside the transaction.
func (db *DB) AtomicUpdateStatus(ctx context.Context, update booking.StatusUpdate) (*models.Reservation, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := findByID(ctx, tx, update.ReservationID)
	if err != nil {
		return nil, err
	}
	if update.Expected != "" && current.Status != update.Expected {
		return nil, &booking.ConflictSignal{Result: booking.ConflictResult{
			HasConflict: true,
			Conflict:    current,
			Reason:      booking.KindConcurrencyConflict,
		}}
	}

	if update.Check != nil {
		existing, err := findActive(ctx, tx, current.CourtID, update.Window, models.ActiveStatuses)
		if err != nil {
			return nil, err
		}
		if res := update.Check(existing); res.HasConflict {
			return nil, &booking.ConflictSignal{Result: res}
		}
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?",
		string(update.To), toDB(update.UpdatedAt), update.ReservationID,
	)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	current.Status = update.To
	current.UpdatedAt = fromDB(toDB(update.UpdatedAt))
	return current, nil
}

func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

// BulkUpdateStatus moves every reservation in filter.Status that ended
// before filter.EndedBefore to status to.
func (db *DB) BulkUpdateStatus(ctx context.Context, filter booking.BulkFilter, to models.Status, updatedAt time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `
		UPDATE reservations SET status = ?, updated_at = ?
		WHERE status = ? AND end_time < ?`,
		string(to), toDB(updatedAt), string(filter.Status), toDB(filter.EndedBefore),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk update status: %w", err)
	}
	return result.RowsAffected()
}
