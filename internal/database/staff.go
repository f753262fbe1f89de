package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"courtbook/internal/booking"
	"courtbook/internal/models"
)

// SyncStaff makes the staff table match staff: listed members are upserted
// as active, everyone else is deactivated.
func (db *DB) SyncStaff(ctx context.Context, staff []models.Staff, now time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "UPDATE staff SET is_active = 0"); err != nil {
		return fmt.Errorf("deactivate staff: %w", err)
	}
	for _, s := range staff {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO staff (id, name, is_active, created_at) VALUES (?, ?, 1, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, is_active = 1`,
			s.ID, s.Name, toDB(now),
		)
		if err != nil {
			return fmt.Errorf("upsert staff %s: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

func (db *DB) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	var (
		s       models.Staff
		created int64
	)
	err := db.QueryRowContext(ctx,
		"SELECT id, name, is_active, created_at FROM staff WHERE id = ?", id,
	).Scan(&s.ID, &s.Name, &s.Active, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get staff: %w", err)
	}
	s.CreatedAt = fromDB(created)
	return &s, nil
}
