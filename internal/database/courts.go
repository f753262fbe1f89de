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

// SeedCourts inserts courts that are missing and renames existing ones.
// Courts absent from the list are left untouched.
func (db *DB) SeedCourts(ctx context.Context, courts []models.Court, now time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range courts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO courts (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
			WHERE courts.name != excluded.name`,
			c.ID, c.Name, toDB(now), toDB(now),
		)
		if err != nil {
			return fmt.Errorf("seed court %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	db.logger.Info().Int("count", len(courts)).Msg("Courts seeded")
	return nil
}

func (db *DB) FindResourceByID(ctx context.Context, id string) (*models.Court, error) {
	var (
		c                models.Court
		created, updated int64
	)
	err := db.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM courts WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get court: %w", err)
	}
	c.CreatedAt = fromDB(created)
	c.UpdatedAt = fromDB(updated)
	return &c, nil
}

// ListCourts returns every court ordered by id.
func (db *DB) ListCourts(ctx context.Context) ([]models.Court, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name, created_at, updated_at FROM courts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	defer rows.Close()

	var out []models.Court
	for rows.Next() {
		var (
			c                models.Court
			created, updated int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &created, &updated); err != nil {
			return nil, err
		}
		c.CreatedAt = fromDB(created)
		c.UpdatedAt = fromDB(updated)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) ListResourceIDs(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT id FROM courts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list court ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
