package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/core/model"
	"github.com/dndguild/keyevent-bot/pkg/db"
)

// Remove archives and deletes the matching registration in one transaction.
// Inside the cutoff window the sheet retired at the last cutoff is searched
// when it exists.
func (d *DB) Remove(ctx context.Context, character, realm, userID string, now time.Time) (db.RemoveOutcome, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return db.RemoveNotFound, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sheet, err := d.removalSheet(ctx, tx, now)
	if err != nil {
		return db.RemoveNotFound, err
	}

	r, err := scanRegistration(tx.QueryRow(ctx, `
		SELECT `+registrationColumns+`
		FROM registration
		WHERE sheet = $1 AND character = $2 AND realm = $3 AND discord_user = $4
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`, sheet, character, realm, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		d.logger.Info("No registration matched removal",
			zap.String("sheet", sheet),
			zap.String("user", userID),
			zap.String("character", character),
			zap.String("realm", realm))
		return db.RemoveNotFound, nil
	}
	if err != nil {
		return db.RemoveNotFound, fmt.Errorf("failed to find registration: %w", err)
	}

	archived := r.Archive(now.In(d.calendar.Location()).Format(model.TimestampLayout))
	_, err = tx.Exec(ctx, `
		INSERT INTO removed_registration (removed_at, character, class, discord_user, realm, role, source_sheet)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, archived.Timestamp, archived.Character, archived.Class, archived.DiscordUser, archived.Realm, archived.Role, sheet)
	if err != nil {
		return db.RemoveNotFound, fmt.Errorf("failed to archive registration: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM registration WHERE id = $1`, int64(r.Index)); err != nil {
		return db.RemoveNotFound, fmt.Errorf("failed to delete registration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return db.RemoveNotFound, fmt.Errorf("failed to commit removal: %w", err)
	}

	d.logger.Info("Registration removed",
		zap.String("sheet", sheet),
		zap.String("user", userID),
		zap.String("character", character))
	return db.Removed, nil
}

// removalSheet mirrors the sheets store: a cutoff sheet that was never
// rotated falls back to the active sheet
func (d *DB) removalSheet(ctx context.Context, tx pgx.Tx, now time.Time) (string, error) {
	active := d.active.Name()
	sheet := d.calendar.RemovalTable(d.tables.Worksheet, active, now)
	if sheet == active {
		return active, nil
	}

	exists, err := sheetExists(ctx, tx, sheet)
	if err != nil {
		return "", fmt.Errorf("failed to check cutoff sheet: %w", err)
	}
	if !exists {
		d.logger.Warn("Expected cutoff sheet not found for removal, using active sheet",
			zap.String("cutoff_sheet", sheet),
			zap.String("active_sheet", active))
		return active, nil
	}
	return sheet, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sheetExists(ctx context.Context, q querier, name string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sheet_rotation WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}
