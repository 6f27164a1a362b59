package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/db"
)

// Rotate relabels the active sheet's rows with the cutoff name. It does
// nothing unless now is a Friday, or when this cutoff was already rotated.
func (d *DB) Rotate(ctx context.Context, now time.Time) (db.RotateOutcome, error) {
	if !d.calendar.IsRotationDay(now) {
		d.logger.Info("Not a rotation day, no table changes made",
			zap.String("weekday", now.In(d.calendar.Location()).Weekday().String()))
		return db.RotateSkipped, nil
	}

	oldName := d.active.Name()
	newName := d.calendar.RotatedTableName(oldName, now)

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return db.RotateSkipped, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	exists, err := sheetExists(ctx, tx, newName)
	if err != nil {
		return db.RotateSkipped, fmt.Errorf("failed to check rotated sheet: %w", err)
	}
	if exists {
		d.logger.Info("Table already rotated for this cutoff", zap.String("table", newName))
		return db.RotateSkipped, nil
	}

	tag, err := tx.Exec(ctx, `UPDATE registration SET sheet = $2 WHERE sheet = $1`, oldName, newName)
	if err != nil {
		return db.RotateSkipped, fmt.Errorf("failed to retire active sheet: %w", err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO sheet_rotation (name, retired_from) VALUES ($1, $2)`, newName, oldName)
	if err != nil {
		return db.RotateSkipped, fmt.Errorf("failed to record rotation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return db.RotateSkipped, fmt.Errorf("failed to commit rotation: %w", err)
	}

	d.active.Set(d.tables.Worksheet)
	d.logger.Info("Rotated active sheet",
		zap.String("from", oldName),
		zap.String("to", newName),
		zap.Int64("rows", tag.RowsAffected()))

	return db.Rotated, nil
}
