package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Rotate retires the active table by renaming it with the cutoff date, then
// creates a fresh table under the canonical name with the same header row.
// It does nothing unless now is a Friday in the reference zone, or when the
// table for this cutoff already exists.
func (db *DB) Rotate(ctx context.Context, now time.Time) (RotateOutcome, error) {
	if !db.calendar.IsRotationDay(now) {
		db.logger.Info("Not a rotation day, no table changes made",
			zap.String("weekday", now.In(db.calendar.Location()).Weekday().String()))
		return RotateSkipped, nil
	}

	oldTitle := db.active.Name()
	newTitle := db.calendar.RotatedTableName(oldTitle, now)

	exists, err := db.ssql.TableExists(ctx, newTitle)
	if err != nil {
		return RotateSkipped, fmt.Errorf("failed to check rotated table: %w", err)
	}
	if exists {
		db.logger.Info("Table already rotated for this cutoff", zap.String("table", newTitle))
		return RotateSkipped, nil
	}

	header, err := db.ssql.Header(ctx, oldTitle)
	if err != nil {
		return RotateSkipped, fmt.Errorf("failed to read header row: %w", err)
	}
	if len(header) == 0 {
		header = RegistrationHeader()
	}

	if err := db.ssql.RenameTable(ctx, oldTitle, newTitle); err != nil {
		return RotateSkipped, fmt.Errorf("failed to retire active table: %w", err)
	}
	db.logger.Info("Renamed sheet", zap.String("from", oldTitle), zap.String("to", newTitle))

	if err := db.ssql.CreateTable(ctx, db.tables.Worksheet, header); err != nil {
		return RotateSkipped, fmt.Errorf("failed to create new active table: %w", err)
	}

	db.active.Set(db.tables.Worksheet)
	db.logger.Info("Created new active table with header row copied",
		zap.String("table", db.tables.Worksheet))

	return Rotated, nil
}
