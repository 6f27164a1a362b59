package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/core/model"
	"github.com/dndguild/keyevent-bot/pkg/sheetssql"
)

// Remove moves the registration matching character, realm and userID into the
// archival table. Inside the cutoff window the table retired at the last
// cutoff is searched instead of the active table.
//
// The archival copy is written before the source row is deleted. If the
// delete fails the error is returned and the row stays in place.
func (db *DB) Remove(ctx context.Context, character, realm, userID string, now time.Time) (RemoveOutcome, error) {
	table, err := db.removalTable(ctx, now)
	if err != nil {
		return RemoveNotFound, err
	}

	rows, err := db.registrations(ctx, table)
	if err != nil {
		return RemoveNotFound, err
	}

	index := -1
	for i, reg := range rows {
		if reg.Character == character && reg.Realm == realm && reg.DiscordUser == userID {
			index = i
			break
		}
	}

	if index == -1 {
		db.logger.Info("No registration matched removal",
			zap.String("table", table),
			zap.String("user", userID),
			zap.String("character", character),
			zap.String("realm", realm))
		return RemoveNotFound, nil
	}

	removedAt := now.In(db.calendar.Location()).Format(model.TimestampLayout)
	archived := rows[index].Archive(removedAt)
	if err := sheetssql.InsertModel(ctx, db.ssql, db.tables.RemovedWorksheet, archived); err != nil {
		return RemoveNotFound, fmt.Errorf("failed to archive registration: %w", err)
	}

	if err := db.ssql.DeleteRow(ctx, table, index); err != nil {
		db.logger.Error("Registration archived but not deleted",
			zap.String("table", table),
			zap.Int("index", index),
			zap.String("user", userID),
			zap.Error(err))
		return RemoveNotFound, fmt.Errorf("registration archived but not deleted: %w", err)
	}

	db.logger.Info("Registration removed",
		zap.String("table", table),
		zap.String("user", userID),
		zap.String("character", character))
	return Removed, nil
}

// removalTable picks the table to search. The cutoff table name is derived
// from the canonical worksheet name and today's date; when that table does
// not exist the active table is used.
func (db *DB) removalTable(ctx context.Context, now time.Time) (string, error) {
	active := db.active.Name()
	table := db.calendar.RemovalTable(db.tables.Worksheet, active, now)
	if table == active {
		return active, nil
	}

	exists, err := db.ssql.TableExists(ctx, table)
	if err != nil {
		return "", fmt.Errorf("failed to check cutoff table: %w", err)
	}
	if !exists {
		db.logger.Warn("Expected cutoff table not found for removal, using active table",
			zap.String("cutoff_table", table),
			zap.String("active_table", active))
		return active, nil
	}

	return table, nil
}
