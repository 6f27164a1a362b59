package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/core/model"
	"github.com/dndguild/keyevent-bot/pkg/sheetssql"
)

// FindByUser returns the first registration in the active table owned by userID
func (db *DB) FindByUser(ctx context.Context, userID string) (*Registration, error) {
	rows, err := db.registrations(ctx, db.active.Name())
	if err != nil {
		return nil, err
	}

	for _, reg := range rows {
		if reg.DiscordUser == userID {
			found := reg
			return &found, nil
		}
	}

	return nil, nil
}

// Append writes a registration as a new row of the active table
func (db *DB) Append(ctx context.Context, reg *Registration) error {
	table := db.active.Name()
	if err := sheetssql.InsertModel(ctx, db.ssql, table, *reg); err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}

	db.logger.Debug("Registration appended",
		zap.String("table", table),
		zap.String("user", reg.DiscordUser),
		zap.String("character", reg.Character))
	return nil
}

// ListRegistrations returns every non-blank row of the active table
func (db *DB) ListRegistrations(ctx context.Context) ([]RegistrationRow, error) {
	rows, err := db.registrations(ctx, db.active.Name())
	if err != nil {
		return nil, err
	}

	result := make([]RegistrationRow, 0, len(rows))
	for i, reg := range rows {
		if reg.IsBlank() {
			continue
		}
		result = append(result, RegistrationRow{Index: i, Registration: reg})
	}
	return result, nil
}

// UpdateStats writes the known stats into the Item Level, M+ Rating and Highest Key columns
func (db *DB) UpdateStats(ctx context.Context, index int, stats model.CharacterStats) error {
	table := db.active.Name()

	updates := []struct {
		column string
		value  string
	}{
		{"Item Level", stats.ItemLevel},
		{"M+ Rating", stats.Rating},
		{"Highest Key", stats.HighestKey},
	}

	for _, u := range updates {
		if u.value == "" {
			continue
		}
		col := registrationSchema.ColumnIndex(u.column)
		if err := db.ssql.UpdateCells(ctx, table, index, col, []interface{}{u.value}); err != nil {
			return fmt.Errorf("failed to update %s: %w", u.column, err)
		}
	}

	return nil
}

func (db *DB) registrations(ctx context.Context, table string) ([]Registration, error) {
	rows, err := sheetssql.GetTableAs[Registration](ctx, db.ssql, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	return rows, nil
}
