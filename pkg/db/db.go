package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dndguild/keyevent-bot/pkg/core/schedule"
	"github.com/dndguild/keyevent-bot/pkg/sheetssql"
)

// Tables names the tabs the store works with
type Tables struct {
	// Worksheet is the canonical name of the active sign-up table
	Worksheet string
	// RemovedWorksheet receives archival copies of withdrawn sign-ups
	RemovedWorksheet string
}

// DB provides registration storage using SheetsSQL
type DB struct {
	ssql     *sheetssql.DB
	tables   Tables
	active   *ActiveTable
	calendar *schedule.Calendar
	logger   *zap.Logger
}

var _ RegistrationStore = (*DB)(nil)

// NewDB creates a new database instance. The active table starts at the
// canonical worksheet name.
func NewDB(ssql *sheetssql.DB, tables Tables, calendar *schedule.Calendar, logger *zap.Logger) *DB {
	return &DB{
		ssql:     ssql,
		tables:   tables,
		active:   NewActiveTable(tables.Worksheet),
		calendar: calendar,
		logger:   logger,
	}
}

// Active returns the active-table holder
func (db *DB) Active() *ActiveTable {
	return db.active
}

// EnsureTables creates the active and archival tables when they are missing
func (db *DB) EnsureTables(ctx context.Context) error {
	wanted := []struct {
		name   string
		header []interface{}
	}{
		{db.active.Name(), RegistrationHeader()},
		{db.tables.RemovedWorksheet, RemovedHeader()},
	}

	for _, t := range wanted {
		exists, err := db.ssql.TableExists(ctx, t.name)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", t.name, err)
		}
		if exists {
			continue
		}

		db.logger.Info("Creating missing table", zap.String("table", t.name))
		if err := db.ssql.CreateTable(ctx, t.name, t.header); err != nil {
			return err
		}
	}

	return nil
}
