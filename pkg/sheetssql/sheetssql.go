package sheetssql

import (
	"context"
	"errors"
	"fmt"

	"github.com/dndguild/keyevent-bot/pkg/clients/sheetsclient"
)

// SheetsClient defines the interface for sheets operations
type SheetsClient interface {
	GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error)
	AppendRows(ctx context.Context, spreadsheetID, sheetRange string, values [][]interface{}) error
	UpdateValues(ctx context.Context, spreadsheetID, sheetRange string, values [][]interface{}) error
	SheetID(ctx context.Context, spreadsheetID, sheetTitle string) (int64, error)
	CreateSheet(ctx context.Context, spreadsheetID, sheetTitle string, rows, cols int64) (int64, error)
	RenameSheet(ctx context.Context, spreadsheetID string, sheetID int64, newTitle string) error
	DeleteRow(ctx context.Context, spreadsheetID string, sheetID int64, rowNumber int) error
}

// ErrTableNotFound is returned when a table (tab) does not exist
var ErrTableNotFound = errors.New("table not found")

// newTableRows is the grid height given to freshly created tables
const newTableRows = 1000

// DB treats the tabs of one spreadsheet as tables.
// Row 1 of every tab is the header; data row i lives on sheet row i+2.
type DB struct {
	client        SheetsClient
	spreadsheetID string
}

// NewDB creates a new Sheets SQL database over a spreadsheet
func NewDB(client SheetsClient, spreadsheetID string) *DB {
	return &DB{
		client:        client,
		spreadsheetID: spreadsheetID,
	}
}

// Client returns the underlying sheets client
func (db *DB) Client() SheetsClient {
	return db.client
}

// SpreadsheetID returns the database spreadsheet ID
func (db *DB) SpreadsheetID() string {
	return db.spreadsheetID
}

// TableExists reports whether a tab with the given title exists
func (db *DB) TableExists(ctx context.Context, tableName string) (bool, error) {
	_, err := db.tableID(ctx, tableName)
	if errors.Is(err, ErrTableNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Header returns the header row of a table
func (db *DB) Header(ctx context.Context, tableName string) ([]interface{}, error) {
	values, err := db.client.GetValues(ctx, db.spreadsheetID, sheetsclient.TabRange(tableName)+"!1:1")
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", tableName, err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values[0], nil
}

// Rows returns the data rows of a table, excluding the header.
// Blank rows are kept so that slice indices map onto sheet rows.
func (db *DB) Rows(ctx context.Context, tableName string) ([][]interface{}, error) {
	values, err := db.client.GetValues(ctx, db.spreadsheetID, sheetsclient.TabRange(tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", tableName, err)
	}
	if len(values) <= 1 {
		return [][]interface{}{}, nil
	}
	return values[1:], nil
}

// InsertRow appends a single row to the specified table
func (db *DB) InsertRow(ctx context.Context, tableName string, row []interface{}) error {
	return db.InsertRows(ctx, tableName, [][]interface{}{row})
}

// InsertRows appends multiple rows to the specified table
func (db *DB) InsertRows(ctx context.Context, tableName string, rows [][]interface{}) error {
	if err := db.client.AppendRows(ctx, db.spreadsheetID, sheetsclient.TabRange(tableName), rows); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", tableName, err)
	}
	return nil
}

// DeleteRow deletes the data row at index from the table
func (db *DB) DeleteRow(ctx context.Context, tableName string, index int) error {
	if index < 0 {
		return fmt.Errorf("invalid row index %d", index)
	}

	sheetID, err := db.tableID(ctx, tableName)
	if err != nil {
		return err
	}

	if err := db.client.DeleteRow(ctx, db.spreadsheetID, sheetID, sheetRowNumber(index)); err != nil {
		return fmt.Errorf("failed to delete row %d of %s: %w", index, tableName, err)
	}
	return nil
}

// UpdateCells overwrites consecutive cells of the data row at index, starting at column fromCol
func (db *DB) UpdateCells(ctx context.Context, tableName string, index, fromCol int, values []interface{}) error {
	if index < 0 || fromCol < 0 {
		return fmt.Errorf("invalid cell position row %d column %d", index, fromCol)
	}
	if len(values) == 0 {
		return nil
	}

	rowNumber := sheetRowNumber(index)
	a1 := sheetsclient.RowRange(tableName, rowNumber, fromCol, fromCol+len(values)-1)
	if err := db.client.UpdateValues(ctx, db.spreadsheetID, a1, [][]interface{}{values}); err != nil {
		return fmt.Errorf("failed to update %s: %w", a1, err)
	}
	return nil
}

// RenameTable changes the title of a table
func (db *DB) RenameTable(ctx context.Context, from, to string) error {
	sheetID, err := db.tableID(ctx, from)
	if err != nil {
		return err
	}
	if err := db.client.RenameSheet(ctx, db.spreadsheetID, sheetID, to); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", from, to, err)
	}
	return nil
}

// CreateTable creates a new tab and writes the header row
func (db *DB) CreateTable(ctx context.Context, tableName string, header []interface{}) error {
	cols := int64(len(header))
	if cols == 0 {
		cols = 1
	}

	if _, err := db.client.CreateSheet(ctx, db.spreadsheetID, tableName, newTableRows, cols); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	if len(header) == 0 {
		return nil
	}

	a1 := sheetsclient.RowRange(tableName, 1, 0, len(header)-1)
	if err := db.client.UpdateValues(ctx, db.spreadsheetID, a1, [][]interface{}{header}); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", tableName, err)
	}
	return nil
}

func (db *DB) tableID(ctx context.Context, tableName string) (int64, error) {
	id, err := db.client.SheetID(ctx, db.spreadsheetID, tableName)
	if errors.Is(err, sheetsclient.ErrSheetNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up table %s: %w", tableName, err)
	}
	return id, nil
}

// sheetRowNumber converts a 0-based data index to a 1-based sheet row
func sheetRowNumber(index int) int {
	return index + 2
}
