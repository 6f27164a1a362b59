package sheetsclient

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrSheetNotFound is returned when a tab title does not exist in the spreadsheet
var ErrSheetNotFound = errors.New("sheet not found")

// Client wraps the Google Sheets API client
type Client struct {
	service *sheets.Service
}

// NewClient creates a Sheets client authenticated with a service account key file
func NewClient(ctx context.Context, credentialsPath string) (*Client, error) {
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("service account credentials: %w", err)
	}

	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{service: service}, nil
}

// Service returns the underlying sheets service for direct API access
func (c *Client) Service() *sheets.Service {
	return c.service
}

// GetValues reads values from a spreadsheet range
func (c *Client) GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get values: %w", err)
	}

	return resp.Values, nil
}

// AppendRows appends rows to the end of a sheet
func (c *Client) AppendRows(ctx context.Context, spreadsheetID, sheetRange string, values [][]interface{}) error {
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := c.service.Spreadsheets.Values.Append(spreadsheetID, sheetRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}

	return nil
}

// UpdateValues overwrites the cells of a range
func (c *Client) UpdateValues(ctx context.Context, spreadsheetID, sheetRange string, values [][]interface{}) error {
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := c.service.Spreadsheets.Values.Update(spreadsheetID, sheetRange, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update values: %w", err)
	}

	return nil
}

// SheetID looks up the numeric id of a tab by its title
func (c *Client) SheetID(ctx context.Context, spreadsheetID, sheetTitle string) (int64, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetTitle {
			return sheet.Properties.SheetId, nil
		}
	}

	return 0, fmt.Errorf("%w: %s", ErrSheetNotFound, sheetTitle)
}

// CreateSheet creates a new sheet/tab in the spreadsheet with the given grid size
func (c *Client) CreateSheet(ctx context.Context, spreadsheetID, sheetTitle string, rows, cols int64) (int64, error) {
	req := &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{
				Title: sheetTitle,
				GridProperties: &sheets.GridProperties{
					RowCount:    rows,
					ColumnCount: cols,
				},
			},
		},
	}

	resp, err := c.batchUpdate(ctx, spreadsheetID, req)
	if err != nil {
		return 0, fmt.Errorf("failed to create sheet: %w", err)
	}

	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return 0, fmt.Errorf("unexpected response from create sheet")
	}

	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// RenameSheet changes the title of an existing tab
func (c *Client) RenameSheet(ctx context.Context, spreadsheetID string, sheetID int64, newTitle string) error {
	req := &sheets.Request{
		UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId: sheetID,
				Title:   newTitle,
				// sheet id 0 is valid and must not be dropped as a zero value
				ForceSendFields: []string{"SheetId"},
			},
			Fields: "title",
		},
	}

	if _, err := c.batchUpdate(ctx, spreadsheetID, req); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	return nil
}

// DeleteRow removes a single row. rowNumber is 1-based as shown in the sheet UI.
func (c *Client) DeleteRow(ctx context.Context, spreadsheetID string, sheetID int64, rowNumber int) error {
	if rowNumber < 1 {
		return fmt.Errorf("invalid row number %d", rowNumber)
	}

	req := &sheets.Request{
		DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(rowNumber - 1),
				EndIndex:   int64(rowNumber),

				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	}

	if _, err := c.batchUpdate(ctx, spreadsheetID, req); err != nil {
		return fmt.Errorf("failed to delete row %d: %w", rowNumber, err)
	}

	return nil
}

func (c *Client) batchUpdate(ctx context.Context, spreadsheetID string, reqs ...*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}
	return c.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdateRequest).Context(ctx).Do()
}
