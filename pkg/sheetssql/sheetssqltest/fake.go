// Package sheetssqltest provides an in-memory spreadsheet for tests of code
// built on sheetssql.
package sheetssqltest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dndguild/keyevent-bot/pkg/clients/sheetsclient"
)

type tab struct {
	id    int64
	title string
	rows  [][]interface{}
}

// FakeClient implements sheetssql.SheetsClient against in-memory tabs
type FakeClient struct {
	mu     sync.Mutex
	tabs   []*tab
	nextID int64
	errs   map[string]error
	calls  map[string]int
}

// NewFakeClient returns an empty fake spreadsheet
func NewFakeClient() *FakeClient {
	return &FakeClient{
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// AddTab creates a tab holding the given rows (header first)
func (f *FakeClient) AddTab(title string, rows ...[]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &tab{id: f.nextID, title: title}
	f.nextID++
	for _, r := range rows {
		t.rows = append(t.rows, copyRow(r))
	}
	f.tabs = append(f.tabs, t)
}

// Rows returns a copy of every row in a tab, header included.
// It returns nil when the tab does not exist.
func (f *FakeClient) Rows(title string) [][]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.find(title)
	if t == nil {
		return nil
	}
	return copyRows(t.rows)
}

// HasTab reports whether a tab exists
func (f *FakeClient) HasTab(title string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(title) != nil
}

// Titles lists the tabs in creation order
func (f *FakeClient) Titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	titles := make([]string, len(f.tabs))
	for i, t := range f.tabs {
		titles[i] = t.title
	}
	return titles
}

// FailOn makes every later call to the named method return err.
// A nil err clears the failure.
func (f *FakeClient) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Calls returns how many times the named method was invoked
func (f *FakeClient) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeClient) GetValues(_ context.Context, _ string, sheetRange string) ([][]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetValues"); err != nil {
		return nil, err
	}

	title, cells := sheetsclient.ParseRange(sheetRange)
	t := f.find(title)
	if t == nil {
		return nil, fmt.Errorf("unable to parse range: %s", sheetRange)
	}

	if cells == "" {
		return copyRows(trimTrailing(t.rows)), nil
	}

	// whole-row ranges such as 1:1
	parts := strings.Split(cells, ":")
	from, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("fake only supports whole-row ranges, got %s", cells)
	}
	to := from
	if len(parts) == 2 {
		if to, err = strconv.Atoi(parts[1]); err != nil {
			return nil, fmt.Errorf("fake only supports whole-row ranges, got %s", cells)
		}
	}

	var out [][]interface{}
	for n := from; n <= to && n <= len(t.rows); n++ {
		out = append(out, copyRow(t.rows[n-1]))
	}
	return out, nil
}

func (f *FakeClient) AppendRows(_ context.Context, _ string, sheetRange string, values [][]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("AppendRows"); err != nil {
		return err
	}

	title, _ := sheetsclient.ParseRange(sheetRange)
	t := f.find(title)
	if t == nil {
		return fmt.Errorf("unable to parse range: %s", sheetRange)
	}

	t.rows = append(trimTrailing(t.rows), copyRows(values)...)
	return nil
}

func (f *FakeClient) UpdateValues(_ context.Context, _ string, sheetRange string, values [][]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateValues"); err != nil {
		return err
	}

	title, cells := sheetsclient.ParseRange(sheetRange)
	t := f.find(title)
	if t == nil {
		return fmt.Errorf("unable to parse range: %s", sheetRange)
	}

	start := strings.Split(cells, ":")[0]
	col, row, err := parseCell(start)
	if err != nil {
		return err
	}

	for i, cellRow := range values {
		r := row - 1 + i
		for len(t.rows) <= r {
			t.rows = append(t.rows, []interface{}{})
		}
		for j, v := range cellRow {
			c := col + j
			for len(t.rows[r]) <= c {
				t.rows[r] = append(t.rows[r], "")
			}
			t.rows[r][c] = v
		}
	}
	return nil
}

func (f *FakeClient) SheetID(_ context.Context, _ string, sheetTitle string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SheetID"); err != nil {
		return 0, err
	}

	t := f.find(sheetTitle)
	if t == nil {
		return 0, fmt.Errorf("%w: %s", sheetsclient.ErrSheetNotFound, sheetTitle)
	}
	return t.id, nil
}

func (f *FakeClient) CreateSheet(_ context.Context, _ string, sheetTitle string, _, _ int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateSheet"); err != nil {
		return 0, err
	}

	if f.find(sheetTitle) != nil {
		return 0, fmt.Errorf("a sheet with the name %q already exists", sheetTitle)
	}

	t := &tab{id: f.nextID, title: sheetTitle}
	f.nextID++
	f.tabs = append(f.tabs, t)
	return t.id, nil
}

func (f *FakeClient) RenameSheet(_ context.Context, _ string, sheetID int64, newTitle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("RenameSheet"); err != nil {
		return err
	}

	if f.find(newTitle) != nil {
		return fmt.Errorf("a sheet with the name %q already exists", newTitle)
	}
	for _, t := range f.tabs {
		if t.id == sheetID {
			t.title = newTitle
			return nil
		}
	}
	return fmt.Errorf("no sheet with id %d", sheetID)
}

func (f *FakeClient) DeleteRow(_ context.Context, _ string, sheetID int64, rowNumber int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteRow"); err != nil {
		return err
	}

	for _, t := range f.tabs {
		if t.id != sheetID {
			continue
		}
		if rowNumber < 1 || rowNumber > len(t.rows) {
			return fmt.Errorf("row %d out of range", rowNumber)
		}
		t.rows = append(t.rows[:rowNumber-1], t.rows[rowNumber:]...)
		return nil
	}
	return fmt.Errorf("no sheet with id %d", sheetID)
}

func (f *FakeClient) enter(method string) error {
	f.calls[method]++
	return f.errs[method]
}

func (f *FakeClient) find(title string) *tab {
	for _, t := range f.tabs {
		if t.title == title {
			return t
		}
	}
	return nil
}

// parseCell splits an A1 cell such as G5 into a 0-based column and 1-based row
func parseCell(cell string) (int, int, error) {
	i := 0
	col := 0
	for i < len(cell) && cell[i] >= 'A' && cell[i] <= 'Z' {
		col = col*26 + int(cell[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(cell) {
		return 0, 0, fmt.Errorf("invalid cell %q", cell)
	}
	row, err := strconv.Atoi(cell[i:])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cell %q", cell)
	}
	return col - 1, row, nil
}

// trimTrailing drops empty rows at the end, as the API does
func trimTrailing(rows [][]interface{}) [][]interface{} {
	end := len(rows)
	for end > 0 && len(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}

func copyRow(r []interface{}) []interface{} {
	out := make([]interface{}, len(r))
	copy(out, r)
	return out
}

func copyRows(rows [][]interface{}) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = copyRow(r)
	}
	return out
}
