package sheetssql

import (
	"fmt"
	"reflect"
	"strings"
)

// BlankHeader marks a positional column whose header cell is left empty
const BlankHeader = "_"

// Column defines a column by its header text
type Column struct {
	Name  string
	Field string
}

// TableSchema defines the column layout of a table.
// Columns are positional: the i-th tagged field maps to the i-th sheet column.
type TableSchema struct {
	Name    string
	Columns []Column
}

// HeaderRow returns the header cells to write when creating the table
func (t TableSchema) HeaderRow() []interface{} {
	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Name
	}
	return header
}

// ColumnIndex returns the position of the named column, or -1
func (t TableSchema) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// TableFromModel builds a TableSchema by reflecting on a struct definition.
// Fields must have an `ssql_header:"column_name"` tag; a header of "_" leaves
// the column's header cell blank. An empty name falls back to the struct name
// in snake_case.
func TableFromModel(name string, model interface{}) (TableSchema, error) {
	t := reflect.TypeOf(model)
	if t == nil {
		return TableSchema{}, fmt.Errorf("model must be a struct, got nil")
	}

	// Handle pointer to struct
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return TableSchema{}, fmt.Errorf("model must be a struct, got %s", t.Kind())
	}

	if name == "" {
		name = toSnakeCase(t.Name())
	}

	columns := make([]Column, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		header, ok := field.Tag.Lookup("ssql_header")
		if !ok || header == "" {
			return TableSchema{}, fmt.Errorf("field %s.%s missing 'ssql_header' tag", t.Name(), field.Name)
		}
		if header == BlankHeader {
			header = ""
		}

		columns = append(columns, Column{
			Name:  header,
			Field: field.Name,
		})
	}

	if len(columns) == 0 {
		return TableSchema{}, fmt.Errorf("struct %s has no fields", t.Name())
	}

	return TableSchema{
		Name:    name,
		Columns: columns,
	}, nil
}

// MustTableFromModel is like TableFromModel but panics on an invalid model.
// It is intended for package-level schema variables.
func MustTableFromModel(name string, model interface{}) TableSchema {
	table, err := TableFromModel(name, model)
	if err != nil {
		panic(err)
	}
	return table
}

// toSnakeCase converts PascalCase to snake_case
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
