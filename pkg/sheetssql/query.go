package sheetssql

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
)

// GetTableAs retrieves all data rows from a table and maps them to structs of type T.
// Cells map onto tagged fields by position. The returned slice keeps blank rows as
// zero values, so element i is sheet row i+2.
func GetTableAs[T any](ctx context.Context, db *DB, tableName string) ([]T, error) {
	dataRows, err := db.Rows(ctx, tableName)
	if err != nil {
		return nil, err
	}

	var model T
	t := reflect.TypeOf(model)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("GetTableAs requires a struct type")
	}

	fields := taggedFields(t)

	// Parse each data row into a struct
	results := make([]T, 0, len(dataRows))
	for rowIdx, row := range dataRows {
		result := reflect.New(t).Elem()

		for colIdx, field := range fields {
			// Get the cell value
			if colIdx >= len(row) {
				// Trailing cells are omitted by the API when empty
				break
			}

			cellValue := row[colIdx]
			if cellValue == nil {
				continue
			}

			// Convert and set the value
			if err := setFieldValue(result.FieldByIndex(field.Index), cellValue); err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", sheetRowNumber(rowIdx), colIdx+1, err)
			}
		}

		results = append(results, result.Interface().(T))
	}

	return results, nil
}

// RowValues converts a model into sheet cells in column order
func RowValues(model interface{}) []interface{} {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	fields := taggedFields(v.Type())
	row := make([]interface{}, 0, len(fields))
	for _, field := range fields {
		row = append(row, v.FieldByIndex(field.Index).Interface())
	}
	return row
}

// InsertModel appends a struct as a row to the named table
func InsertModel[T any](ctx context.Context, db *DB, tableName string, model T) error {
	return db.InsertRow(ctx, tableName, RowValues(model))
}

func taggedFields(t reflect.Type) []reflect.StructField {
	fields := make([]reflect.StructField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if _, ok := field.Tag.Lookup("ssql_header"); ok {
			fields = append(fields, field)
		}
	}
	return fields
}

// setFieldValue converts a sheet cell value to the appropriate Go type and sets it on the field
func setFieldValue(field reflect.Value, cellValue interface{}) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	// Formatted reads return strings; anything else is stringified first
	cellStr, ok := cellValue.(string)
	if !ok {
		cellStr = fmt.Sprint(cellValue)
	}

	// Convert based on field type
	switch field.Kind() {
	case reflect.String:
		field.SetString(cellStr)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if cellStr == "" {
			field.SetInt(0)
		} else {
			intVal, err := strconv.ParseInt(cellStr, 10, 64)
			if err != nil {
				return fmt.Errorf("failed to parse int: %w", err)
			}
			field.SetInt(intVal)
		}

	case reflect.Float32, reflect.Float64:
		if cellStr == "" {
			field.SetFloat(0)
		} else {
			floatVal, err := strconv.ParseFloat(cellStr, 64)
			if err != nil {
				return fmt.Errorf("failed to parse float: %w", err)
			}
			field.SetFloat(floatVal)
		}

	case reflect.Bool:
		if cellStr == "" {
			field.SetBool(false)
		} else {
			boolVal, err := strconv.ParseBool(cellStr)
			if err != nil {
				return fmt.Errorf("failed to parse bool: %w", err)
			}
			field.SetBool(boolVal)
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
