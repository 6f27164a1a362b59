package sheetssql

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetFieldValue_String(t *testing.T) {
	type TestStruct struct {
		Name string
	}

	var s TestStruct
	field := reflect.ValueOf(&s).Elem().Field(0)

	err := setFieldValue(field, "test value")
	assert.NoError(t, err)
	assert.Equal(t, "test value", s.Name)
}

func TestSetFieldValue_NonStringCell(t *testing.T) {
	type TestStruct struct {
		Level string
	}

	var s TestStruct
	field := reflect.ValueOf(&s).Elem().Field(0)

	err := setFieldValue(field, 12)
	assert.NoError(t, err)
	assert.Equal(t, "12", s.Level)
}

func TestSetFieldValue_EmptyInt(t *testing.T) {
	type TestStruct struct {
		Count int
	}

	var s TestStruct
	field := reflect.ValueOf(&s).Elem().Field(0)

	err := setFieldValue(field, "")
	assert.NoError(t, err)
	assert.Equal(t, 0, s.Count)
}

func TestSetFieldValue_InvalidBool(t *testing.T) {
	type TestStruct struct {
		Active bool
	}

	var s TestStruct
	field := reflect.ValueOf(&s).Elem().Field(0)

	err := setFieldValue(field, "maybe")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse bool")
}

func TestSetFieldValue_Unsupported(t *testing.T) {
	type TestStruct struct {
		Tags []string
	}

	var s TestStruct
	field := reflect.ValueOf(&s).Elem().Field(0)

	err := setFieldValue(field, "a,b")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported field type")
}

func TestRowValues(t *testing.T) {
	type row struct {
		A string `ssql_header:"a"`
		b string
		C int `ssql_header:"c"`
	}

	assert.Equal(t, []interface{}{"x", 3}, RowValues(row{A: "x", b: "hidden", C: 3}))
	assert.Equal(t, []interface{}{"y", 0}, RowValues(&row{A: "y"}))
}
