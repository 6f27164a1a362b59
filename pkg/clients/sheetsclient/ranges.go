package sheetsclient

import (
	"fmt"
	"strings"
)

// QuoteTitle quotes a tab title for use in A1 notation.
// Single quotes inside the title are doubled.
func QuoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// TabRange returns the A1 range covering a whole tab
func TabRange(title string) string {
	return QuoteTitle(title)
}

// RowRange returns the A1 range for the given 1-based row spanning columns
// fromCol..toCol (0-based, inclusive)
func RowRange(title string, rowNumber, fromCol, toCol int) string {
	return fmt.Sprintf("%s!%s%d:%s%d",
		QuoteTitle(title),
		ColumnLetter(fromCol), rowNumber,
		ColumnLetter(toCol), rowNumber,
	)
}

// ColumnLetter converts a 0-based column index to its A1 letters (0 -> A, 26 -> AA)
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	var letters []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		letters = append([]byte{byte('A' + (n-1)%26)}, letters...)
	}
	return string(letters)
}

// ParseRange splits an A1 range into its tab title and cell reference.
// The cell part is empty when the range names a whole tab.
func ParseRange(a1 string) (title, cells string) {
	if strings.HasPrefix(a1, "'") {
		// find the closing quote, skipping doubled quotes
		for i := 1; i < len(a1); i++ {
			if a1[i] != '\'' {
				continue
			}
			if i+1 < len(a1) && a1[i+1] == '\'' {
				i++
				continue
			}
			title = strings.ReplaceAll(a1[1:i], "''", "'")
			rest := a1[i+1:]
			return title, strings.TrimPrefix(rest, "!")
		}
		return strings.ReplaceAll(a1[1:], "''", "'"), ""
	}

	if idx := strings.LastIndex(a1, "!"); idx >= 0 {
		return a1[:idx], a1[idx+1:]
	}
	return a1, ""
}

// FindColumnIndex finds the index of a column by its header name
func FindColumnIndex(header []interface{}, columnName string) int {
	for i, cell := range header {
		if str, ok := cell.(string); ok && str == columnName {
			return i
		}
	}
	return -1
}
