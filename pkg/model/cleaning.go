// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single cell that was coerced to a default value
type CleaningOperation struct {
	TableName         string      // Source table name
	ColumnName        string      // Column that was cleaned
	RowNumber         int         // 1-based position of the row in the source table
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          string      // New value after cleaning
	CleaningOperation string      // Type of cleaning performed (e.g., "income_coercion")
	CleaningReason    string      // Reason for cleaning (e.g., "unparseable_number")
	CleanedAt         time.Time   // When the cleaning occurred (set by database)
}

// CleaningContext contains information needed for cleaning a value
type CleaningContext struct {
	TableName  string
	ColumnName string
	RowNumber  int
}

// Operation builds a CleaningOperation for a defaulted cell in this context
func (c CleaningContext) Operation(original interface{}, newValue, operation, reason string) CleaningOperation {
	return CleaningOperation{
		TableName:         c.TableName,
		ColumnName:        c.ColumnName,
		RowNumber:         c.RowNumber,
		OriginalValue:     original,
		NewValue:          newValue,
		CleaningOperation: operation,
		CleaningReason:    reason,
	}
}
