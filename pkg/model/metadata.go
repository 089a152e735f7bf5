// pkg/model/metadata.go
package model

// TableMetadata contains the structure information for a database table
type TableMetadata struct {
	Table   string   // Table name
	Columns []Column // Column definitions, in table order
}

// Column represents metadata about a database column
type Column struct {
	Name     string // Column name
	SQLType  string // SQL type used when the table is created
	Nullable bool   // Whether column allows NULL values
}

// ColumnNames returns the column names in table order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}
