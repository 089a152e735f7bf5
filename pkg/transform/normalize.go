package transform

import (
	"sort"
	"strings"

	"github.com/David-Botos/data-transform/pkg/model"
)

// NormalizeColumnName trims, lowercases and replaces spaces with underscores
func NormalizeColumnName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// NormalizeColumns normalizes every column name and rejects duplicates
func NormalizeColumns(columns []string) ([]string, error) {
	normalized := make([]string, len(columns))
	seen := make(map[string]int, len(columns))
	var duplicates []string

	for i, col := range columns {
		name := NormalizeColumnName(col)
		normalized[i] = name
		seen[name]++
		if seen[name] == 2 {
			duplicates = append(duplicates, name)
		}
	}

	if len(duplicates) > 0 {
		return nil, &FormatError{Reason: "duplicate column names after normalization", Columns: duplicates}
	}
	return normalized, nil
}

// ValidateSchema checks required columns are present and derived columns are not
func ValidateSchema(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col] = true
	}

	var missing []string
	for _, col := range model.RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &FormatError{Reason: "missing required columns", Columns: missing}
	}

	var reserved []string
	for _, col := range model.DerivedColumns {
		if present[col] {
			reserved = append(reserved, col)
		}
	}
	if len(reserved) > 0 {
		sort.Strings(reserved)
		return &FormatError{Reason: "columns collide with derived columns", Columns: reserved}
	}

	return nil
}

// Bind normalizes the table schema and binds each row to a RawRecord
func Bind(t *model.Table) (*model.RawDataset, error) {
	columns, err := NormalizeColumns(t.Columns)
	if err != nil {
		return nil, err
	}
	if err := ValidateSchema(columns); err != nil {
		return nil, err
	}

	binary := make(map[string]bool, len(model.BinaryColumns))
	for _, col := range model.BinaryColumns {
		binary[col] = true
	}

	records := make([]model.RawRecord, len(t.Rows))
	for i, row := range t.Rows {
		rec := model.RawRecord{
			Flags:  make(map[string]model.Value),
			Fields: make(map[string]model.Value),
		}
		for j, col := range columns {
			var v model.Value
			if j < len(row) {
				v = row[j]
			}
			switch {
			case col == model.ColumnName:
				rec.Name = v
			case col == model.ColumnAge:
				rec.Age = v
			case col == model.ColumnIncome:
				rec.Income = v
			case col == model.ColumnMaritalStatus:
				rec.MaritalStatus = v
			case binary[col]:
				rec.Flags[col] = v
			default:
				rec.Fields[col] = v
			}
		}
		records[i] = rec
	}

	return &model.RawDataset{Columns: columns, Records: records}, nil
}
