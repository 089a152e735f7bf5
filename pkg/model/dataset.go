// pkg/model/dataset.go
package model

import "database/sql"

// Value is a single cell as returned by a database driver:
// nil, int64, float64, bool, string, []byte or time.Time
type Value = interface{}

// Column names shared by the raw and clean tables
const (
	ColumnName          = "name"
	ColumnAge           = "age"
	ColumnIncome        = "income"
	ColumnMaritalStatus = "marital_status"

	ColumnMentalIllness      = "history_of_mental_illness"
	ColumnSubstanceAbuse     = "history_of_substance_abuse"
	ColumnFamilyDepression   = "family_history_of_depression"
	ColumnChronicConditions  = "chronic_medical_conditions"
	ColumnAgeGroup           = "age_group"
	ColumnGroupTotalRecords  = "group_total_records"
	ColumnGroupAverageIncome = "group_avg_income"
)

// RequiredColumns must be present in every raw table
var RequiredColumns = []string{ColumnName, ColumnAge, ColumnIncome, ColumnMaritalStatus}

// BinaryColumns are the optional Yes/No columns coerced to 0/1 when present
var BinaryColumns = []string{
	ColumnMentalIllness,
	ColumnSubstanceAbuse,
	ColumnFamilyDepression,
	ColumnChronicConditions,
}

// DerivedColumns are appended to the clean table, in this order
var DerivedColumns = []string{ColumnAgeGroup, ColumnGroupTotalRecords, ColumnGroupAverageIncome}

// Table is tabular data as read from or written to a relational store
type Table struct {
	Columns []string
	Rows    [][]Value
}

// ColumnIndex returns the position of a column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// RawRecord is one raw row bound to the known columns
type RawRecord struct {
	Name          Value
	Age           Value
	Income        Value
	MaritalStatus Value

	// Flags holds the optional binary columns present in the schema
	Flags map[string]Value
	// Fields holds every other column, passed through unchanged
	Fields map[string]Value
}

// RawDataset is an ordered sequence of raw records with normalized column names
type RawDataset struct {
	Columns []string
	Records []RawRecord
}

// HasColumn reports whether the normalized schema contains the column
func (d *RawDataset) HasColumn(name string) bool {
	for _, col := range d.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// AgeGroup is the derived age bucket
type AgeGroup string

const (
	AgeGroupTeen       AgeGroup = "Teen"
	AgeGroupYoungAdult AgeGroup = "Young Adult"
	AgeGroupMiddleAged AgeGroup = "Middle Aged"
	AgeGroupSenior     AgeGroup = "Senior"
	AgeGroupElderly    AgeGroup = "Elderly"
)

// NullAgeGroup is an AgeGroup that may be missing.
// A missing group always has an empty AgeGroup so that it compares equal.
type NullAgeGroup struct {
	AgeGroup AgeGroup
	Valid    bool
}

// Value returns the group label, or nil when missing
func (n NullAgeGroup) Value() Value {
	if !n.Valid {
		return nil
	}
	return string(n.AgeGroup)
}

// String returns the group label, or "<missing>"
func (n NullAgeGroup) String() string {
	if !n.Valid {
		return "<missing>"
	}
	return string(n.AgeGroup)
}

// GroupKey identifies an aggregation partition. Missing components are
// normalized so every missing value hashes to the same key.
type GroupKey struct {
	AgeGroup      NullAgeGroup
	MaritalStatus sql.NullString
}

// NewGroupKey builds a canonical key
func NewGroupKey(ageGroup NullAgeGroup, maritalStatus sql.NullString) GroupKey {
	if !ageGroup.Valid {
		ageGroup = NullAgeGroup{}
	}
	if !maritalStatus.Valid {
		maritalStatus = sql.NullString{}
	}
	return GroupKey{AgeGroup: ageGroup, MaritalStatus: maritalStatus}
}

// GroupStats holds the aggregates of one partition
type GroupStats struct {
	Key          GroupKey
	TotalRecords int64
	// IncomeSum is a float64 so sums past int64 do not overflow
	IncomeSum    float64
}

// AvgIncome returns the mean income of the group
func (g *GroupStats) AvgIncome() float64 {
	if g.TotalRecords == 0 {
		return 0
	}
	return g.IncomeSum / float64(g.TotalRecords)
}

// CleanRecord is a raw record after coercion, derivation and the group join
type CleanRecord struct {
	Name          sql.NullString
	Age           Value
	Income        int64
	MaritalStatus sql.NullString

	Flags  map[string]int64
	Fields map[string]Value

	AgeGroup          NullAgeGroup
	GroupTotalRecords int64
	GroupAvgIncome    float64
}

// Get returns the output value of a column
func (r *CleanRecord) Get(column string) Value {
	switch column {
	case ColumnName:
		return nullString(r.Name)
	case ColumnAge:
		return r.Age
	case ColumnIncome:
		return r.Income
	case ColumnMaritalStatus:
		return nullString(r.MaritalStatus)
	case ColumnAgeGroup:
		return r.AgeGroup.Value()
	case ColumnGroupTotalRecords:
		return r.GroupTotalRecords
	case ColumnGroupAverageIncome:
		return r.GroupAvgIncome
	}
	if v, ok := r.Flags[column]; ok {
		return v
	}
	return r.Fields[column]
}

// CleanDataset is the enriched output, same length and order as its input
type CleanDataset struct {
	Columns []string
	Records []CleanRecord
}

// Len returns the number of records
func (d *CleanDataset) Len() int {
	return len(d.Records)
}

// Table renders the dataset as rows in column order
func (d *CleanDataset) Table() *Table {
	rows := make([][]Value, len(d.Records))
	for i := range d.Records {
		row := make([]Value, len(d.Columns))
		for j, col := range d.Columns {
			row[j] = d.Records[i].Get(col)
		}
		rows[i] = row
	}
	return &Table{Columns: append([]string(nil), d.Columns...), Rows: rows}
}

func nullString(s sql.NullString) Value {
	if !s.Valid {
		return nil
	}
	return s.String
}
