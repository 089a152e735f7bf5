package transform

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/data-transform/pkg/model"
)

func rawTable(columns []string, rows ...[]model.Value) *model.Table {
	return &model.Table{Columns: columns, Rows: rows}
}

var baseColumns = []string{"name", "age", "income", "marital_status"}

func TestTransformEndToEnd(t *testing.T) {
	raw := rawTable(baseColumns,
		[]model.Value{"A", int64(17), "50000", "Single"},
		[]model.Value{"B", int64(18), "x", "Single"},
	)

	clean, report, err := NewEngine(nil).Transform("raw_data", raw)
	require.NoError(t, err)
	require.Equal(t, 2, clean.Len())

	a, b := clean.Records[0], clean.Records[1]

	assert.Equal(t, "A", a.Name.String)
	assert.Equal(t, model.NullAgeGroup{AgeGroup: model.AgeGroupTeen, Valid: true}, a.AgeGroup)
	assert.Equal(t, int64(50000), a.Income)
	assert.Equal(t, int64(1), a.GroupTotalRecords)
	assert.Equal(t, 50000.0, a.GroupAvgIncome)

	assert.Equal(t, "B", b.Name.String)
	assert.Equal(t, model.NullAgeGroup{AgeGroup: model.AgeGroupYoungAdult, Valid: true}, b.AgeGroup)
	assert.Equal(t, int64(0), b.Income)
	assert.Equal(t, int64(1), b.GroupTotalRecords)
	assert.Equal(t, 0.0, b.GroupAvgIncome)

	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 2, report.Groups)
	assert.Equal(t, map[string]int{model.ColumnIncome: 1}, report.Defaulted)
	require.Len(t, report.Operations, 1)
	assert.Equal(t, 2, report.Operations[0].RowNumber)
	assert.Equal(t, "x", report.Operations[0].OriginalValue)
}

func TestTransformOutputColumns(t *testing.T) {
	raw := rawTable([]string{" Name", "AGE", "Income ", " Marital Status ", "Zip Code"},
		[]model.Value{"A", int64(40), int64(10), "Married", "98225"},
	)

	clean, _, err := NewEngine(nil).Transform("raw_data", raw)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"name", "age", "income", "marital_status", "zip_code",
		"age_group", "group_total_records", "group_avg_income",
	}, clean.Columns)

	table := clean.Table()
	assert.Equal(t, clean.Columns, table.Columns)
	assert.Equal(t, []model.Value{
		"A", int64(40), int64(10), "Married", "98225",
		"Middle Aged", int64(1), 10.0,
	}, table.Rows[0])
}

func TestTransformPreservesRowsAndOrder(t *testing.T) {
	raw := rawTable(baseColumns,
		[]model.Value{"r1", int64(150), "10", nil},
		[]model.Value{"r2", nil, nil, "Single"},
		[]model.Value{"r3", int64(-1), "20", nil},
		[]model.Value{"r4", "abc", "abc", "Single"},
		[]model.Value{"r5", int64(25), "30", "Married"},
	)

	clean, _, err := NewEngine(nil).Transform("raw_data", raw)
	require.NoError(t, err)
	require.Equal(t, raw.Len(), clean.Len())

	for i, rec := range clean.Records {
		assert.Equal(t, raw.Rows[i][0], rec.Name.String)
		assert.GreaterOrEqual(t, rec.GroupTotalRecords, int64(1))
	}

	// r1 and r3: missing age group, missing marital status
	assert.False(t, clean.Records[0].AgeGroup.Valid)
	assert.Equal(t, int64(2), clean.Records[0].GroupTotalRecords)
	assert.Equal(t, 15.0, clean.Records[0].GroupAvgIncome)
	assert.Equal(t, int64(2), clean.Records[2].GroupTotalRecords)

	// r2 and r4: missing age group, Single
	assert.Equal(t, int64(2), clean.Records[1].GroupTotalRecords)
	assert.Equal(t, 0.0, clean.Records[1].GroupAvgIncome)

	// Missing age group renders as NULL
	table := clean.Table()
	assert.Nil(t, table.Rows[0][table.ColumnIndex(model.ColumnAgeGroup)])
	assert.Nil(t, table.Rows[0][table.ColumnIndex(model.ColumnMaritalStatus)])
}

func TestTransformGroupStatsConsistent(t *testing.T) {
	raw := rawTable(baseColumns,
		[]model.Value{"a", int64(20), "100", "Single"},
		[]model.Value{"b", int64(22), "201", "Single"},
		[]model.Value{"c", int64(21), "abc", "Single"},
		[]model.Value{"d", int64(21), "500", "Married"},
		[]model.Value{"e", int64(60), "700", "Single"},
	)

	clean, report, err := NewEngine(nil).Transform("raw_data", raw)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Groups)

	type stats struct {
		total int64
		avg   float64
	}
	byKey := make(map[model.GroupKey]stats)
	for _, rec := range clean.Records {
		key := model.NewGroupKey(rec.AgeGroup, rec.MaritalStatus)
		got := stats{rec.GroupTotalRecords, rec.GroupAvgIncome}
		if prev, ok := byKey[key]; ok {
			assert.Equal(t, prev, got)
		}
		byKey[key] = got
	}

	youngSingle := model.NewGroupKey(
		model.NullAgeGroup{AgeGroup: model.AgeGroupYoungAdult, Valid: true},
		sql.NullString{String: "Single", Valid: true})
	assert.Equal(t, stats{3, 301.0 / 3}, byKey[youngSingle])
}

func TestTransformBinaryColumns(t *testing.T) {
	columns := append(append([]string{}, baseColumns...), "History of Mental Illness", "chronic_medical_conditions")
	raw := rawTable(columns,
		[]model.Value{"a", int64(20), "1", "Single", "Yes", "No"},
		[]model.Value{"b", int64(20), "1", "Single", "No", "Maybe"},
		[]model.Value{"c", int64(20), "1", "Single", nil, "Yes"},
	)

	clean, report, err := NewEngine(nil).Transform("raw_data", raw)
	require.NoError(t, err)

	flags := func(i int) []model.Value {
		rec := clean.Records[i]
		return []model.Value{rec.Get(model.ColumnMentalIllness), rec.Get(model.ColumnChronicConditions)}
	}
	assert.Equal(t, []model.Value{int64(1), int64(0)}, flags(0))
	assert.Equal(t, []model.Value{int64(0), int64(0)}, flags(1))
	assert.Equal(t, []model.Value{int64(0), int64(1)}, flags(2))

	assert.Equal(t, 1, report.Defaulted[model.ColumnMentalIllness])
	assert.Equal(t, 1, report.Defaulted[model.ColumnChronicConditions])

	// Absent binary columns are not added
	assert.NotContains(t, clean.Columns, model.ColumnSubstanceAbuse)
	assert.NotContains(t, clean.Columns, model.ColumnFamilyDepression)
}

func TestTransformIdempotent(t *testing.T) {
	raw := rawTable(append(append([]string{}, baseColumns...), "family_history_of_depression"),
		[]model.Value{"a", int64(33), "42.9", "Divorced", "Yes"},
		[]model.Value{"b", nil, nil, nil, nil},
		[]model.Value{"c", 71.5, "1000", "Divorced", "No"},
	)

	engine := NewEngine(nil)
	first, firstReport, err := engine.Transform("raw_data", raw)
	require.NoError(t, err)
	second, secondReport, err := engine.Transform("raw_data", raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstReport, secondReport)
	assert.Equal(t, int64(42), first.Records[0].Income)
}

func TestTransformEmptyTable(t *testing.T) {
	clean, report, err := NewEngine(nil).Transform("raw_data", rawTable(baseColumns))
	require.NoError(t, err)
	assert.Equal(t, 0, clean.Len())
	assert.Equal(t, 0, report.Groups)
	assert.Len(t, clean.Columns, len(baseColumns)+len(model.DerivedColumns))
}

func TestTransformSchemaErrors(t *testing.T) {
	tests := []struct {
		name        string
		columns     []string
		wantColumns []string
	}{
		{
			name:        "missing required column",
			columns:     []string{"name", "age", "marital_status"},
			wantColumns: []string{"income"},
		},
		{
			name:        "duplicate after normalization",
			columns:     []string{"name", "age", "income", "marital_status", "Marital Status"},
			wantColumns: []string{"marital_status"},
		},
		{
			name:        "collides with derived column",
			columns:     []string{"name", "age", "income", "marital_status", "Age Group"},
			wantColumns: []string{"age_group"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewEngine(nil).Transform("raw_data", rawTable(tt.columns))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchema))

			var formatErr *FormatError
			require.True(t, errors.As(err, &formatErr))
			assert.Equal(t, tt.wantColumns, formatErr.Columns)
		})
	}
}

func TestTransformNilTable(t *testing.T) {
	_, _, err := NewEngine(nil).Transform("raw_data", nil)
	assert.Error(t, err)
}
