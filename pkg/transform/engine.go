// Package transform turns a raw table into the clean, enriched dataset.
//
// The engine is a pure function over in-memory data: reading the raw table
// and writing the clean one happen at the boundary, in package store.
package transform

import (
	"database/sql"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/cleaner"
	"github.com/David-Botos/data-transform/pkg/model"
)

// Report summarizes one transform run
type Report struct {
	SourceTable string
	Rows        int
	Groups      int
	// Defaulted counts coerced-to-default cells per column
	Defaulted  map[string]int
	Operations []model.CleaningOperation
}

// DefaultedTotal returns the number of cells coerced to a default
func (r *Report) DefaultedTotal() int {
	total := 0
	for _, n := range r.Defaulted {
		total += n
	}
	return total
}

// Engine applies the normalization, derivation and aggregation rules
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an Engine; a nil logger disables logging
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger.Named("transform")}
}

// Transform derives the clean dataset from a raw table. Every raw row
// produces exactly one clean row, in the same order. It fails only on a
// malformed schema; malformed cells are coerced.
func (e *Engine) Transform(source string, raw *model.Table) (*model.CleanDataset, *Report, error) {
	if raw == nil {
		return nil, nil, fmt.Errorf("raw table %s is nil", source)
	}

	dataset, err := Bind(raw)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{
		SourceTable: source,
		Rows:        len(dataset.Records),
		Defaulted:   make(map[string]int),
	}

	var flagColumns []string
	for _, col := range model.BinaryColumns {
		if dataset.HasColumn(col) {
			flagColumns = append(flagColumns, col)
		}
	}

	records := make([]model.CleanRecord, len(dataset.Records))
	for i := range dataset.Records {
		records[i] = e.cleanRecord(source, i+1, &dataset.Records[i], flagColumns, report)
	}

	e.logger.Info("Calculating stats", zap.String("table", source), zap.Int("rows", len(records)))
	groups := Aggregate(records)
	report.Groups = len(groups)
	if e.logger.Core().Enabled(zap.DebugLevel) {
		for _, g := range SortedGroups(groups) {
			e.logger.Debug("Group stats",
				zap.Stringer("age_group", g.Key.AgeGroup),
				zap.String("marital_status", groupLabel(g.Key.MaritalStatus)),
				zap.Int64("total_records", g.TotalRecords),
				zap.Float64("avg_income", g.AvgIncome()))
		}
	}

	e.logger.Info("Merging stats", zap.Int("groups", len(groups)))
	Join(records, groups)

	columns := make([]string, 0, len(dataset.Columns)+len(model.DerivedColumns))
	columns = append(columns, dataset.Columns...)
	columns = append(columns, model.DerivedColumns...)

	if report.DefaultedTotal() > 0 {
		e.logger.Debug("Coerced malformed cells to defaults",
			zap.String("table", source),
			zap.Any("defaulted", report.Defaulted))
	}

	return &model.CleanDataset{Columns: columns, Records: records}, report, nil
}

// cleanRecord coerces one record; the group statistics are joined later
func (e *Engine) cleanRecord(
	source string,
	rowNumber int,
	raw *model.RawRecord,
	flagColumns []string,
	report *Report,
) model.CleanRecord {
	rec := model.CleanRecord{
		Name:          cleaner.ToNullString(raw.Name),
		Age:           raw.Age,
		MaritalStatus: cleaner.ToNullString(raw.MaritalStatus),
		Flags:         make(map[string]int64, len(flagColumns)),
		Fields:        raw.Fields,
	}

	cctx := model.CleaningContext{TableName: source, RowNumber: rowNumber}

	income, defaulted := cleaner.CoerceIncome(raw.Income)
	rec.Income = income
	if defaulted {
		cctx.ColumnName = model.ColumnIncome
		report.record(cctx.Operation(raw.Income, "0", cleaner.OperationIncomeCoercion, reasonFor(raw.Income, "unparseable_number")))
	}

	group, ok := cleaner.AgeGroupFor(raw.Age)
	rec.AgeGroup = group
	if !ok {
		reason := "age_out_of_range"
		if _, numeric := cleaner.ParseAge(raw.Age); !numeric {
			reason = reasonFor(raw.Age, "age_not_numeric")
		}
		cctx.ColumnName = model.ColumnAgeGroup
		report.record(cctx.Operation(raw.Age, "", cleaner.OperationAgeGrouping, reason))
	}

	for _, col := range flagColumns {
		v := raw.Flags[col]
		flag, defaulted := cleaner.CoerceBinary(v)
		rec.Flags[col] = flag
		if defaulted {
			cctx.ColumnName = col
			report.record(cctx.Operation(v, strconv.FormatInt(flag, 10), cleaner.OperationBinaryCoercion, reasonFor(v, "unrecognized_category")))
		}
	}

	return rec
}

func (r *Report) record(op model.CleaningOperation) {
	r.Defaulted[op.ColumnName]++
	r.Operations = append(r.Operations, op)
}

func groupLabel(s sql.NullString) string {
	if !s.Valid {
		return "<missing>"
	}
	return s.String
}

func reasonFor(v model.Value, otherwise string) string {
	if v == nil {
		return "missing_value"
	}
	return otherwise
}
