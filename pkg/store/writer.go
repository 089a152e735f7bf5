package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/model"
)

// Limits on bind parameters per statement
const (
	maxBindParamsPostgres = 65535
	maxBindParamsSQLite   = 32766
)

// maxBindParams returns the per-statement parameter limit of a driver
func maxBindParams(driver string) int {
	if driver == DriverSQLite {
		return maxBindParamsSQLite
	}
	return maxBindParamsPostgres
}

// ReplaceTable drops and recreates a table and loads every row in one
// transaction: either the whole table lands or the previous contents stay.
// Failures wrap ErrSinkWrite.
func (s *TableStore) ReplaceTable(ctx context.Context, table string, data *model.Table) (written int64, err error) {
	if len(data.Columns) == 0 {
		return 0, fmt.Errorf("%w: table %s has no columns", ErrSinkWrite, table)
	}

	start := time.Now()
	metadata := s.typeConverter.BuildMetadata(table, data)

	rows, err := s.convertRows(metadata, data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSinkWrite, err)
	}

	s.logger.Info("Saving rows to DB", zap.String("table", table), zap.Int("rows", len(rows)))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to begin transaction: %w", ErrSinkWrite, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction",
					zap.String("table", table),
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
			err = fmt.Errorf("%w: failed to load data %s: %w", ErrSinkWrite, table, err)
		}
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", s.quoteTable(table))); err != nil {
		return 0, fmt.Errorf("failed to drop table: %w", err)
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)",
		s.quoteTable(table),
		strings.Join(s.typeConverter.GenerateColumnDefinitions(metadata), ",\n\t"))
	if _, err = tx.ExecContext(ctx, createSQL); err != nil {
		return 0, fmt.Errorf("failed to create table: %w", err)
	}

	columns := metadata.ColumnNames()
	if s.db.DriverName() == DriverPostgres {
		written, err = s.copyRows(ctx, tx, table, columns, rows)
	} else {
		written, err = s.insertRows(ctx, tx, table, columns, rows)
	}
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Saved successfully",
		zap.String("table", table),
		zap.Int64("rows", written),
		zap.Duration("duration", time.Since(start)))
	return written, nil
}

// convertRows matches every value to the SQL type of its column
func (s *TableStore) convertRows(metadata *model.TableMetadata, data *model.Table) ([][]interface{}, error) {
	rows := make([][]interface{}, len(data.Rows))
	for i, row := range data.Rows {
		converted := make([]interface{}, len(metadata.Columns))
		for j, col := range metadata.Columns {
			var v model.Value
			if j < len(row) {
				v = row[j]
			}
			cv, err := s.typeConverter.ConvertValueForSQL(v, col.SQLType)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", i+1, col.Name, err)
			}
			converted[j] = cv
		}
		rows[i] = converted
	}
	return rows, nil
}

// copyRows bulk loads rows with COPY FROM STDIN (lib/pq only)
func (s *TableStore) copyRows(
	ctx context.Context,
	tx *sqlx.Tx,
	table string,
	columns []string,
	rows [][]interface{},
) (int64, error) {
	var copySQL string
	if i := strings.LastIndex(table, "."); i >= 0 {
		copySQL = pq.CopyInSchema(table[:i], table[i+1:], columns...)
	} else {
		copySQL = pq.CopyIn(table, columns...)
	}

	stmt, err := tx.PrepareContext(ctx, copySQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare COPY statement: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("failed to copy row %d: %w", i+1, err)
		}
	}

	// Flush buffered rows
	if _, err := stmt.ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to flush COPY: %w", err)
	}

	return int64(len(rows)), nil
}

// insertRows loads rows with multi-row INSERT statements
func (s *TableStore) insertRows(
	ctx context.Context,
	tx *sqlx.Tx,
	table string,
	columns []string,
	rows [][]interface{},
) (int64, error) {
	batchSize := s.batchSize
	if limit := maxBindParams(s.db.DriverName()) / len(columns); batchSize > limit {
		batchSize = limit
	}
	if batchSize < 1 {
		batchSize = 1
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = s.quoteIdent(col)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", s.quoteTable(table), strings.Join(quoted, ", "))
	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var totalRowsInserted int64
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		currentBatch := rows[i:end]

		placeholders := make([]string, len(currentBatch))
		args := make([]interface{}, 0, len(currentBatch)*len(columns))
		for j, row := range currentBatch {
			placeholders[j] = rowPlaceholder
			args = append(args, row...)
		}

		query := tx.Rebind(prefix + strings.Join(placeholders, ", "))
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return totalRowsInserted, fmt.Errorf("batch insert failed at row %d: %w", i+1, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			s.logger.Warn("Couldn't get rows affected", zap.Error(err))
			rowsAffected = int64(len(currentBatch))
		}
		totalRowsInserted += rowsAffected
	}

	return totalRowsInserted, nil
}
