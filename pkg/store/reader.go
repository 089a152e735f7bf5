package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/converter"
	"github.com/David-Botos/data-transform/pkg/model"
)

// ReadTable returns every column and row of a table, in stored order.
// A missing table or unreachable database wraps ErrSourceUnavailable.
func (s *TableStore) ReadTable(ctx context.Context, table string) (*model.Table, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: ping: %w", ErrSourceUnavailable, err)
	}

	exists, err := s.TableExists(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: table %s does not exist", ErrSourceUnavailable, table)
	}

	s.logger.Info("Loading raw data", zap.String("table", table))

	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s", s.quoteTable(table)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract data %s: %w", ErrSourceUnavailable, table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read columns of %s: %w", ErrSourceUnavailable, table, err)
	}

	result := &model.Table{Columns: columns, Rows: make([][]model.Value, 0)}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan row %d of %s: %w",
				ErrSourceUnavailable, len(result.Rows)+1, table, err)
		}
		for i := range values {
			values[i] = converter.NormalizeValue(values[i])
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows of %s: %w", ErrSourceUnavailable, table, err)
	}

	s.logger.Info("Loaded raw data",
		zap.String("table", table),
		zap.Int("rows", len(result.Rows)),
		zap.Int("columns", len(columns)))
	return result, nil
}
