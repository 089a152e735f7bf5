// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/model"
)

// DefaultTrackingTable stores the coercion audit trail
const DefaultTrackingTable = "cleaned_on_transform"

// DataCleaner records the cells that were coerced to defaults during a transform
type DataCleaner struct {
	db            *sqlx.DB
	logger        *zap.Logger
	trackingTable string
}

// NewDataCleaner creates a new DataCleaner instance and ensures tracking table exists
func NewDataCleaner(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (*DataCleaner, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	cleaner := &DataCleaner{
		db:            db,
		logger:        logger,
		trackingTable: DefaultTrackingTable,
	}

	// Ensure the cleaning table exists
	if err := cleaner.setupCleaningTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup cleaning table: %w", err)
	}

	return cleaner, nil
}

// setupCleaningTable ensures the tracking table exists
func (c *DataCleaner) setupCleaningTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			row_position BIGINT NOT NULL,
			original_value TEXT,
			new_value TEXT NOT NULL,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`, c.trackingTable)
	_, err := c.db.ExecContext(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	c.logger.Info("Ensured tracking table exists", zap.String("table", c.trackingTable))
	return nil
}

// RecordCleaningOperations batch inserts cleaning operations into tracking table
func (c *DataCleaner) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Begin transaction
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	// Prepare statement
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(fmt.Sprintf(`
		INSERT INTO %s
		(table_name, column_name, row_position, original_value, new_value,
		 cleaning_operation, cleaning_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.trackingTable)))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Execute batch insert
	for _, op := range operations {
		_, err = stmt.ExecContext(ctx,
			op.TableName,
			op.ColumnName,
			op.RowNumber,
			toNullableString(op.OriginalValue),
			op.NewValue,
			op.CleaningOperation,
			op.CleaningReason,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	// Commit transaction
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.logger.Info("Recorded cleaning operations",
		zap.Int("count", len(operations)),
		zap.Any("by_column", SummarizeOperations(operations)))
	return nil
}

// SummarizeOperations counts cleaning operations per column
func SummarizeOperations(operations []model.CleaningOperation) map[string]int {
	summary := make(map[string]int)
	for _, op := range operations {
		summary[op.ColumnName]++
	}
	return summary
}
