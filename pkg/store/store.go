// Package store reads raw tables from and writes clean tables to a
// relational database through database/sql drivers.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/converter"
)

var (
	// ErrSourceUnavailable marks an unreachable raw store or a missing raw table
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSinkWrite marks a failed write to the clean store
	ErrSinkWrite = errors.New("sink write failed")
)

// Driver names understood by the store
const (
	DriverPgx       = "pgx"
	DriverPostgres  = "postgres"
	DriverSnowflake = "snowflake"
	DriverSQLite    = "sqlite3"
)

const defaultBatchSize = 1000

// TableStore reads and replaces whole tables
type TableStore struct {
	db            *sqlx.DB
	typeConverter *converter.TypeConverter
	logger        *zap.Logger
	batchSize     int
}

// NewTableStore creates a store over an open connection pool
func NewTableStore(db *sqlx.DB, typeConverter *converter.TypeConverter, logger *zap.Logger) *TableStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if typeConverter == nil {
		typeConverter = converter.NewTypeConverter(logger)
	}
	return &TableStore{
		db:            db,
		typeConverter: typeConverter,
		logger:        logger.Named("store").With(zap.String("driver", db.DriverName())),
		batchSize:     defaultBatchSize,
	}
}

// WithBatchSize sets the number of rows per INSERT statement
func (s *TableStore) WithBatchSize(batchSize int) *TableStore {
	if batchSize > 0 {
		s.batchSize = batchSize
	}
	return s
}

// DB returns the underlying connection pool
func (s *TableStore) DB() *sqlx.DB {
	return s.db
}

// TableExists reports whether the named table exists
func (s *TableStore) TableExists(ctx context.Context, table string) (bool, error) {
	var query string
	switch s.db.DriverName() {
	case DriverSQLite:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	case DriverSnowflake:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE UPPER(table_name) = UPPER(?)"
	default:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ? AND table_schema = ANY (current_schemas(false))"
	}

	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(query), unqualified(table)); err != nil {
		return false, fmt.Errorf("failed to check if table %s exists: %w", table, err)
	}
	return count > 0, nil
}

// CountRows returns the number of rows in a table
func (s *TableStore) CountRows(ctx context.Context, table string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.quoteTable(table))
	if err := s.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// ColumnNames returns the columns of a table in stored order
func (s *TableStore) ColumnNames(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", s.quoteTable(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	return columns, nil
}

// quoteTable quotes a possibly schema-qualified table name.
// Snowflake folds unquoted names to upper case, so its names stay unquoted.
func (s *TableStore) quoteTable(table string) string {
	if s.db.DriverName() == DriverSnowflake {
		return table
	}
	parts := strings.Split(table, ".")
	for i, part := range parts {
		parts[i] = converter.QuoteIdentifier(part)
	}
	return strings.Join(parts, ".")
}

func unqualified(table string) string {
	if i := strings.LastIndex(table, "."); i >= 0 {
		return table[i+1:]
	}
	return table
}

// quoteIdent quotes a single column identifier
func (s *TableStore) quoteIdent(name string) string {
	if s.db.DriverName() == DriverSnowflake {
		return name
	}
	return converter.QuoteIdentifier(name)
}
