package connector

import (
	"context"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/config"
)

// DriverSQLite is the database/sql driver name registered by go-sqlite3
const DriverSQLite = "sqlite3"

// SQLiteConnector implements the DatabaseConnector interface for a local SQLite file
type SQLiteConnector struct {
	baseConnector
	cfg *config.SQLiteConfig
}

// NewSQLiteConnector opens the SQLite database, creating the file if needed
func NewSQLiteConnector(ctx context.Context, cfg *config.SQLiteConfig) (*SQLiteConnector, error) {
	logger := zap.L().Named("sqlite-connector")
	logger.Info("Opening SQLite database", zap.String("path", cfg.Path))

	// SQLite allows a single writer
	db, err := openDB(ctx, DriverSQLite, cfg.DataSourceName(), poolSettings{maxOpen: 1, maxIdle: 1}, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	return &SQLiteConnector{
		baseConnector: baseConnector{db: db, logger: logger, name: cfg.Path},
		cfg:           cfg,
	}, nil
}

// Validate checks that the database answers queries
func (c *SQLiteConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowxContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query SQLite version: %w", err)
	}
	c.logger.Info("Connected to SQLite", zap.String("version", version), zap.String("path", c.cfg.Path))
	return nil
}
