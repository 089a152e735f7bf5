// pkg/connector/postgres.go
package connector

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/config"
)

// PostgresConnector connects to the PostgreSQL database holding the raw
// and clean tables
type PostgresConnector struct {
	baseConnector
	cfg           *config.PostgresConfig
	requireCreate bool
}

// NewPostgresConnector opens a pool with the configured driver: pgx, or
// lib/pq when COPY bulk loading is wanted. requireCreate makes Validate
// check that the current schema accepts CREATE TABLE.
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig, requireCreate bool) (*PostgresConnector, error) {
	logger := zap.L().Named("postgres-connector")
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User),
		zap.String("driver", cfg.Driver))

	db, err := openDB(ctx, cfg.Driver, cfg.ConnectionString(), poolSettings{
		maxOpen:     cfg.MaxOpenConns,
		maxIdle:     cfg.MaxIdleConns,
		maxLifetime: cfg.ConnMaxLifetime,
		maxIdleTime: cfg.ConnMaxIdleTime,
	}, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	LogConnectionStats(logger, cfg.Database, db)
	return &PostgresConnector{
		baseConnector: baseConnector{db: db, logger: logger, name: cfg.Database},
		cfg:           cfg,
		requireCreate: requireCreate,
	}, nil
}

// Validate checks the server version and, for a sink, that the current
// schema accepts CREATE TABLE
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.GetContext(ctx, &version, "SELECT version()"); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}

	var schema string
	var canCreate bool
	err := c.db.QueryRowxContext(ctx,
		"SELECT current_schema(), has_schema_privilege(current_schema(), 'CREATE')").Scan(&schema, &canCreate)
	if err != nil {
		return fmt.Errorf("failed to check schema privileges: %w", err)
	}
	if c.requireCreate && !canCreate {
		return fmt.Errorf("user %s cannot create tables in schema %s", c.cfg.User, schema)
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("version", version),
		zap.String("schema", schema),
		zap.Bool("can_create", canCreate),
		zap.String("database", c.cfg.Database))
	return nil
}
