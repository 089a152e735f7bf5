// pkg/connector/snowflake.go
package connector

import (
	"context"
	"fmt"
	"strings"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/config"
)

// DriverSnowflake is the database/sql driver name registered by gosnowflake
const DriverSnowflake = "snowflake"

// SnowflakeConnector reads raw tables kept in Snowflake
type SnowflakeConnector struct {
	baseConnector
	cfg *config.SnowflakeConfig
}

// NewSnowflakeConnector opens a Snowflake pool from a DSN built by the driver
func NewSnowflakeConnector(ctx context.Context, cfg *config.SnowflakeConfig) (*SnowflakeConnector, error) {
	logger := zap.L().Named("snowflake-connector")

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("schema", cfg.Schema),
		zap.String("warehouse", cfg.Warehouse))

	dsn, err := sf.DSN(cfg.SnowflakeDriverConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	db, err := openDB(ctx, DriverSnowflake, dsn, poolSettings{
		maxOpen:     cfg.MaxOpenConns,
		maxIdle:     cfg.MaxIdleConns,
		maxLifetime: cfg.ConnMaxLifetime,
		maxIdleTime: cfg.ConnMaxIdleTime,
	}, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	LogConnectionStats(logger, cfg.Database, db)
	return &SnowflakeConnector{
		baseConnector: baseConnector{db: db, logger: logger, name: cfg.Database},
		cfg:           cfg,
	}, nil
}

// Validate checks that the session landed in the configured database and schema
func (c *SnowflakeConnector) Validate(ctx context.Context) error {
	var role, database, schema string
	err := c.db.QueryRowxContext(ctx, "SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_SCHEMA()").Scan(
		&role, &database, &schema)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	// Unquoted identifiers are stored upper case
	if !strings.EqualFold(database, c.cfg.Database) || !strings.EqualFold(schema, c.cfg.Schema) {
		return fmt.Errorf("connected to %s.%s, expected %s.%s",
			database, schema, c.cfg.Database, c.cfg.Schema)
	}

	c.logger.Info("Snowflake connection validated",
		zap.String("role", role),
		zap.String("database", database),
		zap.String("schema", schema))
	return nil
}
