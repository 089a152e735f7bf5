// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store kinds
const (
	StorePostgres  = "postgres"
	StoreSnowflake = "snowflake"
	StoreSQLite    = "sqlite"
)

// DefaultEnvFile is loaded when present and no other file is named
const DefaultEnvFile = ".env"

// Config represents the application configuration
type Config struct {
	// Database connections
	Postgres  *PostgresConfig  `ignored:"true"`
	Snowflake *SnowflakeConfig `ignored:"true"`
	SQLite    *SQLiteConfig    `ignored:"true"`

	// Where the raw table is read from and the clean table written to
	SourceKind string `envconfig:"SOURCE_KIND" default:"postgres" validate:"oneof=postgres snowflake sqlite"`
	SinkKind   string `envconfig:"SINK_KIND" default:"postgres" validate:"oneof=postgres sqlite"`

	// Pipeline settings
	RawTable        string `envconfig:"RAW_TABLE" default:"raw_data" validate:"required"`
	CleanTable      string `envconfig:"CLEAN_TABLE" default:"clean_data" validate:"required"`
	InsertBatchSize int    `envconfig:"INSERT_BATCH_SIZE" default:"1000" validate:"gt=0"`
	AuditCoercions  bool   `envconfig:"AUDIT_COERCIONS" default:"false"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json console"`
}

// LoadConfig loads configuration from the environment, after loading envFile.
// An empty envFile loads DefaultEnvFile if it exists.
func LoadConfig(envFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read pipeline configuration: %w", err)
	}

	// Load database configurations
	if cfg.uses(StorePostgres) {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	}

	if cfg.uses(StoreSnowflake) {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowConfig
	}

	if cfg.uses(StoreSQLite) {
		liteConfig, err := LoadSQLiteConfig()
		if err != nil {
			return nil, errors.New("failed to load SQLite configuration: " + err.Error())
		}
		cfg.SQLite = liteConfig
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.RawTable == c.CleanTable && c.SourceKind == c.SinkKind {
		return errors.New("raw and clean tables must differ")
	}

	if c.uses(StorePostgres) && c.Postgres == nil {
		return errors.New("postgreSQL configuration is required")
	}

	if c.uses(StoreSnowflake) && c.Snowflake == nil {
		return errors.New("snowflake configuration is required")
	}

	if c.uses(StoreSQLite) && c.SQLite == nil {
		return errors.New("sqlite configuration is required")
	}

	return nil
}

// uses reports whether the source or the sink is of the given kind
func (c *Config) uses(kind string) bool {
	return c.SourceKind == kind || c.SinkKind == kind
}

func loadEnvFile(envFile string) error {
	if envFile == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		envFile = DefaultEnvFile
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return nil
}
