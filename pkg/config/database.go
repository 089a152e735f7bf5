// pkg/config/database.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/snowflakedb/gosnowflake"
)

// SnowflakeConfig holds Snowflake connection parameters
type SnowflakeConfig struct {
	User          string `envconfig:"SNOWFLAKE_USER" required:"true"`
	Password      string `envconfig:"SNOWFLAKE_PASSWORD" required:"true"`
	Account       string `envconfig:"SNOWFLAKE_ACCOUNT" required:"true"`
	Warehouse     string `envconfig:"SNOWFLAKE_WAREHOUSE" required:"true"`
	Database      string `envconfig:"SNOWFLAKE_DATABASE" required:"true"`
	Schema        string `envconfig:"SNOWFLAKE_SCHEMA" default:"PUBLIC"`
	Role          string `envconfig:"SNOWFLAKE_ROLE"`
	AuthString    string `envconfig:"SNOWFLAKE_AUTHENTICATOR" default:"snowflake"`

	// Parsed from AuthString
	Authenticator gosnowflake.AuthType `ignored:"true"`

	// Connection pool settings
	MaxOpenConns    int           `envconfig:"SNOWFLAKE_MAX_OPEN_CONNS" default:"10" validate:"gte=0"`
	MaxIdleConns    int           `envconfig:"SNOWFLAKE_MAX_IDLE_CONNS" default:"5" validate:"gte=0"`
	ConnMaxLifetime time.Duration `envconfig:"SNOWFLAKE_CONN_MAX_LIFETIME" default:"10m"`
	ConnMaxIdleTime time.Duration `envconfig:"SNOWFLAKE_CONN_MAX_IDLE_TIME" default:"5m"`

	// Query timeout
	QueryTimeout time.Duration `envconfig:"SNOWFLAKE_QUERY_TIMEOUT" default:"5m"`
}

// PostgresConfig holds PostgreSQL connection parameters
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost" validate:"required"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432" validate:"gt=0,lt=65536"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`

	// Driver selects pgx (default) or lib/pq, which enables COPY bulk loading
	Driver string `envconfig:"POSTGRES_DRIVER" default:"pgx" validate:"oneof=pgx postgres"`

	// Connection pool settings
	MaxOpenConns    int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"25" validate:"gte=0"`
	MaxIdleConns    int           `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"10" validate:"gte=0"`
	ConnMaxLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `envconfig:"POSTGRES_CONN_MAX_IDLE_TIME" default:"10m"`

	// Statement timeout
	StatementTimeout time.Duration `envconfig:"POSTGRES_STATEMENT_TIMEOUT" default:"5m"`
}

// SQLiteConfig holds SQLite parameters for local runs
type SQLiteConfig struct {
	Path string `envconfig:"SQLITE_PATH" default:"pipeline.db" validate:"required"`
}

// LoadSnowflakeConfig loads Snowflake configuration from environment variables
func LoadSnowflakeConfig() (*SnowflakeConfig, error) {
	cfg := &SnowflakeConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	// Convert authenticator string to proper type
	switch strings.ToLower(cfg.AuthString) {
	case "snowflake":
		cfg.Authenticator = gosnowflake.AuthTypeSnowflake
	case "oauth":
		cfg.Authenticator = gosnowflake.AuthTypeOAuth
	case "externalbrowser":
		cfg.Authenticator = gosnowflake.AuthTypeExternalBrowser
	case "username_password_mfa":
		cfg.Authenticator = gosnowflake.AuthTypeUsernamePasswordMFA
	case "jwt":
		cfg.Authenticator = gosnowflake.AuthTypeJwt
	case "token":
		cfg.Authenticator = gosnowflake.AuthTypeTokenAccessor
	case "okta":
		cfg.Authenticator = gosnowflake.AuthTypeOkta
	default:
		return nil, fmt.Errorf("unknown SNOWFLAKE_AUTHENTICATOR %q", cfg.AuthString)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPostgresConfig loads PostgreSQL configuration from environment variables
func LoadPostgresConfig() (*PostgresConfig, error) {
	cfg := &PostgresConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadSQLiteConfig loads SQLite configuration from environment variables
func LoadSQLiteConfig() (*SQLiteConfig, error) {
	cfg := &SQLiteConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SnowflakeDriverConfig returns the driver configuration used to build a DSN
func (c *SnowflakeConfig) SnowflakeDriverConfig() *gosnowflake.Config {
	params := make(map[string]*string)
	if c.QueryTimeout > 0 {
		timeout := strconv.Itoa(int(c.QueryTimeout.Seconds()))
		params["STATEMENT_TIMEOUT_IN_SECONDS"] = &timeout
	}

	return &gosnowflake.Config{
		Account:       c.Account,
		User:          c.User,
		Password:      c.Password,
		Database:      c.Database,
		Schema:        c.Schema,
		Warehouse:     c.Warehouse,
		Role:          c.Role,
		Authenticator: c.Authenticator,
		Params:        params,
	}
}

// ConnectionString returns a formatted PostgreSQL connection string.
// The statement timeout is sent as a runtime parameter so that every
// pooled connection carries it.
func (c *PostgresConfig) ConnectionString() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quoteValue(c.Host),
		c.Port,
		quoteValue(c.User),
		quoteValue(c.Password),
		quoteValue(c.Database),
		quoteValue(c.SSLMode),
	)
	if c.StatementTimeout > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", c.StatementTimeout.Milliseconds())
	}
	return dsn
}

// DataSourceName returns the SQLite DSN with foreign keys enabled
func (c *SQLiteConfig) DataSourceName() string {
	return "file:" + c.Path + "?_foreign_keys=on"
}

// quoteValue quotes a keyword/value connection parameter when needed
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
