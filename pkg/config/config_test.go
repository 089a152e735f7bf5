package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv removes variables for the duration of the test
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

var pipelineKeys = []string{
	"SOURCE_KIND", "SINK_KIND", "RAW_TABLE", "CLEAN_TABLE", "INSERT_BATCH_SIZE",
	"AUDIT_COERCIONS", "LOG_LEVEL", "LOG_FORMAT", "SQLITE_PATH",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"POSTGRES_SSLMODE", "POSTGRES_DRIVER", "POSTGRES_STATEMENT_TIMEOUT",
	"SNOWFLAKE_USER", "SNOWFLAKE_PASSWORD", "SNOWFLAKE_ACCOUNT", "SNOWFLAKE_WAREHOUSE",
	"SNOWFLAKE_DATABASE", "SNOWFLAKE_SCHEMA", "SNOWFLAKE_ROLE", "SNOWFLAKE_AUTHENTICATOR",
	"SNOWFLAKE_QUERY_TIMEOUT",
}

func TestLoadConfigSQLiteDefaults(t *testing.T) {
	unsetenv(t, pipelineKeys...)
	t.Setenv("SOURCE_KIND", StoreSQLite)
	t.Setenv("SINK_KIND", StoreSQLite)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "raw_data", cfg.RawTable)
	assert.Equal(t, "clean_data", cfg.CleanTable)
	assert.Equal(t, 1000, cfg.InsertBatchSize)
	assert.False(t, cfg.AuditCoercions)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	require.NotNil(t, cfg.SQLite)
	assert.Equal(t, "pipeline.db", cfg.SQLite.Path)
	assert.Equal(t, "file:pipeline.db?_foreign_keys=on", cfg.SQLite.DataSourceName())
	assert.Nil(t, cfg.Postgres)
	assert.Nil(t, cfg.Snowflake)
}

func TestLoadConfigPostgres(t *testing.T) {
	unsetenv(t, pipelineKeys...)
	t.Setenv("POSTGRES_USER", "etl")
	t.Setenv("POSTGRES_PASSWORD", "s3cret pass")
	t.Setenv("POSTGRES_DB", "warehouse")
	t.Setenv("POSTGRES_DRIVER", "postgres")
	t.Setenv("POSTGRES_STATEMENT_TIMEOUT", "30s")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NotNil(t, cfg.Postgres)

	assert.Equal(t, "postgres", cfg.Postgres.Driver)
	assert.Equal(t, 30*time.Second, cfg.Postgres.StatementTimeout)
	assert.Equal(t,
		"host=localhost port=5432 user=etl password='s3cret pass' dbname=warehouse sslmode=disable statement_timeout=30000",
		cfg.Postgres.ConnectionString())
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing postgres user",
			env:  map[string]string{"POSTGRES_PASSWORD": "p", "POSTGRES_DB": "d"},
		},
		{
			name: "unknown source kind",
			env:  map[string]string{"SOURCE_KIND": "csv", "SINK_KIND": StoreSQLite},
		},
		{
			name: "snowflake is not a sink",
			env:  map[string]string{"SOURCE_KIND": StoreSQLite, "SINK_KIND": StoreSnowflake},
		},
		{
			name: "same table in the same store",
			env: map[string]string{
				"SOURCE_KIND": StoreSQLite, "SINK_KIND": StoreSQLite,
				"RAW_TABLE": "data", "CLEAN_TABLE": "data",
			},
		},
		{
			name: "bad batch size",
			env:  map[string]string{"SOURCE_KIND": StoreSQLite, "SINK_KIND": StoreSQLite, "INSERT_BATCH_SIZE": "0"},
		},
		{
			name: "bad log level",
			env:  map[string]string{"SOURCE_KIND": StoreSQLite, "SINK_KIND": StoreSQLite, "LOG_LEVEL": "loud"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetenv(t, pipelineKeys...)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	unsetenv(t, pipelineKeys...)

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"SOURCE_KIND=sqlite\nSINK_KIND=sqlite\nRAW_TABLE=survey_raw\nAUDIT_COERCIONS=true\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "survey_raw", cfg.RawTable)
	assert.True(t, cfg.AuditCoercions)
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadSnowflakeConfig(t *testing.T) {
	unsetenv(t, pipelineKeys...)
	t.Setenv("SNOWFLAKE_USER", "etl")
	t.Setenv("SNOWFLAKE_PASSWORD", "p")
	t.Setenv("SNOWFLAKE_ACCOUNT", "acme-xy123")
	t.Setenv("SNOWFLAKE_WAREHOUSE", "COMPUTE_WH")
	t.Setenv("SNOWFLAKE_DATABASE", "RAW")
	t.Setenv("SNOWFLAKE_AUTHENTICATOR", "JWT")
	t.Setenv("SNOWFLAKE_QUERY_TIMEOUT", "90s")

	cfg, err := LoadSnowflakeConfig()
	require.NoError(t, err)
	assert.Equal(t, gosnowflake.AuthTypeJwt, cfg.Authenticator)
	assert.Equal(t, "PUBLIC", cfg.Schema)

	driverCfg := cfg.SnowflakeDriverConfig()
	assert.Equal(t, "acme-xy123", driverCfg.Account)
	assert.Equal(t, "PUBLIC", driverCfg.Schema)
	require.Contains(t, driverCfg.Params, "STATEMENT_TIMEOUT_IN_SECONDS")
	assert.Equal(t, "90", *driverCfg.Params["STATEMENT_TIMEOUT_IN_SECONDS"])
}

func TestLoadSnowflakeConfigUnknownAuthenticator(t *testing.T) {
	unsetenv(t, pipelineKeys...)
	t.Setenv("SNOWFLAKE_USER", "etl")
	t.Setenv("SNOWFLAKE_PASSWORD", "p")
	t.Setenv("SNOWFLAKE_ACCOUNT", "acme")
	t.Setenv("SNOWFLAKE_WAREHOUSE", "WH")
	t.Setenv("SNOWFLAKE_DATABASE", "RAW")
	t.Setenv("SNOWFLAKE_AUTHENTICATOR", "kerberos")

	_, err := LoadSnowflakeConfig()
	assert.Error(t, err)
}

func TestQuoteValue(t *testing.T) {
	assert.Equal(t, "plain", quoteValue("plain"))
	assert.Equal(t, "''", quoteValue(""))
	assert.Equal(t, `'it\'s'`, quoteValue("it's"))
	assert.Equal(t, `'a\\b'`, quoteValue(`a\b`))
}

func TestConnectionStringQuotesEveryValue(t *testing.T) {
	cfg := &PostgresConfig{
		Host:     "db host",
		Port:     5432,
		User:     "o'brien",
		Password: "pw",
		Database: "my warehouse",
		SSLMode:  "require",
	}

	assert.Equal(t,
		`host='db host' port=5432 user='o\'brien' password=pw dbname='my warehouse' sslmode=require`,
		cfg.ConnectionString())
}
