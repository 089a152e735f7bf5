package connector

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/config"
)

// driverPostgresCatalog is SQLite answering the catalog queries
// PostgresConnector.Validate issues, for a user without CREATE
const driverPostgresCatalog = "sqlite3_postgres_catalog"

func init() {
	sql.Register(driverPostgresCatalog, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("version", func() string { return "PostgreSQL 16.2" }, true); err != nil {
				return err
			}
			if err := conn.RegisterFunc("current_schema", func() string { return "public" }, true); err != nil {
				return err
			}
			return conn.RegisterFunc("has_schema_privilege", func(schema, privilege string) int64 { return 0 }, true)
		},
	})
}

func sqliteConfig(t *testing.T) *config.SQLiteConfig {
	return &config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "pipeline.db")}
}

func TestSQLiteConnector(t *testing.T) {
	ctx := context.Background()

	conn, err := NewSQLiteConnector(ctx, sqliteConfig(t))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Validate(ctx))

	_, err = conn.DB().ExecContext(ctx, "CREATE TABLE raw_data (name TEXT)")
	require.NoError(t, err)

	var count int
	require.NoError(t, conn.DB().Get(&count, "SELECT COUNT(*) FROM raw_data"))
	assert.Equal(t, 0, count)

	stats := GetConnectionStats(conn.DB())
	assert.Equal(t, 1, stats.MaxOpenConns)
}

func TestConnectorFactory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		SourceKind: config.StoreSQLite,
		SinkKind:   config.StoreSQLite,
		SQLite:     sqliteConfig(t),
	}
	factory := NewConnectorFactory(cfg, zap.NewNop())

	source, sink, err := factory.CreateAllConnectors(ctx)
	require.NoError(t, err)
	defer source.Close()

	assert.Same(t, source, sink)
	assert.Equal(t, DriverSQLite, source.DB().DriverName())
}

func TestConnectorFactoryUnknownKind(t *testing.T) {
	factory := NewConnectorFactory(&config.Config{}, zap.NewNop())

	_, err := factory.Create(context.Background(), "csv", RoleSource)
	assert.Error(t, err)
}

func TestPingWithTimeoutClosed(t *testing.T) {
	ctx := context.Background()
	conn, err := NewSQLiteConnector(ctx, sqliteConfig(t))
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	assert.Error(t, PingWithTimeout(ctx, conn.DB(), time.Second))
}

func TestPostgresValidateCreatePrivilege(t *testing.T) {
	tests := []struct {
		name          string
		requireCreate bool
		wantErr       bool
	}{
		{name: "source without CREATE", requireCreate: false, wantErr: false},
		{name: "sink without CREATE", requireCreate: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := sqlx.Open(driverPostgresCatalog, ":memory:")
			require.NoError(t, err)
			defer db.Close()

			conn := &PostgresConnector{
				baseConnector: baseConnector{db: db, logger: zap.NewNop(), name: "warehouse"},
				cfg:           &config.PostgresConfig{User: "reader", Database: "warehouse"},
				requireCreate: tt.requireCreate,
			}

			err = conn.Validate(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "cannot create tables in schema public")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "source", RoleSource.String())
	assert.Equal(t, "sink", RoleSink.String())
}
