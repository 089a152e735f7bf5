// pkg/connector/factory.go
package connector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/config"
)

// Role is what a connection is used for
type Role int

const (
	// RoleSource only reads the raw table
	RoleSource Role = iota
	// RoleSink replaces the clean table
	RoleSink
)

func (r Role) String() string {
	if r == RoleSink {
		return "sink"
	}
	return "source"
}

// ConnectError reports a connector that could not be opened or validated
type ConnectError struct {
	Kind string
	Role Role
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("%s connector (%s): %v", e.Role, e.Kind, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// Create opens and validates a connector of the given store kind. Only a
// sink connector must be able to create tables.
func (f *ConnectorFactory) Create(ctx context.Context, kind string, role Role) (DatabaseConnector, error) {
	f.logger.Info("Creating connector", zap.String("kind", kind), zap.Stringer("role", role))

	var (
		conn DatabaseConnector
		err  error
	)
	switch kind {
	case config.StorePostgres:
		conn, err = NewPostgresConnector(ctx, f.cfg.Postgres, role == RoleSink)
	case config.StoreSnowflake:
		conn, err = NewSnowflakeConnector(ctx, f.cfg.Snowflake)
	case config.StoreSQLite:
		conn, err = NewSQLiteConnector(ctx, f.cfg.SQLite)
	default:
		return nil, &ConnectError{Kind: kind, Role: role, Err: fmt.Errorf("unknown store kind %q", kind)}
	}
	if err != nil {
		return nil, &ConnectError{Kind: kind, Role: role, Err: fmt.Errorf("failed to create connector: %w", err)}
	}

	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, &ConnectError{Kind: kind, Role: role, Err: fmt.Errorf("failed to validate connector: %w", err)}
	}

	return conn, nil
}

// CreateAllConnectors creates the source and sink connectors. When both use
// the same kind the one connection serves as both.
func (f *ConnectorFactory) CreateAllConnectors(ctx context.Context) (source, sink DatabaseConnector, err error) {
	if f.cfg.SinkKind == f.cfg.SourceKind {
		source, err = f.Create(ctx, f.cfg.SourceKind, RoleSink)
		if err != nil {
			// The shared connection is the source that is read first
			var connErr *ConnectError
			if errors.As(err, &connErr) {
				connErr.Role = RoleSource
			}
			return nil, nil, err
		}
		return source, source, nil
	}

	source, err = f.Create(ctx, f.cfg.SourceKind, RoleSource)
	if err != nil {
		return nil, nil, err
	}

	sink, err = f.Create(ctx, f.cfg.SinkKind, RoleSink)
	if err != nil {
		source.Close() // Clean up the source connection if the sink fails
		return nil, nil, err
	}

	return source, sink, nil
}
