package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Open creates a Store for the named backend. SQLite takes a file path,
// Postgres a connection URL; the unused argument is ignored.
func Open(ctx context.Context, backend, sqlitePath, postgresURL string) (Store, error) {
	switch backend {
	case BackendSQLite:
		store, err := NewSQLiteStore(sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		slog.InfoContext(ctx, "Storage initialized", "backend", backend, "path", sqlitePath)
		return store, nil
	case BackendPostgres:
		store, err := NewPostgresStore(ctx, postgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		slog.InfoContext(ctx, "Storage initialized", "backend", backend)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}
