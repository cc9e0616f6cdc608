// Package fixture provides test-scoped database resources: each helper
// acquires a connection, registers cleanup via t.Cleanup, and hands the
// live handle to the test. Resources are closed exactly once, on every
// exit path, by the testing package's cleanup machinery.
package fixture

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"webharness/config"
	"webharness/internal/cache"
	"webharness/internal/storage"
)

// setupTimeout bounds fixture establishment. A database that cannot be
// reached in this window aborts the test immediately rather than letting
// the suite hang.
const setupTimeout = 30 * time.Second

// SQLite returns an open connection to a fresh temporary SQLite database
// with test_table pre-created. The database file lives in t.TempDir and
// is removed with it after the test.
func SQLite(t *testing.T) *sql.DB {
	t.Helper()

	store, err := storage.NewSQLite(storage.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "fixture.db"),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite fixture database: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("failed to close sqlite fixture: %v", err)
		}
	})

	db := store.SQLiteDB()
	if err := storage.EnsureTestTable(db); err != nil {
		t.Fatalf("failed to prepare sqlite fixture schema: %v", err)
	}
	return db
}

// Postgres returns a connection pool for the configured test database,
// creating the database first if it does not exist. The pool is closed
// after the test.
func Postgres(t *testing.T, cfg config.DBConfig) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	if err := storage.EnsureDatabase(ctx, cfg.AdminURL(), cfg.Name); err != nil {
		t.Fatalf("failed to set up test database: %v", err)
	}

	store, err := storage.NewPostgreSQL(ctx, storage.PostgreSQLConfig{URL: cfg.URL()})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("failed to close postgres fixture: %v", err)
		}
	})

	return store.PostgresPool()
}

// Redis returns a connected cache client with the database flushed, so
// the test starts from an empty cache. The connection is closed after
// the test.
func Redis(t *testing.T, url string) *cache.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	client, err := cache.Connect(ctx, url)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("failed to close redis fixture: %v", err)
		}
	})

	if err := client.Flush(ctx); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
	return client
}
