package fixture

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"webharness/internal/storage"
)

// postgresImage matches the database service in docker-compose.yml so
// fixture runs and full-stack runs exercise the same server version.
const postgresImage = "postgres:16-alpine"

// PostgresContainer starts a disposable PostgreSQL container and returns
// a pool connected to it. Used when no externally managed database is
// available (local runs without the compose stack). The container is
// terminated after the test.
func PostgresContainer(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase("django_db_test"),
		postgres.WithUsername("django_user"),
		postgres.WithPassword("django_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		termCtx, termCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer termCancel()
		if err := pgContainer.Terminate(termCtx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	url, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get PostgreSQL connection string: %v", err)
	}

	store, err := storage.NewPostgreSQL(ctx, storage.PostgreSQLConfig{URL: url})
	if err != nil {
		t.Fatalf("failed to connect to PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("failed to close container pool: %v", err)
		}
	})

	return store.PostgresPool()
}
