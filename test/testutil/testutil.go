// Package testutil provides shared helpers for integration tests that need
// a live PostgreSQL instance.
package testutil

import (
	"context"
	stdsql "database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/neon-eval/evalengine/pkg/store"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// NewTestStore spins up (or reuses, via CI_DATABASE_URL) a PostgreSQL
// instance, applies migrations and returns a ready-to-use *store.PostgresStore.
// The container/connection is cleaned up automatically when the test ends.
func NewTestStore(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	connStr := os.Getenv("CI_DATABASE_URL")
	if connStr == "" {
		t.Log("using testcontainers for PostgreSQL")
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("evalengine_test"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				t.Logf("failed to terminate container: %v", err)
			}
		})

		connStr, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	} else {
		t.Log("using external PostgreSQL from CI_DATABASE_URL")
	}

	db, err := stdsql.Open("pgx", connStr)
	require.NoError(t, err)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	client, err := store.NewClientFromDBMigrated(ctx, db)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return store.NewPostgresStore(client.DB())
}
