//go:build integration

package integration

import (
	"context"
	"net/url"
	"testing"

	"github.com/bissquit/worknotes/internal/pkg/postgres"
	"github.com/bissquit/worknotes/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_EmbeddedFreshDatabase(t *testing.T) {
	ctx := context.Background()

	_, err := testDB.Exec(ctx, "CREATE DATABASE migrate_check")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = testDB.Exec(context.Background(), "DROP DATABASE IF EXISTS migrate_check WITH (FORCE)")
	})

	u, err := url.Parse(testDBURL)
	require.NoError(t, err)
	u.Path = "/migrate_check"

	require.NoError(t, postgres.Migrate(migrations.FS, ".", u.String()))
	// A second run finds nothing to apply.
	require.NoError(t, postgres.Migrate(migrations.FS, ".", u.String()))

	pool, err := pgxpool.New(ctx, u.String())
	require.NoError(t, err)
	defer pool.Close()

	var version int
	var dirty bool
	require.NoError(t, pool.QueryRow(ctx, "SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty))
	assert.Equal(t, 1, version)
	assert.False(t, dirty)

	var tables int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT count(*) FROM information_schema.tables WHERE table_name IN ('users', 'notes')").Scan(&tables))
	assert.Equal(t, 2, tables)
}
