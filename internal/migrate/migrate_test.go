package migrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/migrate"
	"storefront/internal/repository/pgtest"
)

func TestRollbackAndReapply(t *testing.T) {
	pool := pgtest.Start(t)
	ctx := context.Background()

	version, dirty, err := migrate.Version(ctx, pool)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	require.NoError(t, migrate.Rollback(ctx, pool, 1))
	var exists bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass('public.carts') IS NOT NULL`).Scan(&exists))
	assert.False(t, exists)

	require.NoError(t, migrate.Apply(ctx, pool))
	require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass('public.carts') IS NOT NULL`).Scan(&exists))
	assert.True(t, exists)

	// a second Apply is a no-op
	require.NoError(t, migrate.Apply(ctx, pool))
}

func TestRollback_RejectsNonPositiveSteps(t *testing.T) {
	assert.Error(t, migrate.Rollback(context.Background(), nil, 0))
}
