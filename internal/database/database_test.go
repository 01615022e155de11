package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectInvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "not-a-valid-url")
	assert.Error(t, err)
}

func TestRunMigrationsIdempotent(t *testing.T) {
	pool := TestPool(t)
	ctx := context.Background()

	// TestPool already ran migrations once; a second run must be a no-op.
	require.NoError(t, RunMigrations(ctx, pool))

	var count int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_name IN ('trips', 'expenses')
	`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTestTxIsolation(t *testing.T) {
	tx := TestTx(t)
	ctx := context.Background()

	_, err := tx.Exec(ctx, `
		INSERT INTO trips (user_id, name, source_country, dest_country,
			source_currency, dest_currency, exchange_rate,
			balance_source, balance_dest, is_active)
		VALUES (777001, 'iso test', 'russia', 'china', 'RUB', 'CNY', 0.075, 0, 0, TRUE)
	`)
	require.NoError(t, err)

	// Visible inside the transaction.
	var count int
	require.NoError(t, tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM trips WHERE user_id = 777001`).Scan(&count))
	assert.Equal(t, 1, count)

	// Multi-statement writes can nest as savepoints.
	inner, err := tx.Begin(ctx)
	require.NoError(t, err)
	_, err = inner.Exec(ctx, `UPDATE trips SET is_active = FALSE WHERE user_id = 777001`)
	require.NoError(t, err)
	require.NoError(t, inner.Rollback(ctx))

	// The savepoint rollback restored the row.
	var active bool
	require.NoError(t, tx.QueryRow(ctx,
		`SELECT is_active FROM trips WHERE user_id = 777001`).Scan(&active))
	assert.True(t, active)
}
