package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS trips (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			source_country TEXT NOT NULL,
			dest_country TEXT NOT NULL,
			source_currency TEXT NOT NULL,
			dest_currency TEXT NOT NULL,
			exchange_rate DECIMAL(18, 8) NOT NULL,
			balance_source DECIMAL(14, 2) NOT NULL DEFAULT 0,
			balance_dest DECIMAL(14, 2) NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, name)
		)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			trip_id BIGINT NOT NULL REFERENCES trips(id),
			user_id BIGINT NOT NULL,
			amount_source DECIMAL(14, 2) NOT NULL,
			amount_dest DECIMAL(14, 2) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_trips_user_id ON trips(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trips_user_active ON trips(user_id) WHERE is_active`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_trip_id ON expenses(trip_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_created_at ON expenses(created_at)`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
