// Package repository implements the persistent trip ledger.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"gitlab.com/travelkit/wallet-bot/internal/database"
	"gitlab.com/travelkit/wallet-bot/internal/models"
)

// ErrTripNotFound is returned when a trip does not exist for the user.
var ErrTripNotFound = errors.New("trip not found")

// TripRepository handles trip and expense database operations. Multi-statement
// writes run inside a single transaction.
type TripRepository struct {
	db database.DB
}

// NewTripRepository creates a new TripRepository.
func NewTripRepository(db database.DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `id, user_id, name, source_country, dest_country,
	source_currency, dest_currency, exchange_rate, balance_source,
	balance_dest, is_active, created_at`

// Create inserts a new trip as the user's single active trip. Every other
// trip owned by the user is deactivated in the same transaction. The
// destination balance is derived as balance_source × exchange_rate.
func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	trip.BalanceDest = trip.BalanceSource.Mul(trip.ExchangeRate).Round(2)
	trip.IsActive = true

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin create trip: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE trips SET is_active = FALSE WHERE user_id = $1`, trip.UserID,
	); err != nil {
		return fmt.Errorf("failed to deactivate trips: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO trips (user_id, name, source_country, dest_country,
			source_currency, dest_currency, exchange_rate,
			balance_source, balance_dest, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		RETURNING id, created_at
	`, trip.UserID, trip.Name, trip.SourceCountry, trip.DestCountry,
		trip.SourceCurrency, trip.DestCurrency, trip.ExchangeRate,
		trip.BalanceSource, trip.BalanceDest,
	).Scan(&trip.ID, &trip.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit create trip: %w", err)
	}
	return nil
}

// GetActive returns the user's active trip, or nil when none exists.
func (r *TripRepository) GetActive(ctx context.Context, userID int64) (*models.Trip, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+tripColumns+` FROM trips
		WHERE user_id = $1 AND is_active
		LIMIT 1
	`, userID)

	trip, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active trip: %w", err)
	}
	return trip, nil
}

// GetByID returns the trip only if it belongs to the user.
func (r *TripRepository) GetByID(ctx context.Context, tripID, userID int64) (*models.Trip, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+tripColumns+` FROM trips
		WHERE id = $1 AND user_id = $2
	`, tripID, userID)

	trip, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// ListByUser returns the user's trips, active trip first, then newest first.
func (r *TripRepository) ListByUser(ctx context.Context, userID int64) ([]models.Trip, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tripColumns+` FROM trips
		WHERE user_id = $1
		ORDER BY is_active DESC, created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}
	return trips, nil
}

// SwitchActive makes tripID the user's single active trip. Returns false
// without mutating anything when the trip does not belong to the user.
func (r *TripRepository) SwitchActive(ctx context.Context, userID, tripID int64) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin switch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM trips WHERE id = $1 AND user_id = $2`, tripID, userID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check trip ownership: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE trips SET is_active = FALSE WHERE user_id = $1`, userID,
	); err != nil {
		return false, fmt.Errorf("failed to deactivate trips: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE trips SET is_active = TRUE WHERE id = $1 AND user_id = $2`, tripID, userID,
	); err != nil {
		return false, fmt.Errorf("failed to activate trip: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit switch: %w", err)
	}
	return true, nil
}

// UpdateRate sets a new exchange rate and recomputes the destination balance
// as balance_source × new rate, discarding any prior destination balance.
// Returns false when the trip is not found for that user.
func (r *TripRepository) UpdateRate(ctx context.Context, tripID, userID int64, newRate decimal.Decimal) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE trips
		SET exchange_rate = $3,
		    balance_dest = ROUND(balance_source * $3, 2)
		WHERE id = $1 AND user_id = $2
	`, tripID, userID, newRate)
	if err != nil {
		return false, fmt.Errorf("failed to update rate: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AddExpense inserts an expense row and decrements both trip balances by the
// caller-supplied amounts in one transaction. The amounts are trusted as
// converted by the caller; the trip's stored rate is not reapplied, so the
// destination balance may drift from balance_source × rate when live gateway
// rates were used.
func (r *TripRepository) AddExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin add expense: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var desc *string
	if expense.Description != "" {
		desc = &expense.Description
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO expenses (trip_id, user_id, amount_source, amount_dest, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, expense.TripID, expense.UserID, expense.AmountSource, expense.AmountDest, desc,
	).Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE trips
		SET balance_source = balance_source - $3,
		    balance_dest = balance_dest - $4
		WHERE id = $1 AND user_id = $2
	`, expense.TripID, expense.UserID, expense.AmountSource, expense.AmountDest)
	if err != nil {
		return fmt.Errorf("failed to update balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit add expense: %w", err)
	}
	return nil
}

// GetBalance returns the trip's balances in both currencies.
func (r *TripRepository) GetBalance(ctx context.Context, tripID, userID int64) (balanceSource, balanceDest decimal.Decimal, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT balance_source, balance_dest FROM trips
		WHERE id = $1 AND user_id = $2
	`, tripID, userID).Scan(&balanceSource, &balanceDest)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, decimal.Zero, ErrTripNotFound
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return balanceSource, balanceDest, nil
}

// ListExpenses returns up to limit expenses for the trip, most recent first.
func (r *TripRepository) ListExpenses(ctx context.Context, tripID, userID int64, limit int) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, trip_id, user_id, amount_source, amount_dest, description, created_at
		FROM expenses
		WHERE trip_id = $1 AND user_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, tripID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var exp models.Expense
		var desc *string
		if err := rows.Scan(
			&exp.ID, &exp.TripID, &exp.UserID,
			&exp.AmountSource, &exp.AmountDest, &desc, &exp.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if desc != nil {
			exp.Description = *desc
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

// scanTrip scans one trip row.
func scanTrip(row pgx.Row) (*models.Trip, error) {
	var trip models.Trip
	err := row.Scan(
		&trip.ID, &trip.UserID, &trip.Name,
		&trip.SourceCountry, &trip.DestCountry,
		&trip.SourceCurrency, &trip.DestCurrency,
		&trip.ExchangeRate, &trip.BalanceSource, &trip.BalanceDest,
		&trip.IsActive, &trip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &trip, nil
}
