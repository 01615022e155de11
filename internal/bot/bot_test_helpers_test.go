package bot

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/travelkit/wallet-bot/internal/database"
	"gitlab.com/travelkit/wallet-bot/internal/exchange"
	"gitlab.com/travelkit/wallet-bot/internal/models"
	"gitlab.com/travelkit/wallet-bot/internal/repository"
	"gitlab.com/travelkit/wallet-bot/internal/session"
)

// fakeExchange is a configurable in-memory exchange.Service.
type fakeExchange struct {
	convertFn   func(ctx context.Context, from, to string, amount decimal.Decimal) (exchange.Quote, error)
	supportedFn func(ctx context.Context) (map[string]string, error)
}

func (f *fakeExchange) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (exchange.Quote, error) {
	if f.convertFn != nil {
		return f.convertFn(ctx, from, to, amount)
	}
	return exchange.Quote{}, &exchange.GatewayError{Kind: exchange.FailureNetwork, Message: "no fake configured"}
}

func (f *fakeExchange) SupportedCurrencies(ctx context.Context) (map[string]string, error) {
	if f.supportedFn != nil {
		return f.supportedFn(ctx)
	}
	return nil, &exchange.GatewayError{Kind: exchange.FailureNetwork, Message: "no fake configured"}
}

// fixedRateExchange converts at a single fixed rate regardless of the pair.
func fixedRateExchange(rate string) *fakeExchange {
	r := decimal.RequireFromString(rate)
	return &fakeExchange{
		convertFn: func(_ context.Context, _, _ string, amount decimal.Decimal) (exchange.Quote, error) {
			return exchange.Quote{
				Rate:      r,
				Converted: amount.Mul(r).Round(2),
				Source:    exchange.SourceGateway,
			}, nil
		},
	}
}

// downExchange fails every call with a network error.
func downExchange() *fakeExchange {
	return &fakeExchange{}
}

// newTestBot builds a Bot wired to a transaction-scoped repository and the
// given exchange service. No Telegram client is attached; tests drive the
// Core handlers directly with a MockBot.
func newTestBot(t *testing.T, svc exchange.Service) *Bot {
	t.Helper()
	tx := database.TestTx(t)
	return &Bot{
		trips:    repository.NewTripRepository(tx),
		exchange: svc,
		sessions: session.NewStore(),
		pending:  make(map[int64]*models.PendingExpense),
	}
}

// createTestTrip inserts an active trip for the user directly through the
// repository.
func createTestTrip(t *testing.T, b *Bot, userID int64, rate, balance string) *models.Trip {
	t.Helper()
	trip := &models.Trip{
		UserID:         userID,
		Name:           "RUB → CNY",
		SourceCountry:  "russia",
		DestCountry:    "china",
		SourceCurrency: "RUB",
		DestCurrency:   "CNY",
		ExchangeRate:   decimal.RequireFromString(rate),
		BalanceSource:  decimal.RequireFromString(balance),
	}
	require.NoError(t, b.trips.Create(context.Background(), trip))
	return trip
}
