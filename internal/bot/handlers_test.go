package bot

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/travelkit/wallet-bot/internal/bot/mocks"
	"gitlab.com/travelkit/wallet-bot/internal/models"
)

func TestHandleStart(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()

	update := mocks.MessageUpdate(testChatID, testUserID, "/start")
	b.handleStartCore(context.Background(), mockBot, update)

	msg := mockBot.LastSentMessage()
	require.NotNil(t, msg)
	assert.Contains(t, msg.Text, "travel wallet")
	assert.Contains(t, msg.Text, "/newtrip")
	assert.NotNil(t, msg.ReplyMarkup, "main menu keyboard must be attached")
}

func TestHandleBalanceNoTrip(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()

	update := mocks.MessageUpdate(testChatID, testUserID, "/balance")
	b.handleBalanceCore(context.Background(), mockBot, update)

	assert.Contains(t, mockBot.LastSentMessage().Text, "don't have an active trip")
}

func TestHandleBalanceDisplaysBothCurrencies(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()

	createTestTrip(t, b, testUserID, "0.075", "1000")

	update := mocks.MessageUpdate(testChatID, testUserID, "/balance")
	b.handleBalanceCore(context.Background(), mockBot, update)

	msg := mockBot.LastSentMessage()
	require.NotNil(t, msg)
	// Balances with two decimals, the rate with six.
	assert.Contains(t, msg.Text, "1000.00 RUB")
	assert.Contains(t, msg.Text, "75.00 CNY")
	assert.Contains(t, msg.Text, "1 RUB = 0.075000 CNY")
}

func TestHandleHistoryEmpty(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()

	createTestTrip(t, b, testUserID, "0.075", "1000")

	update := mocks.MessageUpdate(testChatID, testUserID, "/history")
	b.handleHistoryCore(context.Background(), mockBot, update)

	assert.Contains(t, mockBot.LastSentMessage().Text, "No expenses recorded yet")
}

func TestHandleHistoryCapsAtLimit(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	trip := createTestTrip(t, b, testUserID, "0.075", "10000")

	for i := 0; i < models.HistoryLimit+3; i++ {
		expense := &models.Expense{
			TripID:       trip.ID,
			UserID:       testUserID,
			AmountSource: decimal.NewFromInt(10),
			AmountDest:   decimal.NewFromInt(1),
			Description:  fmt.Sprintf("expense %d", i),
		}
		require.NoError(t, b.trips.AddExpense(ctx, expense))
	}

	update := mocks.MessageUpdate(testChatID, testUserID, "/history")
	b.handleHistoryCore(ctx, mockBot, update)

	msg := mockBot.LastSentMessage()
	require.NotNil(t, msg)
	assert.Contains(t, msg.Text, fmt.Sprintf("last %d expenses", models.HistoryLimit))
	// Newest first; the oldest entries fall off.
	assert.Contains(t, msg.Text, fmt.Sprintf("expense %d", models.HistoryLimit+2))
	assert.NotContains(t, msg.Text, "expense 0\n")
}

func TestHandleTripsEmpty(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()

	update := mocks.MessageUpdate(testChatID, testUserID, "/trips")
	b.handleTripsCore(context.Background(), mockBot, update)

	assert.Contains(t, mockBot.LastSentMessage().Text, "don't have an active trip")
}

func TestHandleTripsListsAndSwitches(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	first := createTestTrip(t, b, testUserID, "0.075", "1000")
	second := &models.Trip{
		UserID:         testUserID,
		Name:           "RUB → USD",
		SourceCountry:  "russia",
		DestCountry:    "usa",
		SourceCurrency: "RUB",
		DestCurrency:   "USD",
		ExchangeRate:   decimal.RequireFromString("0.011"),
		BalanceSource:  decimal.RequireFromString("500"),
	}
	require.NoError(t, b.trips.Create(ctx, second))

	update := mocks.MessageUpdate(testChatID, testUserID, "/trips")
	b.handleTripsCore(ctx, mockBot, update)

	msg := mockBot.LastSentMessage()
	require.NotNil(t, msg)
	assert.Contains(t, msg.Text, "RUB → CNY")
	assert.Contains(t, msg.Text, "RUB → USD")

	// Switch back to the first trip via the callback.
	cb := mocks.CallbackQueryUpdate(testChatID, testUserID, 10,
		fmt.Sprintf("%s%d", cbSwitchTrip, first.ID))
	b.handleSwitchTripCallbackCore(ctx, mockBot, cb)

	assert.Contains(t, mockBot.LastEditedMessage().Text, "Active trip")

	active, err := b.trips.GetActive(ctx, testUserID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.ID, active.ID)
}

func TestHandleSwitchTripForeignTrip(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	otherUsers := createTestTrip(t, b, testUserID+1, "0.075", "1000")
	createTestTrip(t, b, testUserID, "0.075", "1000")

	cb := mocks.CallbackQueryUpdate(testChatID, testUserID, 10,
		fmt.Sprintf("%s%d", cbSwitchTrip, otherUsers.ID))
	b.handleSwitchTripCallbackCore(ctx, mockBot, cb)

	assert.Contains(t, mockBot.LastEditedMessage().Text, "no longer exists")
}

func TestHandleSwitchTripMalformedData(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()

	cb := mocks.CallbackQueryUpdate(testChatID, testUserID, 10, cbSwitchTrip+"garbage")
	b.handleSwitchTripCallbackCore(context.Background(), mockBot, cb)

	assert.Contains(t, mockBot.LastEditedMessage().Text, "no longer exists")
}

func TestParseSwitchTripData(t *testing.T) {
	id, ok := parseSwitchTripData("switch_trip_42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = parseSwitchTripData("switch_trip_")
	assert.False(t, ok)

	_, ok = parseSwitchTripData("switch_trip_-1")
	assert.False(t, ok)

	_, ok = parseSwitchTripData("other_data")
	assert.False(t, ok)
}

func TestHandleCancel(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	// Nothing in progress.
	update := mocks.MessageUpdate(testChatID, testUserID, "/cancel")
	b.handleCancelCore(ctx, mockBot, update)
	assert.Contains(t, mockBot.LastSentMessage().Text, "Nothing to cancel")

	// Mid-flow.
	b.startTripFlowCore(ctx, mockBot, testChatID, testUserID)
	b.handleCancelCore(ctx, mockBot, update)
	assert.Contains(t, mockBot.LastSentMessage().Text, "Cancelled")
	assert.False(t, b.sessions.Active(testUserID))
}

func TestDefaultRoutingFlowInputTakesPriority(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	// A numeric message during a dialogue is dialogue input, not an expense.
	createTestTrip(t, b, testUserID, "0.075", "1000")
	b.startRateFlowCore(ctx, mockBot, testChatID, testUserID)

	update := mocks.MessageUpdate(testChatID, testUserID, "0.08")
	b.handleDefaultCore(ctx, mockBot, update)

	assert.False(t, b.sessions.Active(testUserID), "input must be consumed by the rate flow")
	_, pendingSet := b.takePending(testUserID)
	assert.False(t, pendingSet, "no expense must be drafted from dialogue input")
}

func TestDefaultRoutingRecognizesExpense(t *testing.T) {
	b := newTestBot(t, downExchange())
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	createTestTrip(t, b, testUserID, "0.075", "1000")

	update := mocks.MessageUpdate(testChatID, testUserID, "20")
	b.handleDefaultCore(ctx, mockBot, update)

	_, ok := b.takePending(testUserID)
	assert.True(t, ok)
}

func TestDefaultRoutingUnknownCommand(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()

	update := mocks.MessageUpdate(testChatID, testUserID, "/bogus")
	b.handleDefaultCore(context.Background(), mockBot, update)

	assert.Contains(t, mockBot.LastSentMessage().Text, "Unknown command")
}

func TestDefaultRoutingIgnoresPlainText(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()

	update := mocks.MessageUpdate(testChatID, testUserID, "hello there")
	b.handleDefaultCore(context.Background(), mockBot, update)

	assert.Equal(t, 0, mockBot.SentMessageCount(), "unrecognized text is ignored silently")
}

func TestDefaultRoutingNilMessage(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("0.075"))
	mockBot := mocks.NewMockBot()

	b.handleDefaultCore(context.Background(), mockBot, mocks.NewUpdateBuilder().Build())
	assert.Equal(t, 0, mockBot.SentMessageCount())
}
