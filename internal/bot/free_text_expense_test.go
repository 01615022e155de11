package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/travelkit/wallet-bot/internal/bot/mocks"
)

func TestFreeTextExpenseNoActiveTrip(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("13.3333"))
	mockBot := mocks.NewMockBot()

	handled := b.handleFreeTextExpenseCore(context.Background(), mockBot, testChatID, testUserID, "20")

	assert.False(t, handled)
	assert.Equal(t, 0, mockBot.SentMessageCount())
}

func TestFreeTextExpenseNonNumericIgnored(t *testing.T) {
	b := newTestBot(t, fixedRateExchange("13.3333"))
	mockBot := mocks.NewMockBot()

	createTestTrip(t, b, testUserID, "0.075", "1000")

	for _, text := range []string{"abc", "-5", "0", "lunch 20"} {
		handled := b.handleFreeTextExpenseCore(context.Background(), mockBot, testChatID, testUserID, text)
		assert.False(t, handled, "text %q must be ignored", text)
	}
	assert.Equal(t, 0, mockBot.SentMessageCount())
}

func TestFreeTextExpenseGatewayConversion(t *testing.T) {
	// 20 CNY at the live rate 13.3333 is 266.67 RUB.
	b := newTestBot(t, fixedRateExchange("13.3333"))
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	createTestTrip(t, b, testUserID, "0.075", "1000")

	handled := b.handleFreeTextExpenseCore(ctx, mockBot, testChatID, testUserID, "20")
	require.True(t, handled)

	msg := mockBot.LastSentMessage()
	require.NotNil(t, msg)
	assert.Contains(t, msg.Text, "20.00 CNY")
	assert.Contains(t, msg.Text, "266.67 RUB")
	assert.NotContains(t, msg.Text, "saved rate", "no fallback notice when the gateway works")

	pending, ok := b.takePending(testUserID)
	require.True(t, ok)
	assert.Equal(t, "266.67", pending.AmountSource.StringFixed(2))
	assert.Equal(t, "20.00", pending.AmountDest.StringFixed(2))
}

func TestFreeTextExpenseStoredRateFallback(t *testing.T) {
	// Gateway down: 20 CNY at the stored rate 0.075 is 20/0.075 = 266.67 RUB.
	b := newTestBot(t, downExchange())
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	createTestTrip(t, b, testUserID, "0.075", "1000")

	handled := b.handleFreeTextExpenseCore(ctx, mockBot, testChatID, testUserID, "20")
	require.True(t, handled)

	msg := mockBot.LastSentMessage()
	require.NotNil(t, msg)
	assert.Contains(t, msg.Text, "266.67 RUB")
	assert.Contains(t, msg.Text, "saved rate", "fallback must be surfaced to the user")
}

func TestFreeTextExpenseConfirmRecordsAndUpdatesBalances(t *testing.T) {
	b := newTestBot(t, downExchange())
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	trip := createTestTrip(t, b, testUserID, "0.075", "1000")
	require.Equal(t, "75.00", trip.BalanceDest.StringFixed(2))

	require.True(t, b.handleFreeTextExpenseCore(ctx, mockBot, testChatID, testUserID, "20"))

	update := mocks.CallbackQueryUpdate(testChatID, testUserID, 10, cbConfirmExpense)
	b.handleConfirmExpenseCallbackCore(ctx, mockBot, update)

	edited := mockBot.LastEditedMessage()
	require.NotNil(t, edited)
	assert.Contains(t, edited.Text, "Expense recorded")
	assert.Contains(t, edited.Text, "733.33 RUB")
	assert.Contains(t, edited.Text, "55.00 CNY")

	// Pending slot is consumed.
	_, ok := b.takePending(testUserID)
	assert.False(t, ok)

	got, err := b.trips.GetByID(ctx, trip.ID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, "733.33", got.BalanceSource.StringFixed(2))
	assert.Equal(t, "55.00", got.BalanceDest.StringFixed(2))

	expenses, err := b.trips.ListExpenses(ctx, trip.ID, testUserID, 10)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "20.00", expenses[0].AmountDest.StringFixed(2))
}

func TestFreeTextExpenseCommaAmount(t *testing.T) {
	b := newTestBot(t, downExchange())
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	createTestTrip(t, b, testUserID, "0.5", "100")

	// "12,5" is 12.5 in the destination currency; at rate 0.5 that is 25.00
	// in the source currency.
	require.True(t, b.handleFreeTextExpenseCore(ctx, mockBot, testChatID, testUserID, "12,5"))

	pending, ok := b.takePending(testUserID)
	require.True(t, ok)
	assert.Equal(t, "12.50", pending.AmountDest.StringFixed(2))
	assert.Equal(t, "25.00", pending.AmountSource.StringFixed(2))
}

func TestFreeTextExpenseCancelDiscards(t *testing.T) {
	b := newTestBot(t, downExchange())
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	trip := createTestTrip(t, b, testUserID, "0.075", "1000")

	require.True(t, b.handleFreeTextExpenseCore(ctx, mockBot, testChatID, testUserID, "20"))

	update := mocks.CallbackQueryUpdate(testChatID, testUserID, 10, cbCancelExpense)
	b.handleCancelExpenseCallbackCore(ctx, mockBot, update)

	assert.Contains(t, mockBot.LastEditedMessage().Text, "discarded")
	_, ok := b.takePending(testUserID)
	assert.False(t, ok)

	// Balances untouched.
	got, err := b.trips.GetByID(ctx, trip.ID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", got.BalanceSource.StringFixed(2))
}

func TestFreeTextExpenseConfirmWithoutPending(t *testing.T) {
	b := newTestBot(t, downExchange())
	mockBot := mocks.NewMockBot()

	update := mocks.CallbackQueryUpdate(testChatID, testUserID, 10, cbConfirmExpense)
	b.handleConfirmExpenseCallbackCore(context.Background(), mockBot, update)

	assert.Contains(t, mockBot.LastEditedMessage().Text, "Nothing to record")
}

func TestFreeTextExpenseNewAmountReplacesPending(t *testing.T) {
	b := newTestBot(t, downExchange())
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	createTestTrip(t, b, testUserID, "0.075", "1000")

	require.True(t, b.handleFreeTextExpenseCore(ctx, mockBot, testChatID, testUserID, "20"))
	require.True(t, b.handleFreeTextExpenseCore(ctx, mockBot, testChatID, testUserID, "30"))

	pending, ok := b.takePending(testUserID)
	require.True(t, ok)
	assert.Equal(t, "30.00", pending.AmountDest.StringFixed(2))
}
