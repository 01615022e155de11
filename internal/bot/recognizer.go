package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"gitlab.com/travelkit/wallet-bot/internal/exchange"
	"gitlab.com/travelkit/wallet-bot/internal/logger"
	"gitlab.com/travelkit/wallet-bot/internal/models"
	"gitlab.com/travelkit/wallet-bot/internal/repository"
)

// numericTextRegex matches text made up entirely of digits, spaces, dots and
// commas. Anything else is not treated as an expense amount.
var numericTextRegex = regexp.MustCompile(`^[\d\s.,]+$`)

// nonAmountCharsRegex strips everything but digits, dots and commas.
var nonAmountCharsRegex = regexp.MustCompile(`[^\d.,]`)

// ParseExpenseAmount extracts a positive amount from free text. Comma is
// accepted as a decimal separator. Returns false for anything that is not a
// plain positive number.
func ParseExpenseAmount(text string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !numericTextRegex.MatchString(trimmed) {
		return decimal.Zero, false
	}

	cleaned := nonAmountCharsRegex.ReplaceAllString(trimmed, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	amount, err := decimal.NewFromString(cleaned)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

// parseDecimalInput parses dialogue input (rates, balances) as a decimal,
// accepting comma as the decimal separator.
func parseDecimalInput(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	return decimal.NewFromString(cleaned)
}

// handleFreeTextExpenseCore treats a plain text message as an expense amount
// in the active trip's destination currency. Returns false when the message
// was not recognized as an expense, so the caller can fall through.
func (b *Bot) handleFreeTextExpenseCore(ctx context.Context, tg TelegramAPI, chatID, userID int64, text string) bool {
	amountDest, ok := ParseExpenseAmount(text)
	if !ok {
		return false
	}

	trip, err := b.trips.GetActive(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Msg("Failed to get active trip")
		return false
	}
	if trip == nil {
		return false
	}

	amountSource, source, notice := b.convertExpense(ctx, trip, amountDest)

	b.setPending(userID, &models.PendingExpense{
		TripID:       trip.ID,
		AmountSource: amountSource,
		AmountDest:   amountDest,
	})

	logger.Log.Info().
		Str("user", logger.HashUserID(userID)).
		Int64("trip_id", trip.ID).
		Str("rate_source", source.String()).
		Msg("Expense recognized")

	msg := fmt.Sprintf("💸 %s = %s\n\nRecord this as an expense?",
		formatAmount(amountDest, trip.DestCurrency),
		formatAmount(amountSource, trip.SourceCurrency))
	if notice != "" {
		msg = notice + "\n\n" + msg
	}
	b.sendWithKeyboard(ctx, tg, chatID, msg, expenseConfirmKeyboard())
	return true
}

// convertExpense converts a destination-currency amount to the source
// currency via the gateway, falling back to the trip's stored rate. A
// non-empty notice explains the fallback to the user.
func (b *Bot) convertExpense(ctx context.Context, trip *models.Trip, amountDest decimal.Decimal) (decimal.Decimal, exchange.RateSource, string) {
	quote, err := b.exchange.Convert(ctx, trip.DestCurrency, trip.SourceCurrency, amountDest)
	if err == nil {
		return quote.Converted, quote.Source, ""
	}

	kind := "unknown"
	if gerr, ok := exchange.AsGatewayError(err); ok {
		kind = gerr.Kind.String()
	}
	logger.Log.Warn().Err(err).
		Int64("trip_id", trip.ID).
		Str("failure", kind).
		Msg("Conversion failed, using stored trip rate")

	amountSource := amountDest.Div(trip.ExchangeRate).Round(2)
	notice := "⚠️ The conversion service is unavailable, so I used the trip's saved rate."
	return amountSource, exchange.SourceStoredRate, notice
}

// handleConfirmExpenseCallback records the pending expense.
func (b *Bot) handleConfirmExpenseCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleConfirmExpenseCallbackCore(ctx, tg, update)
}

func (b *Bot) handleConfirmExpenseCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, userID, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)

	pending, ok := b.takePending(userID)
	if !ok {
		b.editWithKeyboard(ctx, tg, chatID, messageID, "Nothing to record. Send me an amount first.", backToMenuKeyboard())
		return
	}

	expense := &models.Expense{
		TripID:       pending.TripID,
		UserID:       userID,
		AmountSource: pending.AmountSource,
		AmountDest:   pending.AmountDest,
	}
	if err := b.trips.AddExpense(ctx, expense); err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			b.editWithKeyboard(ctx, tg, chatID, messageID, "That trip no longer exists.", backToMenuKeyboard())
			return
		}
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Int64("trip_id", pending.TripID).
			Msg("Failed to record expense")
		b.editWithKeyboard(ctx, tg, chatID, messageID, "Something went wrong recording the expense. Please try again.", backToMenuKeyboard())
		return
	}

	trip, err := b.trips.GetByID(ctx, pending.TripID, userID)
	if err != nil {
		logger.Log.Error().Err(err).Int64("trip_id", pending.TripID).Msg("Failed to load trip after expense")
		b.editWithKeyboard(ctx, tg, chatID, messageID, "✅ Expense recorded.", backToMenuKeyboard())
		return
	}

	logger.Log.Info().
		Str("user", logger.HashUserID(userID)).
		Int64("trip_id", trip.ID).
		Int64("expense_id", expense.ID).
		Msg("Expense recorded")
	b.editWithKeyboard(ctx, tg, chatID, messageID,
		fmt.Sprintf("✅ Expense recorded: %s = %s\n\nRemaining: %s (%s)",
			formatAmount(expense.AmountDest, trip.DestCurrency),
			formatAmount(expense.AmountSource, trip.SourceCurrency),
			formatAmount(trip.BalanceSource, trip.SourceCurrency),
			formatAmount(trip.BalanceDest, trip.DestCurrency)),
		backToMenuKeyboard())
}

// handleCancelExpenseCallback discards the pending expense.
func (b *Bot) handleCancelExpenseCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleCancelExpenseCallbackCore(ctx, tg, update)
}

func (b *Bot) handleCancelExpenseCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, userID, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)

	b.discardPending(userID)
	b.editWithKeyboard(ctx, tg, chatID, messageID, "Expense discarded.", backToMenuKeyboard())
}
