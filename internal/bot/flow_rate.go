package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"gitlab.com/travelkit/wallet-bot/internal/logger"
	"gitlab.com/travelkit/wallet-bot/internal/session"
)

// handleSetRate starts the rate-change dialogue for the active trip.
func (b *Bot) handleSetRate(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	b.startRateFlowCore(ctx, tg, update.Message.Chat.ID, update.Message.From.ID)
}

func (b *Bot) startRateFlowCore(ctx context.Context, tg TelegramAPI, chatID, userID int64) {
	trip, err := b.trips.GetActive(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Msg("Failed to get active trip")
		b.sendMessage(ctx, tg, chatID, "Something went wrong. Please try again.")
		return
	}
	if trip == nil {
		b.sendMessage(ctx, tg, chatID, noActiveTripText)
		return
	}

	sess := b.sessions.Start(userID, session.PhaseNewRate)
	sess.RateTripID = trip.ID

	b.sendWithKeyboard(ctx, tg, chatID,
		fmt.Sprintf("Current rate for %s:\n%s\n\nEnter the new rate: how much %s is 1 %s worth?",
			trip.Name,
			formatRate(trip.ExchangeRate, trip.SourceCurrency, trip.DestCurrency),
			trip.DestCurrency, trip.SourceCurrency),
		cancelRateKeyboard())
}

func (b *Bot) processNewRateCore(ctx context.Context, tg TelegramAPI, chatID, userID int64, text string, sess *session.Session) {
	rate, err := parseDecimalInput(text)
	if err != nil || !rate.IsPositive() {
		b.sendWithKeyboard(ctx, tg, chatID,
			"The rate must be a positive number, e.g. 0.128. Please try again.",
			cancelRateKeyboard())
		return
	}

	updated, err := b.trips.UpdateRate(ctx, sess.RateTripID, userID, rate)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Int64("trip_id", sess.RateTripID).
			Msg("Failed to update rate")
		b.sessions.End(userID)
		b.sendMessage(ctx, tg, chatID, "Something went wrong updating the rate. Please try again.")
		return
	}
	b.sessions.End(userID)
	if !updated {
		b.sendMessage(ctx, tg, chatID, "That trip no longer exists.")
		return
	}

	trip, err := b.trips.GetByID(ctx, sess.RateTripID, userID)
	if err != nil {
		logger.Log.Error().Err(err).Int64("trip_id", sess.RateTripID).Msg("Failed to load trip after rate update")
		b.sendWithKeyboard(ctx, tg, chatID, "✅ Rate updated.", mainMenuKeyboard())
		return
	}

	logger.Log.Info().
		Str("user", logger.HashUserID(userID)).
		Int64("trip_id", trip.ID).
		Msg("Exchange rate updated")
	b.sendWithKeyboard(ctx, tg, chatID,
		fmt.Sprintf("✅ Rate updated: %s\n\n%s",
			formatRate(trip.ExchangeRate, trip.SourceCurrency, trip.DestCurrency),
			balanceText(trip)),
		mainMenuKeyboard())
}

// handleCancelRateCallback aborts the rate-change dialogue.
func (b *Bot) handleCancelRateCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleCancelRateCallbackCore(ctx, tg, update)
}

func (b *Bot) handleCancelRateCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, userID, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)

	b.sessions.End(userID)
	b.editWithKeyboard(ctx, tg, chatID, messageID, "Rate change cancelled.", mainMenuKeyboard())
}
