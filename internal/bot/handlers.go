package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"gitlab.com/travelkit/wallet-bot/internal/logger"
	"gitlab.com/travelkit/wallet-bot/internal/models"
)

// parseSwitchTripData extracts the trip ID from switch-trip callback data.
func parseSwitchTripData(data string) (int64, bool) {
	raw, found := strings.CutPrefix(data, cbSwitchTrip)
	if !found {
		return 0, false
	}
	tripID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || tripID <= 0 {
		return 0, false
	}
	return tripID, true
}

const welcomeText = `👋 I'm your travel wallet.

Create a trip with a home and destination currency, top it up, then just send me amounts you spend — I'll convert them and keep both balances up to date.

Commands:
/newtrip — create a trip
/trips — list and switch trips
/balance — show the active trip's balances
/history — recent expenses
/setrate — change the exchange rate
/export — download expenses as CSV
/chart — spending chart
/cancel — abort the current dialogue`

// handleStart greets the user and shows the main menu.
func (b *Bot) handleStart(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleStartCore(ctx, tg, update)
}

func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	logger.Log.Info().
		Str("user", logger.HashUserID(update.Message.From.ID)).
		Msg("User started bot")
	b.sendWithKeyboard(ctx, tg, update.Message.Chat.ID, welcomeText, mainMenuKeyboard())
}

// handleHelp shows the command list.
func (b *Bot) handleHelp(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleHelpCore(ctx, tg, update)
}

func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	b.sendWithKeyboard(ctx, tg, update.Message.Chat.ID, welcomeText, mainMenuKeyboard())
}

// handleBalance shows the active trip's balances.
func (b *Bot) handleBalance(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleBalanceCore(ctx, tg, update)
}

func (b *Bot) handleBalanceCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	text, err := b.balanceViewCore(ctx, userID)
	if err != nil {
		b.sendMessage(ctx, tg, chatID, "Something went wrong fetching your balance. Please try again.")
		return
	}
	b.sendWithKeyboard(ctx, tg, chatID, text, backToMenuKeyboard())
}

// balanceViewCore builds the balance view text for the user's active trip.
func (b *Bot) balanceViewCore(ctx context.Context, userID int64) (string, error) {
	trip, err := b.trips.GetActive(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Msg("Failed to get active trip")
		return "", err
	}
	if trip == nil {
		return noActiveTripText, nil
	}
	return balanceText(trip), nil
}

// handleHistory shows the active trip's recent expenses.
func (b *Bot) handleHistory(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleHistoryCore(ctx, tg, update)
}

func (b *Bot) handleHistoryCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	text, err := b.historyViewCore(ctx, userID)
	if err != nil {
		b.sendMessage(ctx, tg, chatID, "Something went wrong fetching your history. Please try again.")
		return
	}
	b.sendWithKeyboard(ctx, tg, chatID, text, backToMenuKeyboard())
}

// historyViewCore builds the history view text for the user's active trip.
func (b *Bot) historyViewCore(ctx context.Context, userID int64) (string, error) {
	trip, err := b.trips.GetActive(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Msg("Failed to get active trip")
		return "", err
	}
	if trip == nil {
		return noActiveTripText, nil
	}

	expenses, err := b.trips.ListExpenses(ctx, trip.ID, userID, models.HistoryLimit)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Int64("trip_id", trip.ID).
			Msg("Failed to list expenses")
		return "", err
	}
	return historyText(trip, expenses), nil
}

// handleTrips lists the user's trips with switch buttons.
func (b *Bot) handleTrips(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleTripsCore(ctx, tg, update)
}

func (b *Bot) handleTripsCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	trips, err := b.trips.ListByUser(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Msg("Failed to list trips")
		b.sendMessage(ctx, tg, chatID, "Something went wrong fetching your trips. Please try again.")
		return
	}
	if len(trips) == 0 {
		b.sendMessage(ctx, tg, chatID, noActiveTripText)
		return
	}
	b.sendWithKeyboard(ctx, tg, chatID, tripsListText(trips), tripsKeyboard(trips))
}

// handleSwitchTripCallback activates the trip picked from the trips list.
func (b *Bot) handleSwitchTripCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleSwitchTripCallbackCore(ctx, tg, update)
}

func (b *Bot) handleSwitchTripCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, userID, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)

	tripID, ok := parseSwitchTripData(update.CallbackQuery.Data)
	if !ok {
		b.editWithKeyboard(ctx, tg, chatID, messageID, "That trip no longer exists.", backToMenuKeyboard())
		return
	}

	switched, err := b.trips.SwitchActive(ctx, userID, tripID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Int64("trip_id", tripID).
			Msg("Failed to switch trip")
		b.editWithKeyboard(ctx, tg, chatID, messageID, "Something went wrong switching trips. Please try again.", backToMenuKeyboard())
		return
	}
	if !switched {
		b.editWithKeyboard(ctx, tg, chatID, messageID, "That trip no longer exists.", backToMenuKeyboard())
		return
	}

	trip, err := b.trips.GetByID(ctx, tripID, userID)
	if err != nil {
		logger.Log.Error().Err(err).Int64("trip_id", tripID).Msg("Failed to load switched trip")
		b.editWithKeyboard(ctx, tg, chatID, messageID, "Trip switched.", backToMenuKeyboard())
		return
	}

	logger.Log.Info().
		Str("user", logger.HashUserID(userID)).
		Int64("trip_id", tripID).
		Msg("Switched active trip")
	b.editWithKeyboard(ctx, tg, chatID, messageID,
		"✅ Active trip: "+trip.Name+"\n\n"+balanceText(trip), backToMenuKeyboard())
}

// handleCancel aborts any dialogue flow and pending expense.
func (b *Bot) handleCancel(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleCancelCore(ctx, tg, update)
}

func (b *Bot) handleCancelCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	userID := update.Message.From.ID

	hadSession := b.sessions.Active(userID)
	b.sessions.End(userID)
	b.discardPending(userID)

	if hadSession {
		b.sendWithKeyboard(ctx, tg, update.Message.Chat.ID, "Cancelled.", mainMenuKeyboard())
		return
	}
	b.sendWithKeyboard(ctx, tg, update.Message.Chat.ID, "Nothing to cancel.", mainMenuKeyboard())
}

// handleMainMenuCallback redraws the main menu in place.
func (b *Bot) handleMainMenuCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleMainMenuCallbackCore(ctx, tg, update)
}

func (b *Bot) handleMainMenuCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, _, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)
	b.editWithKeyboard(ctx, tg, chatID, messageID, welcomeText, mainMenuKeyboard())
}

// handleMenuNewTripCallback starts trip creation from the menu.
func (b *Bot) handleMenuNewTripCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	chatID, userID, _, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)
	b.startTripFlowCore(ctx, tg, chatID, userID)
}

// handleMenuTripsCallback shows the trips list from the menu.
func (b *Bot) handleMenuTripsCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	chatID, userID, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)

	trips, err := b.trips.ListByUser(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Msg("Failed to list trips")
		b.editWithKeyboard(ctx, tg, chatID, messageID, "Something went wrong fetching your trips. Please try again.", backToMenuKeyboard())
		return
	}
	if len(trips) == 0 {
		b.editWithKeyboard(ctx, tg, chatID, messageID, noActiveTripText, backToMenuKeyboard())
		return
	}
	b.editWithKeyboard(ctx, tg, chatID, messageID, tripsListText(trips), tripsKeyboard(trips))
}

// handleMenuBalanceCallback shows the balance view from the menu.
func (b *Bot) handleMenuBalanceCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	chatID, userID, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)

	text, err := b.balanceViewCore(ctx, userID)
	if err != nil {
		b.editWithKeyboard(ctx, tg, chatID, messageID, "Something went wrong fetching your balance. Please try again.", backToMenuKeyboard())
		return
	}
	b.editWithKeyboard(ctx, tg, chatID, messageID, text, backToMenuKeyboard())
}

// handleMenuHistoryCallback shows the history view from the menu.
func (b *Bot) handleMenuHistoryCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	chatID, userID, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)

	text, err := b.historyViewCore(ctx, userID)
	if err != nil {
		b.editWithKeyboard(ctx, tg, chatID, messageID, "Something went wrong fetching your history. Please try again.", backToMenuKeyboard())
		return
	}
	b.editWithKeyboard(ctx, tg, chatID, messageID, text, backToMenuKeyboard())
}

// handleMenuRateCallback starts the rate-change flow from the menu.
func (b *Bot) handleMenuRateCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	chatID, userID, _, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)
	b.startRateFlowCore(ctx, tg, chatID, userID)
}
