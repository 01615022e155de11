// Package bot implements the Telegram surface of the travel wallet:
// command handlers, the trip and rate dialogues, and the free-text
// expense recognizer.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"gitlab.com/travelkit/wallet-bot/internal/config"
	"gitlab.com/travelkit/wallet-bot/internal/database"
	"gitlab.com/travelkit/wallet-bot/internal/exchange"
	"gitlab.com/travelkit/wallet-bot/internal/logger"
	"gitlab.com/travelkit/wallet-bot/internal/models"
	"gitlab.com/travelkit/wallet-bot/internal/repository"
	"gitlab.com/travelkit/wallet-bot/internal/session"
)

// Callback data values for inline keyboards.
const (
	cbConfirmRate    = "confirm_rate"
	cbManualRate     = "manual_rate"
	cbCancelTrip     = "cancel_trip"
	cbSkipBalance    = "skip_balance"
	cbCancelRate     = "cancel_rate"
	cbConfirmExpense = "confirm_expense"
	cbCancelExpense  = "cancel_expense"
	cbSwitchTrip     = "switch_trip_"
	cbMainMenu       = "main_menu"

	cbMenuNewTrip = "menu_newtrip"
	cbMenuTrips   = "menu_trips"
	cbMenuBalance = "menu_balance"
	cbMenuHistory = "menu_history"
	cbMenuRate    = "menu_setrate"
)

// Bot wraps the Telegram client with the wallet's handlers and state.
type Bot struct {
	bot      *bot.Bot
	cfg      *config.Config
	trips    *repository.TripRepository
	exchange exchange.Service
	sessions *session.Store

	pendingMu sync.RWMutex
	pending   map[int64]*models.PendingExpense
}

// New creates the bot and registers all handlers.
func New(cfg *config.Config, db database.DB, gateway exchange.Service) (*Bot, error) {
	b := &Bot{
		cfg:      cfg,
		trips:    repository.NewTripRepository(db),
		exchange: gateway,
		sessions: session.NewStore(),
		pending:  make(map[int64]*models.PendingExpense),
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
	}

	tg, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.bot = tg

	b.registerHandlers()

	return b, nil
}

// Start begins polling for updates. Blocks until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started")
	b.bot.Start(ctx)
	logger.Log.Info().Msg("Bot stopped")
}

func (b *Bot) registerHandlers() {
	commands := map[string]bot.HandlerFunc{
		"/start":   b.handleStart,
		"/help":    b.handleHelp,
		"/newtrip": b.handleNewTrip,
		"/trips":   b.handleTrips,
		"/balance": b.handleBalance,
		"/history": b.handleHistory,
		"/setrate": b.handleSetRate,
		"/cancel":  b.handleCancel,
		"/export":  b.handleExport,
		"/chart":   b.handleChart,
	}
	for cmd, handler := range commands {
		b.bot.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypePrefix, handler)
	}

	callbacks := map[string]bot.HandlerFunc{
		cbConfirmRate:    b.handleConfirmRateCallback,
		cbManualRate:     b.handleManualRateCallback,
		cbCancelTrip:     b.handleCancelTripCallback,
		cbSkipBalance:    b.handleSkipBalanceCallback,
		cbCancelRate:     b.handleCancelRateCallback,
		cbConfirmExpense: b.handleConfirmExpenseCallback,
		cbCancelExpense:  b.handleCancelExpenseCallback,
		cbMainMenu:       b.handleMainMenuCallback,
		cbMenuNewTrip:    b.handleMenuNewTripCallback,
		cbMenuTrips:      b.handleMenuTripsCallback,
		cbMenuBalance:    b.handleMenuBalanceCallback,
		cbMenuHistory:    b.handleMenuHistoryCallback,
		cbMenuRate:       b.handleMenuRateCallback,
	}
	for data, handler := range callbacks {
		b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, data, bot.MatchTypeExact, handler)
	}

	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, cbSwitchTrip, bot.MatchTypePrefix, b.handleSwitchTripCallback)
}

// defaultHandler routes plain text messages: dialogue input first, then the
// expense recognizer, otherwise the message is ignored.
func (b *Bot) defaultHandler(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleDefaultCore(ctx, tg, update)
}

func (b *Bot) handleDefaultCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if sess, ok := b.sessions.Get(userID); ok {
		b.handleFlowInputCore(ctx, tg, chatID, userID, text, sess)
		return
	}

	if b.handleFreeTextExpenseCore(ctx, tg, chatID, userID, text) {
		return
	}

	if strings.HasPrefix(text, "/") {
		logger.Log.Debug().
			Str("user", logger.HashUserID(userID)).
			Str("command", text).
			Msg("Unknown command")
		b.sendMessage(ctx, tg, chatID, "Unknown command. Send /help to see what I can do.")
		return
	}

	// Plain text that is neither dialogue input nor an amount is ignored.
	logger.Log.Debug().
		Str("user", logger.HashUserID(userID)).
		Msg("Ignoring unrecognized message")
}

// sendMessage sends a plain text message, logging send failures.
func (b *Bot) sendMessage(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	b.sendWithKeyboard(ctx, tg, chatID, text, nil)
}

// sendWithKeyboard sends a message with an optional inline keyboard.
func (b *Bot) sendWithKeyboard(ctx context.Context, tg TelegramAPI, chatID int64, text string, kb tgmodels.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}
	if _, err := tg.SendMessage(ctx, params); err != nil {
		logger.Log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// editWithKeyboard edits a message in place, with an optional inline keyboard.
func (b *Bot) editWithKeyboard(ctx context.Context, tg TelegramAPI, chatID int64, messageID int, text string, kb tgmodels.ReplyMarkup) {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}
	if _, err := tg.EditMessageText(ctx, params); err != nil {
		logger.Log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit message")
	}
}

// answerCallback acknowledges a callback query so the client stops its spinner.
func (b *Bot) answerCallback(ctx context.Context, tg TelegramAPI, callbackID string) {
	if _, err := tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
	}); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to answer callback query")
	}
}

// callbackContext extracts the chat, user and message of a callback update.
// Returns false when the originating message is inaccessible.
func callbackContext(update *tgmodels.Update) (chatID, userID int64, messageID int, ok bool) {
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return 0, 0, 0, false
	}
	msg := update.CallbackQuery.Message.Message
	return msg.Chat.ID, update.CallbackQuery.From.ID, msg.ID, true
}

// setPending stores the expense awaiting the user's confirmation, replacing
// any previous one.
func (b *Bot) setPending(userID int64, exp *models.PendingExpense) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	b.pending[userID] = exp
}

// takePending removes and returns the user's pending expense.
func (b *Bot) takePending(userID int64) (*models.PendingExpense, bool) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	exp, ok := b.pending[userID]
	if ok {
		delete(b.pending, userID)
	}
	return exp, ok
}

// discardPending drops the user's pending expense, if any.
func (b *Bot) discardPending(userID int64) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	delete(b.pending, userID)
}
