package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"gitlab.com/travelkit/wallet-bot/internal/exchange"
	"gitlab.com/travelkit/wallet-bot/internal/logger"
	"gitlab.com/travelkit/wallet-bot/internal/models"
	"gitlab.com/travelkit/wallet-bot/internal/session"
)

// handleNewTrip starts the trip-creation dialogue.
func (b *Bot) handleNewTrip(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	b.startTripFlowCore(ctx, tg, update.Message.Chat.ID, update.Message.From.ID)
}

func (b *Bot) startTripFlowCore(ctx context.Context, tg TelegramAPI, chatID, userID int64) {
	b.discardPending(userID)
	b.sessions.Start(userID, session.PhaseSourceCountry)

	logger.Log.Info().
		Str("user", logger.HashUserID(userID)).
		Msg("Trip creation started")
	b.sendWithKeyboard(ctx, tg, chatID,
		"✈️ Let's set up a new trip.\n\nWhich country are you traveling from?",
		cancelTripKeyboard())
}

// handleFlowInputCore routes a text message to the step the user's dialogue
// is waiting on.
func (b *Bot) handleFlowInputCore(ctx context.Context, tg TelegramAPI, chatID, userID int64, text string, sess *session.Session) {
	switch sess.Phase {
	case session.PhaseSourceCountry:
		b.processSourceCountryCore(ctx, tg, chatID, text, sess)
	case session.PhaseDestCountry:
		b.processDestCountryCore(ctx, tg, chatID, userID, text, sess)
	case session.PhaseRateConfirm:
		// Waiting on a button press; remind the user.
		b.sendWithKeyboard(ctx, tg, chatID,
			"Please choose one of the rate options above, or cancel.",
			rateConfirmKeyboard())
	case session.PhaseManualRate:
		b.processManualRateCore(ctx, tg, chatID, text, sess)
	case session.PhaseInitialBalance:
		b.processInitialBalanceCore(ctx, tg, chatID, userID, text, sess)
	case session.PhaseNewRate:
		b.processNewRateCore(ctx, tg, chatID, userID, text, sess)
	default:
		logger.Log.Warn().
			Str("user", logger.HashUserID(userID)).
			Str("phase", sess.Phase.String()).
			Msg("Session in unknown phase, ending")
		b.sessions.End(userID)
	}
}

func (b *Bot) processSourceCountryCore(ctx context.Context, tg TelegramAPI, chatID int64, text string, sess *session.Session) {
	sess.Draft.SourceCountry = text
	sess.Phase = session.PhaseDestCountry

	b.sendWithKeyboard(ctx, tg, chatID,
		fmt.Sprintf("Traveling from %s. Which country are you going to?", text),
		cancelTripKeyboard())
}

func (b *Bot) processDestCountryCore(ctx context.Context, tg TelegramAPI, chatID, userID int64, text string, sess *session.Session) {
	sess.Draft.DestCountry = text
	sess.Draft.SourceCurrency, sess.Draft.DestCurrency = b.resolveCurrencies(ctx, sess.Draft.SourceCountry, text)

	quote, err := b.exchange.Convert(ctx, sess.Draft.SourceCurrency, sess.Draft.DestCurrency, decimal.NewFromInt(1))
	if err != nil {
		kind := "unknown"
		if gerr, ok := exchange.AsGatewayError(err); ok {
			kind = gerr.Kind.String()
		}
		logger.Log.Warn().Err(err).
			Str("user", logger.HashUserID(userID)).
			Str("failure", kind).
			Msg("Rate fetch failed, asking for manual rate")

		sess.Phase = session.PhaseManualRate
		b.sendWithKeyboard(ctx, tg, chatID,
			fmt.Sprintf("I couldn't reach the conversion service to fetch the current rate.\n\nPlease enter the exchange rate manually: how much %s is 1 %s worth? (e.g. 0.128)",
				sess.Draft.DestCurrency, sess.Draft.SourceCurrency),
			cancelTripKeyboard())
		return
	}

	sess.Draft.Rate = quote.Rate
	sess.Draft.RateSource = exchange.SourceGateway
	sess.Phase = session.PhaseRateConfirm

	b.sendWithKeyboard(ctx, tg, chatID,
		fmt.Sprintf("Current rate: %s\n\nUse this rate for the trip?",
			formatRate(quote.Rate, sess.Draft.SourceCurrency, sess.Draft.DestCurrency)),
		rateConfirmKeyboard())
}

// resolveCurrencies maps both countries to currency codes and validates the
// codes against the provider's list, falling back to the built-in list when
// the provider is unreachable. Unknown or unsupported codes fall back to the
// defaults.
func (b *Bot) resolveCurrencies(ctx context.Context, sourceCountry, destCountry string) (src, dst string) {
	src, ok := models.CurrencyForCountry(sourceCountry)
	if !ok {
		src = models.DefaultSourceCurrency
	}
	dst, ok = models.CurrencyForCountry(destCountry)
	if !ok {
		dst = models.DefaultDestCurrency
	}

	supported := func(code string) bool { return models.IsSupportedCurrency(code) }
	if list, err := b.exchange.SupportedCurrencies(ctx); err == nil && len(list) > 0 {
		supported = func(code string) bool {
			_, ok := list[code]
			return ok
		}
	} else if err != nil {
		logger.Log.Warn().Err(err).Msg("Currency list fetch failed, using built-in list")
	}

	if !supported(src) {
		src = models.DefaultSourceCurrency
	}
	if !supported(dst) {
		dst = models.DefaultDestCurrency
	}
	return src, dst
}

func (b *Bot) processManualRateCore(ctx context.Context, tg TelegramAPI, chatID int64, text string, sess *session.Session) {
	rate, err := parseDecimalInput(text)
	if err != nil || !rate.IsPositive() {
		b.sendWithKeyboard(ctx, tg, chatID,
			"The rate must be a positive number, e.g. 0.128. Please try again.",
			cancelTripKeyboard())
		return
	}

	sess.Draft.Rate = rate
	sess.Draft.RateSource = exchange.SourceManual
	sess.Phase = session.PhaseInitialBalance

	b.sendWithKeyboard(ctx, tg, chatID,
		fmt.Sprintf("Rate set: %s\n\nHow much %s are you taking with you? (you can skip this and top up later)",
			formatRate(rate, sess.Draft.SourceCurrency, sess.Draft.DestCurrency),
			sess.Draft.SourceCurrency),
		balanceKeyboard())
}

func (b *Bot) processInitialBalanceCore(ctx context.Context, tg TelegramAPI, chatID, userID int64, text string, sess *session.Session) {
	amount, err := parseDecimalInput(text)
	if err != nil || amount.IsNegative() {
		b.sendWithKeyboard(ctx, tg, chatID,
			fmt.Sprintf("Please enter a non-negative amount in %s, e.g. 1000.", sess.Draft.SourceCurrency),
			balanceKeyboard())
		return
	}

	trip, err := b.createTripFromDraft(ctx, userID, sess.Draft, amount)
	b.sessions.End(userID)
	if err != nil {
		b.sendMessage(ctx, tg, chatID, "Something went wrong creating the trip. Please try /newtrip again.")
		return
	}
	b.sendWithKeyboard(ctx, tg, chatID, tripSummaryText(trip), mainMenuKeyboard())
}

// createTripFromDraft persists the drafted trip as the user's active trip.
func (b *Bot) createTripFromDraft(ctx context.Context, userID int64, draft session.TripDraft, initialBalance decimal.Decimal) (*models.Trip, error) {
	trip := &models.Trip{
		UserID:         userID,
		Name:           fmt.Sprintf("%s → %s", draft.SourceCurrency, draft.DestCurrency),
		SourceCountry:  draft.SourceCountry,
		DestCountry:    draft.DestCountry,
		SourceCurrency: draft.SourceCurrency,
		DestCurrency:   draft.DestCurrency,
		ExchangeRate:   draft.Rate,
		BalanceSource:  initialBalance,
	}

	if err := b.trips.Create(ctx, trip); err != nil {
		logger.Log.Error().Err(err).
			Str("user", logger.HashUserID(userID)).
			Msg("Failed to create trip")
		return nil, err
	}

	logger.Log.Info().
		Str("user", logger.HashUserID(userID)).
		Int64("trip_id", trip.ID).
		Str("rate_source", draft.RateSource.String()).
		Msg("Trip created")
	return trip, nil
}

// handleConfirmRateCallback accepts the fetched rate and moves on to the
// initial balance step.
func (b *Bot) handleConfirmRateCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleConfirmRateCallbackCore(ctx, tg, update)
}

func (b *Bot) handleConfirmRateCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, userID, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)

	sess, ok := b.sessions.Get(userID)
	if !ok || sess.Phase != session.PhaseRateConfirm {
		b.editWithKeyboard(ctx, tg, chatID, messageID, "This dialogue has expired. Send /newtrip to start over.", backToMenuKeyboard())
		return
	}

	sess.Phase = session.PhaseInitialBalance
	b.editWithKeyboard(ctx, tg, chatID, messageID,
		fmt.Sprintf("Rate set: %s\n\nHow much %s are you taking with you? (you can skip this and top up later)",
			formatRate(sess.Draft.Rate, sess.Draft.SourceCurrency, sess.Draft.DestCurrency),
			sess.Draft.SourceCurrency),
		balanceKeyboard())
}

// handleManualRateCallback switches to manual rate entry.
func (b *Bot) handleManualRateCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleManualRateCallbackCore(ctx, tg, update)
}

func (b *Bot) handleManualRateCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, userID, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)

	sess, ok := b.sessions.Get(userID)
	if !ok || sess.Phase != session.PhaseRateConfirm {
		b.editWithKeyboard(ctx, tg, chatID, messageID, "This dialogue has expired. Send /newtrip to start over.", backToMenuKeyboard())
		return
	}

	sess.Phase = session.PhaseManualRate
	b.editWithKeyboard(ctx, tg, chatID, messageID,
		fmt.Sprintf("Enter the exchange rate manually: how much %s is 1 %s worth? (e.g. 0.128)",
			sess.Draft.DestCurrency, sess.Draft.SourceCurrency),
		cancelTripKeyboard())
}

// handleCancelTripCallback aborts trip creation.
func (b *Bot) handleCancelTripCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleCancelTripCallbackCore(ctx, tg, update)
}

func (b *Bot) handleCancelTripCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, userID, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)

	b.sessions.End(userID)
	b.editWithKeyboard(ctx, tg, chatID, messageID, "Trip creation cancelled.", mainMenuKeyboard())
}

// handleSkipBalanceCallback creates the trip with a zero starting balance.
func (b *Bot) handleSkipBalanceCallback(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleSkipBalanceCallbackCore(ctx, tg, update)
}

func (b *Bot) handleSkipBalanceCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, userID, messageID, ok := callbackContext(update)
	if !ok {
		return
	}
	b.answerCallback(ctx, tg, update.CallbackQuery.ID)

	sess, ok := b.sessions.Get(userID)
	if !ok || sess.Phase != session.PhaseInitialBalance {
		b.editWithKeyboard(ctx, tg, chatID, messageID, "This dialogue has expired. Send /newtrip to start over.", backToMenuKeyboard())
		return
	}

	trip, err := b.createTripFromDraft(ctx, userID, sess.Draft, decimal.Zero)
	b.sessions.End(userID)
	if err != nil {
		b.editWithKeyboard(ctx, tg, chatID, messageID, "Something went wrong creating the trip. Please try /newtrip again.", backToMenuKeyboard())
		return
	}
	b.editWithKeyboard(ctx, tg, chatID, messageID, tripSummaryText(trip), mainMenuKeyboard())
}
