package bot

import (
	"fmt"

	tgmodels "github.com/go-telegram/bot/models"

	"gitlab.com/travelkit/wallet-bot/internal/models"
)

// mainMenuKeyboard is the keyboard attached to /start and summary messages.
func mainMenuKeyboard() *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "✈️ New trip", CallbackData: cbMenuNewTrip},
				{Text: "📋 My trips", CallbackData: cbMenuTrips},
			},
			{
				{Text: "💰 Balance", CallbackData: cbMenuBalance},
				{Text: "🧾 History", CallbackData: cbMenuHistory},
			},
			{
				{Text: "💱 Change rate", CallbackData: cbMenuRate},
			},
		},
	}
}

// backToMenuKeyboard offers a single button back to the main menu.
func backToMenuKeyboard() *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "« Menu", CallbackData: cbMainMenu},
			},
		},
	}
}

// rateConfirmKeyboard offers accepting the fetched rate, entering one
// manually, or cancelling trip creation.
func rateConfirmKeyboard() *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "✅ Use this rate", CallbackData: cbConfirmRate},
				{Text: "✏️ Enter manually", CallbackData: cbManualRate},
			},
			{
				{Text: "❌ Cancel", CallbackData: cbCancelTrip},
			},
		},
	}
}

// cancelTripKeyboard offers cancelling trip creation.
func cancelTripKeyboard() *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "❌ Cancel", CallbackData: cbCancelTrip},
			},
		},
	}
}

// balanceKeyboard offers skipping the initial balance or cancelling.
func balanceKeyboard() *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "⏭ Skip", CallbackData: cbSkipBalance},
				{Text: "❌ Cancel", CallbackData: cbCancelTrip},
			},
		},
	}
}

// cancelRateKeyboard offers cancelling a rate change.
func cancelRateKeyboard() *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "❌ Cancel", CallbackData: cbCancelRate},
			},
		},
	}
}

// expenseConfirmKeyboard offers recording or discarding a recognized expense.
func expenseConfirmKeyboard() *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "✅ Record", CallbackData: cbConfirmExpense},
				{Text: "❌ Discard", CallbackData: cbCancelExpense},
			},
		},
	}
}

// tripsKeyboard lists switch buttons for every inactive trip.
func tripsKeyboard(trips []models.Trip) *tgmodels.InlineKeyboardMarkup {
	var rows [][]tgmodels.InlineKeyboardButton
	for _, trip := range trips {
		if trip.IsActive {
			continue
		}
		rows = append(rows, []tgmodels.InlineKeyboardButton{
			{
				Text:         fmt.Sprintf("Switch to %s", trip.Name),
				CallbackData: fmt.Sprintf("%s%d", cbSwitchTrip, trip.ID),
			},
		})
	}
	rows = append(rows, []tgmodels.InlineKeyboardButton{
		{Text: "« Menu", CallbackData: cbMainMenu},
	})
	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows}
}
