package bot

import (
	"github.com/go-telegram/bot"

	"gitlab.com/travelkit/wallet-bot/internal/bot/mocks"
)

// TelegramAPI is the interface for Telegram operations used by handlers.
// The canonical definition lives in the mocks package to avoid an import
// cycle between this package and its test doubles.
type TelegramAPI = mocks.TelegramAPI

// Compile-time check that the real bot client satisfies the interface.
var _ TelegramAPI = (*bot.Bot)(nil)
