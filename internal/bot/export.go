package bot

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"gitlab.com/travelkit/wallet-bot/internal/logger"
	"gitlab.com/travelkit/wallet-bot/internal/models"
)

// exportLimit caps the number of expenses included in a CSV export.
const exportLimit = 1000

// GenerateExpensesCSV renders the trip's expenses as a CSV document.
func GenerateExpensesCSV(trip *models.Trip, expenses []models.Expense) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "Date", "Amount (" + trip.DestCurrency + ")", "Amount (" + trip.SourceCurrency + ")", "Description"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, exp := range expenses {
		record := []string{
			fmt.Sprintf("%d", exp.ID),
			exp.CreatedAt.Format("2006-01-02 15:04:05"),
			exp.AmountDest.StringFixed(2),
			exp.AmountSource.StringFixed(2),
			exp.Description,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// exportFilename creates a filename like "expenses_2026-08-31.csv".
func exportFilename() string {
	return fmt.Sprintf("expenses_%s.csv", time.Now().Format("2006-01-02"))
}

// handleExport sends the active trip's expenses as a CSV document.
func (b *Bot) handleExport(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleExportCore(ctx, tg, update)
}

func (b *Bot) handleExportCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

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

	expenses, err := b.trips.ListExpenses(ctx, trip.ID, userID, exportLimit)
	if err != nil {
		logger.Log.Error().Err(err).Int64("trip_id", trip.ID).Msg("Failed to list expenses for export")
		b.sendMessage(ctx, tg, chatID, "Something went wrong. Please try again.")
		return
	}
	if len(expenses) == 0 {
		b.sendMessage(ctx, tg, chatID, "No expenses to export yet.")
		return
	}

	csvData, err := GenerateExpensesCSV(trip, expenses)
	if err != nil {
		logger.Log.Error().Err(err).Int64("trip_id", trip.ID).Msg("Failed to generate CSV")
		b.sendMessage(ctx, tg, chatID, "Failed to generate the export. Please try again.")
		return
	}

	caption := fmt.Sprintf("📄 %s\n%d expenses", trip.Name, len(expenses))
	if _, err := tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &tgmodels.InputFileUpload{Filename: exportFilename(), Data: bytes.NewReader(csvData)},
		Caption:  caption,
	}); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send CSV document")
		b.sendMessage(ctx, tg, chatID, "Failed to send the export. Please try again.")
	}
}
