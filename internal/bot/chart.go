package bot

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-analyze/charts"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"gitlab.com/travelkit/wallet-bot/internal/logger"
	"gitlab.com/travelkit/wallet-bot/internal/models"
)

// GenerateSpendingChart creates a pie chart of the trip's spending grouped by
// day, in the destination currency. Returns PNG image bytes.
func GenerateSpendingChart(trip *models.Trip, expenses []models.Expense) ([]byte, error) {
	if len(expenses) == 0 {
		return nil, fmt.Errorf("no expenses to chart")
	}

	dayTotals := aggregateByDay(expenses)

	days := make([]string, 0, len(dayTotals))
	for day := range dayTotals {
		days = append(days, day)
	}
	sort.Strings(days)

	values := make([]float64, 0, len(days))
	for _, day := range days {
		values = append(values, dayTotals[day].InexactFloat64())
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("%s — spending by day (%s)", trip.Name, trip.DestCurrency),
		}),
		charts.LegendLabelsOptionFunc(days),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}

// aggregateByDay groups destination-currency amounts by calendar day.
func aggregateByDay(expenses []models.Expense) map[string]decimal.Decimal {
	dayTotals := make(map[string]decimal.Decimal)
	for _, exp := range expenses {
		day := exp.CreatedAt.Format("2006-01-02")
		dayTotals[day] = dayTotals[day].Add(exp.AmountDest)
	}
	return dayTotals
}

// chartFilename creates a filename like "chart_2026-08-31.png".
func chartFilename() string {
	return fmt.Sprintf("chart_%s.png", time.Now().Format("2006-01-02"))
}

// handleChart sends a spending breakdown chart for the active trip.
func (b *Bot) handleChart(ctx context.Context, tg *bot.Bot, update *tgmodels.Update) {
	b.handleChartCore(ctx, tg, update)
}

func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
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
		logger.Log.Error().Err(err).Int64("trip_id", trip.ID).Msg("Failed to list expenses for chart")
		b.sendMessage(ctx, tg, chatID, "Something went wrong. Please try again.")
		return
	}
	if len(expenses) == 0 {
		b.sendMessage(ctx, tg, chatID, "No expenses to chart yet.")
		return
	}

	chartData, err := GenerateSpendingChart(trip, expenses)
	if err != nil {
		logger.Log.Error().Err(err).Int64("trip_id", trip.ID).Msg("Failed to generate chart")
		b.sendMessage(ctx, tg, chatID, "Failed to generate the chart. Please try again.")
		return
	}

	if _, err := tg.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &tgmodels.InputFileUpload{Filename: chartFilename(), Data: bytes.NewReader(chartData)},
		Caption: fmt.Sprintf("📊 %s", trip.Name),
	}); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart")
		b.sendMessage(ctx, tg, chatID, "Failed to send the chart. Please try again.")
	}
}
