package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"gitlab.com/travelkit/wallet-bot/internal/models"
)

// Balances are shown with two decimal places, rates with six.
const (
	balanceDisplayPlaces = 2
	rateDisplayPlaces    = 6
)

// formatAmount renders a monetary amount with its currency code.
func formatAmount(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(balanceDisplayPlaces), currency)
}

// formatRate renders an exchange rate as "1 SRC = r DST".
func formatRate(rate decimal.Decimal, sourceCurrency, destCurrency string) string {
	return fmt.Sprintf("1 %s = %s %s",
		sourceCurrency, rate.StringFixed(rateDisplayPlaces), destCurrency)
}

// balanceText renders the two balances of a trip.
func balanceText(trip *models.Trip) string {
	return fmt.Sprintf("💰 %s\n\nBalance: %s\nIn %s: %s\nRate: %s",
		trip.Name,
		formatAmount(trip.BalanceSource, trip.SourceCurrency),
		trip.DestCurrency,
		formatAmount(trip.BalanceDest, trip.DestCurrency),
		formatRate(trip.ExchangeRate, trip.SourceCurrency, trip.DestCurrency),
	)
}

// tripSummaryText renders the confirmation shown after a trip is created.
func tripSummaryText(trip *models.Trip) string {
	return fmt.Sprintf("✅ Trip created: %s\n\nRate: %s\nBalance: %s (%s)\n\nSend me an amount in %s any time and I'll record it as an expense.",
		trip.Name,
		formatRate(trip.ExchangeRate, trip.SourceCurrency, trip.DestCurrency),
		formatAmount(trip.BalanceSource, trip.SourceCurrency),
		formatAmount(trip.BalanceDest, trip.DestCurrency),
		trip.DestCurrency,
	)
}

// tripsListText renders the user's trips, the active one marked.
func tripsListText(trips []models.Trip) string {
	var sb strings.Builder
	sb.WriteString("📋 Your trips:\n")
	for _, trip := range trips {
		marker := "▫️"
		if trip.IsActive {
			marker = "✅"
		}
		fmt.Fprintf(&sb, "\n%s %s\n   %s | %s\n",
			marker, trip.Name,
			formatAmount(trip.BalanceSource, trip.SourceCurrency),
			formatAmount(trip.BalanceDest, trip.DestCurrency),
		)
	}
	return sb.String()
}

// historyText renders the most recent expenses of a trip.
func historyText(trip *models.Trip, expenses []models.Expense) string {
	if len(expenses) == 0 {
		return fmt.Sprintf("🧾 %s\n\nNo expenses recorded yet.", trip.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🧾 %s — last %d expenses:\n", trip.Name, len(expenses))
	for _, exp := range expenses {
		fmt.Fprintf(&sb, "\n💸 %s = %s\n   %s",
			formatAmount(exp.AmountDest, trip.DestCurrency),
			formatAmount(exp.AmountSource, trip.SourceCurrency),
			exp.CreatedAt.Format("2006-01-02 15:04"),
		)
		if exp.Description != "" {
			fmt.Fprintf(&sb, "\n   %s", exp.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// noActiveTripText is shown when an operation needs an active trip.
const noActiveTripText = "You don't have an active trip yet. Send /newtrip to create one."
