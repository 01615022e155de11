// Package models defines the domain entities for the travel wallet.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSourceCurrency is used when the source country is not in the table.
const DefaultSourceCurrency = "RUB"

// DefaultDestCurrency is used when the destination country is not in the table.
const DefaultDestCurrency = "USD"

// HistoryLimit caps the number of expenses shown by the history view.
const HistoryLimit = 10

// countryCurrencies maps lowercased country names to their currency code.
var countryCurrencies = map[string]string{
	"russia":      "RUB",
	"china":       "CNY",
	"usa":         "USD",
	"america":     "USD",
	"europe":      "EUR",
	"germany":     "EUR",
	"france":      "EUR",
	"spain":       "EUR",
	"italy":       "EUR",
	"uk":          "GBP",
	"britain":     "GBP",
	"japan":       "JPY",
	"turkey":      "TRY",
	"thailand":    "THB",
	"vietnam":     "VND",
	"india":       "INR",
	"indonesia":   "IDR",
	"malaysia":    "MYR",
	"singapore":   "SGD",
	"korea":       "KRW",
	"south korea": "KRW",
	"uae":         "AED",
	"dubai":       "AED",
	"georgia":     "GEL",
	"armenia":     "AMD",
	"kazakhstan":  "KZT",
	"mexico":      "MXN",
	"brazil":      "BRL",
	"egypt":       "EGP",
}

// CurrencyForCountry resolves a country name to its currency code.
// The lookup is case-insensitive; ok is false for unknown countries.
func CurrencyForCountry(country string) (code string, ok bool) {
	code, ok = countryCurrencies[strings.ToLower(strings.TrimSpace(country))]
	return code, ok
}

// SupportedCurrencies lists the currency codes the conversion provider
// supports. Used as an offline fallback when the provider's currency list
// endpoint is unreachable.
var SupportedCurrencies = map[string]struct{}{}

func init() {
	codes := []string{
		"AED", "AFN", "ALL", "AMD", "ANG", "AOA", "ARS", "AUD", "AWG", "AZN",
		"BAM", "BBD", "BDT", "BGN", "BHD", "BIF", "BMD", "BND", "BOB", "BRL",
		"BSD", "BTC", "BTN", "BWP", "BYN", "BZD", "CAD", "CDF", "CHF", "CLF",
		"CLP", "CNY", "COP", "CRC", "CUC", "CUP", "CVE", "CZK", "DJF", "DKK",
		"DOP", "DZD", "EGP", "ERN", "ETB", "EUR", "FJD", "FKP", "GBP", "GEL",
		"GGP", "GHS", "GIP", "GMD", "GNF", "GTQ", "GYD", "HKD", "HNL", "HRK",
		"HTG", "HUF", "IDR", "ILS", "IMP", "INR", "IQD", "IRR", "ISK", "JEP",
		"JMD", "JOD", "JPY", "KES", "KGS", "KHR", "KMF", "KPW", "KRW", "KWD",
		"KYD", "KZT", "LAK", "LBP", "LKR", "LRD", "LSL", "LYD", "MAD", "MDL",
		"MGA", "MKD", "MMK", "MNT", "MOP", "MRO", "MUR", "MVR", "MWK", "MXN",
		"MYR", "MZN", "NAD", "NGN", "NIO", "NOK", "NPR", "NZD", "OMR", "PAB",
		"PEN", "PGK", "PHP", "PKR", "PLN", "PYG", "QAR", "RON", "RSD", "RUB",
		"RWF", "SAR", "SBD", "SCR", "SDG", "SEK", "SGD", "SHP", "SLL", "SOS",
		"SRD", "STD", "SVC", "SYP", "SZL", "THB", "TJS", "TMT", "TND", "TOP",
		"TRY", "TTD", "TWD", "TZS", "UAH", "UGX", "USD", "UYU", "UZS", "VEF",
		"VND", "VUV", "WST", "XAF", "XAG", "XAU", "XCD", "XDR", "XOF", "XPF",
		"YER", "ZAR", "ZMK", "ZMW", "ZWL",
	}
	for _, c := range codes {
		SupportedCurrencies[c] = struct{}{}
	}
}

// IsSupportedCurrency reports whether code is in the offline currency list.
func IsSupportedCurrency(code string) bool {
	_, ok := SupportedCurrencies[strings.ToUpper(code)]
	return ok
}

// Trip pairs a home (source) currency with a destination currency and tracks
// a running balance in both. At most one trip per user is active.
type Trip struct {
	ID             int64
	UserID         int64
	Name           string
	SourceCountry  string
	DestCountry    string
	SourceCurrency string
	DestCurrency   string
	// ExchangeRate is the source→destination unit rate in effect for the
	// trip. Expenses converted with a live gateway rate may make
	// BalanceDest drift from BalanceSource × ExchangeRate; a rate update
	// recomputes BalanceDest and discards the drift.
	ExchangeRate  decimal.Decimal
	BalanceSource decimal.Decimal
	BalanceDest   decimal.Decimal
	IsActive      bool
	CreatedAt     time.Time
}

// Expense is a single logged spend, immutable once created.
type Expense struct {
	ID           int64
	TripID       int64
	UserID       int64
	AmountSource decimal.Decimal
	AmountDest   decimal.Decimal
	Description  string
	CreatedAt    time.Time
}

// PendingExpense is a parsed, converted expense awaiting user confirmation.
// It is held in memory only and discarded on cancel or restart.
type PendingExpense struct {
	TripID       int64
	AmountSource decimal.Decimal
	AmountDest   decimal.Decimal
}
