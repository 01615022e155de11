package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/convert", r.URL.Path)
		assert.Equal(t, "RUB", r.URL.Query().Get("from"))
		assert.Equal(t, "CNY", r.URL.Query().Get("to"))
		assert.Equal(t, "100", r.URL.Query().Get("amount"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"info": {"rate": 0.075},
			"result": 7.5
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	quote, err := client.Convert(context.Background(), "RUB", "CNY", decimal.NewFromInt(100))
	require.NoError(t, err)

	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("0.075")), "rate = %s", quote.Rate)
	assert.True(t, quote.Converted.Equal(decimal.RequireFromString("7.5")), "converted = %s", quote.Converted)
	assert.Equal(t, SourceGateway, quote.Source)
}

func TestConvertSendsAccessKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "my-key", r.URL.Query().Get("access_key"))
		_, _ = w.Write([]byte(`{"success": true, "info": {"rate": 1.1}, "result": 1.1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "my-key", 5*time.Second)
	_, err := client.Convert(context.Background(), "EUR", "USD", decimal.NewFromInt(1))
	require.NoError(t, err)
}

func TestConvertRoundsConvertedToCents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "info": {"rate": 13.3333}, "result": 266.666666}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	quote, err := client.Convert(context.Background(), "CNY", "RUB", decimal.NewFromInt(20))
	require.NoError(t, err)
	assert.Equal(t, "266.67", quote.Converted.StringFixed(2))
}

func TestConvertDerivesRateWhenMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "result": 7.5}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	quote, err := client.Convert(context.Background(), "RUB", "CNY", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("0.075")), "rate = %s", quote.Rate)
}

func TestConvertSameCurrencyShortCircuits(t *testing.T) {
	// No server needed; the request must not go out.
	client := NewClient("http://127.0.0.1:1", "", time.Second)
	quote, err := client.Convert(context.Background(), "USD", "usd", decimal.RequireFromString("12.34"))
	require.NoError(t, err)
	assert.True(t, quote.Rate.Equal(decimal.NewFromInt(1)))
	assert.True(t, quote.Converted.Equal(decimal.RequireFromString("12.34")))
}

func TestConvertRejectsNonPositiveAmount(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", time.Second)

	_, err := client.Convert(context.Background(), "RUB", "CNY", decimal.Zero)
	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, FailurePayload, gerr.Kind)

	_, err = client.Convert(context.Background(), "RUB", "CNY", decimal.NewFromInt(-5))
	require.Error(t, err)
}

func TestConvertProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"success": false,
			"error": {"code": 106, "type": "rate_limit_reached", "info": "monthly usage limit reached"}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.Convert(context.Background(), "RUB", "CNY", decimal.NewFromInt(1))

	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, FailurePayload, gerr.Kind)
	assert.Contains(t, gerr.Message, "monthly usage limit reached")
}

func TestConvertHTTPStatusFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.Convert(context.Background(), "RUB", "CNY", decimal.NewFromInt(1))

	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, FailureStatus, gerr.Kind)
	assert.Equal(t, http.StatusBadGateway, gerr.StatusCode)
}

func TestConvertNetworkFailure(t *testing.T) {
	// Nothing is listening on this port.
	client := NewClient("http://127.0.0.1:1", "", time.Second)
	_, err := client.Convert(context.Background(), "RUB", "CNY", decimal.NewFromInt(1))

	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, FailureNetwork, gerr.Kind)
}

func TestConvertMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.Convert(context.Background(), "RUB", "CNY", decimal.NewFromInt(1))

	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, FailurePayload, gerr.Kind)
}

func TestConvertMissingResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.Convert(context.Background(), "RUB", "CNY", decimal.NewFromInt(1))

	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, FailurePayload, gerr.Kind)
}

func TestSupportedCurrencies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"success": true,
			"currencies": {"USD": "United States Dollar", "RUB": "Russian Ruble", "CNY": "Chinese Yuan"}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	currencies, err := client.SupportedCurrencies(context.Background())
	require.NoError(t, err)

	assert.Len(t, currencies, 3)
	assert.Equal(t, "Russian Ruble", currencies["RUB"])
}

func TestSupportedCurrenciesFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.SupportedCurrencies(context.Background())

	gerr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, FailurePayload, gerr.Kind)
}

func TestGatewayErrorUnwrap(t *testing.T) {
	inner := assert.AnError
	gerr := &GatewayError{Kind: FailureNetwork, Message: "request failed", Err: inner}
	assert.ErrorIs(t, gerr, inner)
	assert.Contains(t, gerr.Error(), "network")
}

func TestRateSourceString(t *testing.T) {
	assert.Equal(t, "gateway", SourceGateway.String())
	assert.Equal(t, "manual", SourceManual.String())
	assert.Equal(t, "stored", SourceStoredRate.String())
	assert.Equal(t, "unknown", RateSource(99).String())
}
