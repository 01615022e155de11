package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Compile-time check that Client satisfies the Service interface.
var _ Service = (*Client)(nil)

// Client is a client for an exchangerate.host-style conversion API.
type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

type providerError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

type convertResponse struct {
	Success bool `json:"success"`
	Info    struct {
		Rate json.Number `json:"rate"`
	} `json:"info"`
	Result json.Number    `json:"result"`
	Error  *providerError `json:"error"`
}

type listResponse struct {
	Success    bool              `json:"success"`
	Currencies map[string]string `json:"currencies"`
	Error      *providerError    `json:"error"`
}

// NewClient creates a conversion API client. The access key is optional.
func NewClient(baseURL, accessKey string, timeout time.Duration) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "https://api.exchangerate.host"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:   trimmed,
		accessKey: accessKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Convert converts amount from one currency to another. A single attempt is
// made; failures are returned as *GatewayError with no retry.
func (c *Client) Convert(
	ctx context.Context,
	fromCurrency, toCurrency string,
	amount decimal.Decimal,
) (Quote, error) {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	to := strings.ToUpper(strings.TrimSpace(toCurrency))
	if from == "" || to == "" {
		return Quote{}, &GatewayError{Kind: FailurePayload, Message: "from and to currencies are required"}
	}
	if !amount.IsPositive() {
		return Quote{}, &GatewayError{Kind: FailurePayload, Message: "amount must be positive"}
	}
	if from == to {
		return Quote{Rate: decimal.NewFromInt(1), Converted: amount, Source: SourceGateway}, nil
	}

	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	params.Set("amount", amount.String())

	var payload convertResponse
	if err := c.get(ctx, "/convert", params, &payload); err != nil {
		return Quote{}, err
	}

	if !payload.Success {
		return Quote{}, &GatewayError{Kind: FailurePayload, Message: providerMessage(payload.Error)}
	}

	result, err := decimal.NewFromString(payload.Result.String())
	if err != nil {
		return Quote{}, &GatewayError{Kind: FailurePayload, Message: "conversion result missing in response", Err: err}
	}
	if !result.IsPositive() {
		return Quote{}, &GatewayError{Kind: FailurePayload, Message: "conversion result must be positive"}
	}

	rate, err := decimal.NewFromString(payload.Info.Rate.String())
	if err != nil || !rate.IsPositive() {
		// Some plans omit info.rate; derive it from the result.
		rate = result.Div(amount)
	}

	return Quote{
		Rate:      rate,
		Converted: result.Round(2),
		Source:    SourceGateway,
	}, nil
}

// SupportedCurrencies returns the provider's currency code → name map.
func (c *Client) SupportedCurrencies(ctx context.Context) (map[string]string, error) {
	var payload listResponse
	if err := c.get(ctx, "/list", url.Values{}, &payload); err != nil {
		return nil, err
	}

	if !payload.Success || payload.Currencies == nil {
		return nil, &GatewayError{Kind: FailurePayload, Message: providerMessage(payload.Error)}
	}

	return payload.Currencies, nil
}

// get performs a single GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.accessKey != "" {
		params.Set("access_key", c.accessKey)
	}

	endpoint := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &GatewayError{Kind: FailureNetwork, Message: "failed to create request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Kind: FailureNetwork, Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &GatewayError{
			Kind:       FailureStatus,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("provider returned status %d", resp.StatusCode),
		}
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return &GatewayError{Kind: FailurePayload, Message: "failed to decode response", Err: err}
	}

	return nil
}

func providerMessage(perr *providerError) string {
	if perr == nil || perr.Info == "" {
		return "provider reported failure"
	}
	return perr.Info
}
