// Package exchange wraps the outbound currency-conversion provider.
package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RateSource tags which source produced a conversion rate, so fallbacks are
// explicit instead of silent.
type RateSource int

const (
	// SourceGateway means the rate came from the conversion provider.
	SourceGateway RateSource = iota
	// SourceManual means the user typed the rate.
	SourceManual
	// SourceStoredRate means the trip's stored rate was used as fallback.
	SourceStoredRate
)

// String returns a short label for logs and tests.
func (s RateSource) String() string {
	switch s {
	case SourceGateway:
		return "gateway"
	case SourceManual:
		return "manual"
	case SourceStoredRate:
		return "stored"
	default:
		return "unknown"
	}
}

// Quote is the result of a currency conversion.
type Quote struct {
	Rate      decimal.Decimal
	Converted decimal.Decimal
	Source    RateSource
}

// FailureKind classifies gateway failures.
type FailureKind int

const (
	// FailureNetwork covers connection errors and timeouts.
	FailureNetwork FailureKind = iota + 1
	// FailureStatus covers non-2xx HTTP responses.
	FailureStatus
	// FailurePayload covers malformed or unsuccessful provider payloads.
	FailurePayload
)

// String returns a short label for the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network"
	case FailureStatus:
		return "status"
	case FailurePayload:
		return "payload"
	default:
		return "unknown"
	}
}

// GatewayError is a typed conversion-provider failure.
type GatewayError struct {
	Kind       FailureKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exchange gateway %s failure: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("exchange gateway %s failure: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *GatewayError) Unwrap() error { return e.Err }

// AsGatewayError unwraps err into a GatewayError.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}

// Service converts amounts between currencies via an external provider.
type Service interface {
	// Convert converts amount from one currency to another in a single
	// attempt. Errors are *GatewayError.
	Convert(ctx context.Context, fromCurrency, toCurrency string, amount decimal.Decimal) (Quote, error)
	// SupportedCurrencies returns the provider's currency code → name map.
	SupportedCurrencies(ctx context.Context) (map[string]string, error)
}
