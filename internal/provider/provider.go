// Package provider implements the upstream market-data adapters.
// Each adapter normalizes its upstream payloads into pkg/models types and
// classifies every failure into a Kind before returning it.
package provider

import (
	"context"

	"github.com/seenimoa/faststock/pkg/models"
)

// Provider is the minimal contract every quote source implements.
type Provider interface {
	// Name returns the adapter name used in logs and the Quote.Source field.
	Name() string

	// Quote returns a normalized real-time quote for the given symbol.
	Quote(ctx context.Context, symbol string) (*models.Quote, error)

	// Historical returns OHLCV candles. Period and interval use the
	// upstream's vocabulary ("1d", "5d", "1mo" / "1m", "1h", "1d").
	Historical(ctx context.Context, symbol, period, interval string) ([]models.Bar, error)
}

// BatchQuoter fetches quotes for several symbols in one logical call.
type BatchQuoter interface {
	MultiQuote(ctx context.Context, symbols []string) ([]models.Quote, error)
}

// StatsProvider exposes rolling 24-hour statistics.
type StatsProvider interface {
	Stats24h(ctx context.Context, symbol string) (*models.Stats24h, error)
}

// ChainProvider exposes raw option-chain documents.
type ChainProvider interface {
	OptionChain(ctx context.Context, index string) (*OptionChainDoc, error)
}
