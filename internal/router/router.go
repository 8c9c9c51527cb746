// Package router classifies symbols and picks the provider adapter that
// serves them. Classification is deterministic and stateless; the first
// matching rule wins.
package router

import (
	"strings"

	"github.com/seenimoa/faststock/internal/provider"
	"github.com/seenimoa/faststock/pkg/symbols"
)

// Class is the derived instrument class of a symbol. It is never
// stored; callers re-derive it on demand.
type Class int

const (
	ClassEquityForeign Class = iota
	ClassEquityLocal
	ClassCryptoSpot
	ClassForexPair
	ClassIndex
	ClassOptionContract
)

// String returns the class name used in logs.
func (c Class) String() string {
	switch c {
	case ClassEquityLocal:
		return "equity_local"
	case ClassCryptoSpot:
		return "crypto_spot"
	case ClassForexPair:
		return "forex_pair"
	case ClassIndex:
		return "index"
	case ClassOptionContract:
		return "option_contract"
	default:
		return "equity_foreign"
	}
}

// defaultCryptoTokens marks a symbol as a crypto pair when any of them
// appears as a substring. Overridable via configuration.
var defaultCryptoTokens = []string{"USDT", "BTC", "ETH", "BNB", "BUSD", "USDC"}

// Router owns the adapter handles and the classification rules.
type Router struct {
	equities     provider.Provider
	crypto       provider.Provider
	yahoo        provider.Provider
	cryptoTokens []string
}

// New builds a router. equities is the configured default equities
// adapter; yahoo additionally serves indices and forex pairs regardless
// of that choice, since the alternatives cover neither.
func New(equities, crypto, yahoo provider.Provider, cryptoTokens []string) *Router {
	if len(cryptoTokens) == 0 {
		cryptoTokens = defaultCryptoTokens
	}
	upper := make([]string, len(cryptoTokens))
	for i, tok := range cryptoTokens {
		upper[i] = strings.ToUpper(tok)
	}
	return &Router{
		equities:     equities,
		crypto:       crypto,
		yahoo:        yahoo,
		cryptoTokens: upper,
	}
}

// Classify derives the instrument class of a symbol. Rule precedence:
// crypto token substring, local-exchange suffix, known forex pair,
// named index, then foreign equity.
func (r *Router) Classify(symbol string) Class {
	symbol = symbols.Normalize(symbol)
	for _, tok := range r.cryptoTokens {
		if strings.Contains(symbol, tok) {
			return ClassCryptoSpot
		}
	}
	if symbols.IsLocal(symbol) {
		return ClassEquityLocal
	}
	if symbols.IsForexPair(symbol) {
		return ClassForexPair
	}
	if symbols.IsIndex(symbol) {
		return ClassIndex
	}
	return ClassEquityForeign
}

// Route returns the adapter that serves the symbol.
func (r *Router) Route(symbol string) provider.Provider {
	switch r.Classify(symbol) {
	case ClassCryptoSpot:
		return r.crypto
	case ClassForexPair, ClassIndex:
		return r.yahoo
	default:
		return r.equities
	}
}

// Crypto returns the crypto adapter for capability lookups
// (BatchQuoter, StatsProvider).
func (r *Router) Crypto() provider.Provider { return r.crypto }
