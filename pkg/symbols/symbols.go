// Package symbols provides symbol normalization and mapping helpers shared
// by the router and the provider adapters.
package symbols

import "strings"

// Known index symbols mapped to their Yahoo Finance tickers.
var indexSymbols = map[string]string{
	"NIFTY":      "^NSEI",
	"NIFTY50":    "^NSEI",
	"NIFTY 50":   "^NSEI",
	"BANKNIFTY":  "^NSEBANK",
	"NIFTYBANK":  "^NSEBANK",
	"FINNIFTY":   "^CNXFIN",
	"NIFTYIT":    "^CNXIT",
	"SENSEX":     "^BSESN",
	"DJI":        "^DJI",
	"GSPC":       "^GSPC",
	"SPX":        "^GSPC",
	"IXIC":       "^IXIC",
	"FTSE":       "^FTSE",
	"N225":       "^N225",
}

// Normalize uppercases and trims a user-supplied symbol.
// A leading $ (common in chat-style input) is stripped.
func Normalize(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	return strings.TrimPrefix(symbol, "$")
}

// IsLocal reports whether the symbol is an NSE-listed equity (".NS" suffix).
func IsLocal(symbol string) bool {
	return strings.HasSuffix(Normalize(symbol), ".NS")
}

// IsIndex reports whether the symbol names a known market index.
func IsIndex(symbol string) bool {
	_, ok := indexSymbols[Normalize(symbol)]
	return ok
}

// YahooIndex returns the Yahoo Finance ticker for a known index symbol.
func YahooIndex(symbol string) (string, bool) {
	yf, ok := indexSymbols[Normalize(symbol)]
	return yf, ok
}

// ToYahoo converts a normalized symbol into the ticker Yahoo Finance expects.
// Indices map to their caret tickers and forex pairs gain the "=X" suffix;
// everything else passes through unchanged.
func ToYahoo(symbol string) string {
	symbol = Normalize(symbol)
	if yf, ok := indexSymbols[symbol]; ok {
		return yf
	}
	if IsForexPair(symbol) {
		return symbol + "=X"
	}
	return symbol
}
