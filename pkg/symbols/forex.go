package symbols

import "sort"

// ForexPair describes a tradable currency pair.
type ForexPair struct {
	Symbol        string `json:"symbol"`
	BaseCurrency  string `json:"base_currency"`
	QuoteCurrency string `json:"quote_currency"`
	Description   string `json:"description"`
}

// forexPairs is the set of currency pairs the service quotes.
var forexPairs = map[string]ForexPair{
	"EURUSD": {"EURUSD", "EUR", "USD", "Euro vs US Dollar"},
	"GBPUSD": {"GBPUSD", "GBP", "USD", "British Pound vs US Dollar"},
	"USDJPY": {"USDJPY", "USD", "JPY", "US Dollar vs Japanese Yen"},
	"USDCHF": {"USDCHF", "USD", "CHF", "US Dollar vs Swiss Franc"},
	"AUDUSD": {"AUDUSD", "AUD", "USD", "Australian Dollar vs US Dollar"},
	"USDCAD": {"USDCAD", "USD", "CAD", "US Dollar vs Canadian Dollar"},
	"NZDUSD": {"NZDUSD", "NZD", "USD", "New Zealand Dollar vs US Dollar"},
	"EURJPY": {"EURJPY", "EUR", "JPY", "Euro vs Japanese Yen"},
	"GBPJPY": {"GBPJPY", "GBP", "JPY", "British Pound vs Japanese Yen"},
	"EURGBP": {"EURGBP", "EUR", "GBP", "Euro vs British Pound"},
	"EURCHF": {"EURCHF", "EUR", "CHF", "Euro vs Swiss Franc"},
	"GBPCHF": {"GBPCHF", "GBP", "CHF", "British Pound vs Swiss Franc"},
	"AUDJPY": {"AUDJPY", "AUD", "JPY", "Australian Dollar vs Japanese Yen"},
	"CADJPY": {"CADJPY", "CAD", "JPY", "Canadian Dollar vs Japanese Yen"},
	"CHFJPY": {"CHFJPY", "CHF", "JPY", "Swiss Franc vs Japanese Yen"},
	"NZDJPY": {"NZDJPY", "NZD", "JPY", "New Zealand Dollar vs Japanese Yen"},
	"EURAUD": {"EURAUD", "EUR", "AUD", "Euro vs Australian Dollar"},
	"GBPAUD": {"GBPAUD", "GBP", "AUD", "British Pound vs Australian Dollar"},
	"AUDCHF": {"AUDCHF", "AUD", "CHF", "Australian Dollar vs Swiss Franc"},
	"AUDCAD": {"AUDCAD", "AUD", "CAD", "Australian Dollar vs Canadian Dollar"},
	"AUDNZD": {"AUDNZD", "AUD", "NZD", "Australian Dollar vs New Zealand Dollar"},
	"EURCAD": {"EURCAD", "EUR", "CAD", "Euro vs Canadian Dollar"},
	"GBPCAD": {"GBPCAD", "GBP", "CAD", "British Pound vs Canadian Dollar"},
	"USDSGD": {"USDSGD", "USD", "SGD", "US Dollar vs Singapore Dollar"},
	"USDHKD": {"USDHKD", "USD", "HKD", "US Dollar vs Hong Kong Dollar"},
	"USDINR": {"USDINR", "USD", "INR", "US Dollar vs Indian Rupee"},
	"USDCNY": {"USDCNY", "USD", "CNY", "US Dollar vs Chinese Yuan"},
	"USDKRW": {"USDKRW", "USD", "KRW", "US Dollar vs South Korean Won"},
	"USDZAR": {"USDZAR", "USD", "ZAR", "US Dollar vs South African Rand"},
	"USDMXN": {"USDMXN", "USD", "MXN", "US Dollar vs Mexican Peso"},
	"USDBRL": {"USDBRL", "USD", "BRL", "US Dollar vs Brazilian Real"},
	"USDTRY": {"USDTRY", "USD", "TRY", "US Dollar vs Turkish Lira"},
}

// IsForexPair reports whether the symbol is a known currency pair.
func IsForexPair(symbol string) bool {
	_, ok := forexPairs[Normalize(symbol)]
	return ok
}

// ForexPairInfo returns pair metadata for a known currency pair.
func ForexPairInfo(symbol string) (ForexPair, bool) {
	p, ok := forexPairs[Normalize(symbol)]
	return p, ok
}

// ForexPairs returns all known currency pairs in symbol order.
func ForexPairs() []ForexPair {
	out := make([]ForexPair, 0, len(forexPairs))
	for _, p := range forexPairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
