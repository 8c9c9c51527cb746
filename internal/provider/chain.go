package provider

import (
	"strconv"
	"strings"
)

// OptionChainDoc is the raw option-chain document as the exchange ships
// it. Only records.data, records.expiryDates and records.underlyingValue
// are required; everything else rides along untouched.
type OptionChainDoc struct {
	Records ChainRecords `json:"records"`
}

// ChainRecords is the records block of an option-chain response.
type ChainRecords struct {
	ExpiryDates     []string     `json:"expiryDates"`
	Data            []ChainEntry `json:"data"`
	UnderlyingValue float64      `json:"underlyingValue"`
	Timestamp       string       `json:"timestamp,omitempty"`
}

// ChainEntry is one strike/expiry row of the raw chain. The CE and PE
// legs are kept as loose maps because the exchange adds and removes leg
// fields without notice; the flattener hoists whatever is present.
// StrikePrice is decoded as any since it arrives both as a JSON number
// and as a comma-grouped string.
type ChainEntry struct {
	StrikePrice any            `json:"strikePrice"`
	ExpiryDate  string         `json:"expiryDate"`
	CE          map[string]any `json:"CE"`
	PE          map[string]any `json:"PE"`
}

// Strike returns the entry's strike as a number. The second result is
// false when the upstream value is missing or unparseable.
func (e ChainEntry) Strike() (float64, bool) {
	return ToNumber(e.StrikePrice)
}

// ToNumber coerces a decoded JSON value into a float64. String values
// may carry thousands separators ("24,875.50"); those are stripped
// before parsing.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
