package options

import (
	"sort"

	"github.com/seenimoa/faststock/internal/provider"
)

// Row is one flattened strike of an option chain: the CE and PE legs
// hoisted into CE_*/PE_* columns keyed by field name.
type Row struct {
	Strike float64
	Expiry string
	Fields map[string]any
}

// Number reads a row column as a float64. Missing and non-numeric
// values report false.
func (r Row) Number(col string) (float64, bool) {
	v, ok := r.Fields[col]
	if !ok {
		return 0, false
	}
	return provider.ToNumber(v)
}

// Chain is a flattened option chain for a single expiry, strike-
// ascending. Columns holds the stable column order used by the CSV
// writer: strikePrice, expiryDate, then the CE_ columns, then the PE_
// columns.
type Chain struct {
	Expiry          string
	UnderlyingValue float64
	Rows            []Row
	Columns         []string
}

// legFieldOrder fixes the column order for known leg fields; fields the
// exchange adds later sort alphabetically after these.
var legFieldOrder = []string{
	"strikePrice", "expiryDate", "underlying", "identifier",
	"openInterest", "changeinOpenInterest", "pchangeinOpenInterest",
	"totalTradedVolume", "impliedVolatility", "lastPrice",
	"change", "pChange",
	"totalBuyQuantity", "totalSellQuantity",
	"bidQty", "bidprice", "askQty", "askPrice",
	"underlyingValue",
}

var legFieldRank = func() map[string]int {
	m := make(map[string]int, len(legFieldOrder))
	for i, f := range legFieldOrder {
		m[f] = i
	}
	return m
}()

// Flatten filters the raw document to one expiry and hoists the CE/PE
// legs into flat columns. Rows with neither leg are dropped, as are
// rows whose strike is not numeric. Output is strike-ascending.
//
// An empty expiry selects the first (nearest) upstream expiry; a
// non-empty one must be present in the upstream list.
func Flatten(doc *provider.OptionChainDoc, expiry string) (*Chain, error) {
	const op = "options.flatten"

	if doc == nil || len(doc.Records.Data) == 0 {
		return nil, provider.Errorf(op, "", provider.KindSchema, "chain document has no records.data")
	}
	if len(doc.Records.ExpiryDates) == 0 {
		return nil, provider.Errorf(op, "", provider.KindSchema, "chain document has no records.expiryDates")
	}

	if expiry == "" {
		expiry = doc.Records.ExpiryDates[0]
	} else if !containsString(doc.Records.ExpiryDates, expiry) {
		return nil, provider.Errorf(op, "", provider.KindNotFound,
			"expiry %q not in upstream list %v", expiry, doc.Records.ExpiryDates)
	}

	ceCols := map[string]struct{}{}
	peCols := map[string]struct{}{}
	var rows []Row

	for _, entry := range doc.Records.Data {
		if entry.ExpiryDate != expiry {
			continue
		}
		if entry.CE == nil && entry.PE == nil {
			continue
		}
		strike, ok := entry.Strike()
		if !ok {
			continue
		}

		fields := make(map[string]any, len(entry.CE)+len(entry.PE))
		for k, v := range entry.CE {
			fields["CE_"+k] = v
			ceCols[k] = struct{}{}
		}
		for k, v := range entry.PE {
			fields["PE_"+k] = v
			peCols[k] = struct{}{}
		}
		rows = append(rows, Row{Strike: strike, Expiry: entry.ExpiryDate, Fields: fields})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Strike < rows[j].Strike })

	columns := []string{"strikePrice", "expiryDate"}
	for _, c := range orderedLegColumns(ceCols) {
		columns = append(columns, "CE_"+c)
	}
	for _, c := range orderedLegColumns(peCols) {
		columns = append(columns, "PE_"+c)
	}

	return &Chain{
		Expiry:          expiry,
		UnderlyingValue: doc.Records.UnderlyingValue,
		Rows:            rows,
		Columns:         columns,
	}, nil
}

// Band restricts a chain to the contiguous window of numStrikes strikes
// on each side of the ATM strike. It returns the banded chain, the ATM
// strike, and the inclusive selected range. The window truncates at the
// edges of the strike universe.
func Band(chain *Chain, numStrikes int) (*Chain, float64, [2]float64, error) {
	const op = "options.band"

	strikes := uniqueStrikes(chain.Rows)
	if len(strikes) == 0 {
		return nil, 0, [2]float64{}, provider.Errorf(op, "", provider.KindSchema, "chain has no numeric strikes")
	}

	atmIdx := atmIndex(strikes, chain.UnderlyingValue)
	atm := strikes[atmIdx]

	lo := atmIdx - numStrikes
	if lo < 0 {
		lo = 0
	}
	hi := atmIdx + numStrikes
	if hi > len(strikes)-1 {
		hi = len(strikes) - 1
	}
	low, high := strikes[lo], strikes[hi]

	banded := &Chain{
		Expiry:          chain.Expiry,
		UnderlyingValue: chain.UnderlyingValue,
		Columns:         chain.Columns,
	}
	for _, r := range chain.Rows {
		if r.Strike >= low && r.Strike <= high {
			banded.Rows = append(banded.Rows, r)
		}
	}
	return banded, atm, [2]float64{low, high}, nil
}

// atmIndex finds the index of the at-the-money strike: the insertion
// point of the underlying in the sorted strike list, moved one left
// when the left neighbour is strictly closer. An underlying above the
// whole universe clamps to the last strike.
func atmIndex(strikes []float64, underlying float64) int {
	idx := sort.SearchFloat64s(strikes, underlying)
	if idx >= len(strikes) {
		return len(strikes) - 1
	}
	if idx > 0 && abs(strikes[idx-1]-underlying) < abs(strikes[idx]-underlying) {
		idx--
	}
	return idx
}

func uniqueStrikes(rows []Row) []float64 {
	set := make(map[float64]struct{}, len(rows))
	for _, r := range rows {
		set[r.Strike] = struct{}{}
	}
	out := make([]float64, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Float64s(out)
	return out
}

func orderedLegColumns(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iKnown := legFieldRank[out[i]]
		rj, jKnown := legFieldRank[out[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
