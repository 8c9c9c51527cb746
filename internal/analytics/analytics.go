// Package analytics derives trading signals from a flattened option
// chain: put-call ratios, open-interest concentration, and max pain.
package analytics

import (
	"math"
	"sort"

	"github.com/seenimoa/faststock/internal/options"
)

const (
	colCEOpenInterest = "CE_openInterest"
	colPEOpenInterest = "PE_openInterest"
	colCEVolume       = "CE_totalTradedVolume"
	colPEVolume       = "PE_totalTradedVolume"
)

// PCR holds the put-call ratios, rounded to two decimals. A zero call
// side yields 0.0, never an infinity.
type PCR struct {
	ByOI     float64 `json:"pcr_by_oi"`
	ByVolume float64 `json:"pcr_by_volume"`
}

// StrikeOI is one strike's open interest on a single leg.
type StrikeOI struct {
	Strike       float64 `json:"strike"`
	OpenInterest float64 `json:"openInterest"`
}

// TopOI ranks strikes by open interest: call-side concentration reads
// as resistance, put-side as support.
type TopOI struct {
	Resistance []StrikeOI `json:"resistance_strikes"`
	Support    []StrikeOI `json:"support_strikes"`
}

// MaxPain is the strike minimizing aggregate option-writer payout.
// Strike is nil when the chain has no strikes.
type MaxPain struct {
	Strike *int  `json:"max_pain_strike"`
	Loss   int64 `json:"max_loss_value"`
}

// Summary is the full analytics document for one snapshot.
type Summary struct {
	Index             string     `json:"index"`
	Expiry            string     `json:"expiry"`
	UnderlyingValue   float64    `json:"underlyingValue"`
	PCRByOI           float64    `json:"pcr_by_oi"`
	PCRByVolume       float64    `json:"pcr_by_volume"`
	ResistanceStrikes []StrikeOI `json:"resistance_strikes"`
	SupportStrikes    []StrikeOI `json:"support_strikes"`
	MaxPainStrike     *int       `json:"max_pain_strike"`
	MaxLossValue      int64      `json:"max_loss_value"`
}

// ComputePCR sums both legs across the chain. Missing columns count as
// zero, so a chain with no call data reports 0.0 rather than failing.
func ComputePCR(chain *options.Chain) PCR {
	var ceOI, peOI, ceVol, peVol float64
	for _, row := range chain.Rows {
		ceOI += number(row, colCEOpenInterest)
		peOI += number(row, colPEOpenInterest)
		ceVol += number(row, colCEVolume)
		peVol += number(row, colPEVolume)
	}
	return PCR{
		ByOI:     ratio(peOI, ceOI),
		ByVolume: ratio(peVol, ceVol),
	}
}

// ComputeTopOI returns the topN strikes by open interest on each leg,
// descending; equal open interest ranks the lower strike first. topN
// clamps to the number of strikes present.
func ComputeTopOI(chain *options.Chain, topN int) TopOI {
	return TopOI{
		Resistance: topByColumn(chain, colCEOpenInterest, topN),
		Support:    topByColumn(chain, colPEOpenInterest, topN),
	}
}

// ComputeMaxPain evaluates, for every candidate expiry strike K, the
// total intrinsic value paid out by option writers:
//
//	loss(K) = Σ over K' > K of (K' − K)·CE_oi(K')  +  Σ over K' < K of (K − K')·PE_oi(K')
//
// and returns the K with the smallest loss, lowest strike on ties.
func ComputeMaxPain(chain *options.Chain) MaxPain {
	type leg struct {
		strike float64
		ceOI   float64
		peOI   float64
	}
	bySt := make(map[float64]*leg)
	for _, row := range chain.Rows {
		l, ok := bySt[row.Strike]
		if !ok {
			l = &leg{strike: row.Strike}
			bySt[row.Strike] = l
		}
		l.ceOI += number(row, colCEOpenInterest)
		l.peOI += number(row, colPEOpenInterest)
	}
	if len(bySt) == 0 {
		return MaxPain{}
	}

	legs := make([]leg, 0, len(bySt))
	for _, l := range bySt {
		legs = append(legs, *l)
	}
	sort.Slice(legs, func(i, j int) bool { return legs[i].strike < legs[j].strike })

	var (
		bestStrike float64
		bestLoss   float64
		first      = true
	)
	for _, candidate := range legs {
		var loss float64
		for _, other := range legs {
			switch {
			case other.strike > candidate.strike:
				loss += (other.strike - candidate.strike) * other.ceOI
			case other.strike < candidate.strike:
				loss += (candidate.strike - other.strike) * other.peOI
			}
		}
		// Strict less keeps the lowest strike on a tie: legs iterate
		// strike-ascending.
		if first || loss < bestLoss {
			bestStrike, bestLoss, first = candidate.strike, loss, false
		}
	}

	strike := int(bestStrike)
	return MaxPain{Strike: &strike, Loss: int64(bestLoss)}
}

// Summarize runs every analytic over one snapshot.
func Summarize(index string, chain *options.Chain, topN int) Summary {
	pcr := ComputePCR(chain)
	top := ComputeTopOI(chain, topN)
	mp := ComputeMaxPain(chain)
	return Summary{
		Index:             index,
		Expiry:            chain.Expiry,
		UnderlyingValue:   chain.UnderlyingValue,
		PCRByOI:           pcr.ByOI,
		PCRByVolume:       pcr.ByVolume,
		ResistanceStrikes: top.Resistance,
		SupportStrikes:    top.Support,
		MaxPainStrike:     mp.Strike,
		MaxLossValue:      mp.Loss,
	}
}

func topByColumn(chain *options.Chain, col string, topN int) []StrikeOI {
	entries := make([]StrikeOI, 0, len(chain.Rows))
	for _, row := range chain.Rows {
		oi, ok := row.Number(col)
		if !ok {
			continue
		}
		entries = append(entries, StrikeOI{Strike: row.Strike, OpenInterest: oi})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].OpenInterest != entries[j].OpenInterest {
			return entries[i].OpenInterest > entries[j].OpenInterest
		}
		return entries[i].Strike < entries[j].Strike
	})
	if topN > len(entries) {
		topN = len(entries)
	}
	if topN < 0 {
		topN = 0
	}
	return entries[:topN]
}

func number(row options.Row, col string) float64 {
	v, ok := row.Number(col)
	if !ok {
		return 0
	}
	return v
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0.0
	}
	return math.Round(num/den*100) / 100
}
