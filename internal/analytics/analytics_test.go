package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/faststock/internal/options"
)

// row builds one chain row; pass -1 to leave a leg column out entirely.
func row(strike, ceOI, peOI, ceVol, peVol float64) options.Row {
	fields := map[string]any{}
	if ceOI >= 0 {
		fields["CE_openInterest"] = ceOI
	}
	if peOI >= 0 {
		fields["PE_openInterest"] = peOI
	}
	if ceVol >= 0 {
		fields["CE_totalTradedVolume"] = ceVol
	}
	if peVol >= 0 {
		fields["PE_totalTradedVolume"] = peVol
	}
	return options.Row{Strike: strike, Expiry: "16-Sep-2025", Fields: fields}
}

func chainOf(rows ...options.Row) *options.Chain {
	return &options.Chain{Expiry: "16-Sep-2025", UnderlyingValue: 24875, Rows: rows}
}

func TestComputePCR(t *testing.T) {
	chain := chainOf(
		row(24800, 100, 150, 1000, 500),
		row(24900, 200, 300, 1000, 2500),
	)
	pcr := ComputePCR(chain)
	assert.Equal(t, 1.5, pcr.ByOI)     // 450/300
	assert.Equal(t, 1.5, pcr.ByVolume) // 3000/2000
}

func TestComputePCRRoundsToTwoDecimals(t *testing.T) {
	chain := chainOf(row(24800, 300, 100, 0, 0))
	assert.Equal(t, 0.33, ComputePCR(chain).ByOI)
}

func TestComputePCRZeroCallSide(t *testing.T) {
	// No CE columns at all: denominator is zero, ratio reports 0.0.
	chain := chainOf(
		row(24800, -1, 150, -1, 500),
		row(24900, -1, 300, -1, 700),
	)
	pcr := ComputePCR(chain)
	assert.Equal(t, 0.0, pcr.ByOI)
	assert.Equal(t, 0.0, pcr.ByVolume)
}

func TestComputeTopOI(t *testing.T) {
	chain := chainOf(
		row(24700, 50, 900, 0, 0),
		row(24800, 500, 100, 0, 0),
		row(24900, 500, 400, 0, 0),
		row(25000, 300, 400, 0, 0),
	)
	top := ComputeTopOI(chain, 2)

	// Ties on open interest rank the lower strike first.
	require.Len(t, top.Resistance, 2)
	assert.Equal(t, 24800.0, top.Resistance[0].Strike)
	assert.Equal(t, 24900.0, top.Resistance[1].Strike)

	require.Len(t, top.Support, 2)
	assert.Equal(t, 24700.0, top.Support[0].Strike)
	assert.Equal(t, 24900.0, top.Support[1].Strike)
}

func TestComputeTopOIClampsTopN(t *testing.T) {
	chain := chainOf(row(24800, 100, 100, 0, 0))
	top := ComputeTopOI(chain, 5)
	assert.Len(t, top.Resistance, 1)
	assert.Len(t, top.Support, 1)
}

func TestComputeMaxPainTwoStrikes(t *testing.T) {
	// At 24800: call payout (24900−24800)·200 = 20000, no put payout.
	// At 24900: put payout (24900−24800)·100 = 10000.
	chain := chainOf(
		row(24800, 300, 100, 0, 0),
		row(24900, 200, 400, 0, 0),
	)
	mp := ComputeMaxPain(chain)
	require.NotNil(t, mp.Strike)
	assert.Equal(t, 24900, *mp.Strike)
	assert.Equal(t, int64(10000), mp.Loss)
}

func TestComputeMaxPainZeroLoss(t *testing.T) {
	// All open interest sits on one strike: expiring there pays nothing.
	chain := chainOf(
		row(24800, 300, 400, 0, 0),
	)
	mp := ComputeMaxPain(chain)
	require.NotNil(t, mp.Strike)
	assert.Equal(t, 24800, *mp.Strike)
	assert.Equal(t, int64(0), mp.Loss)
}

func TestComputeMaxPainDisjointLegs(t *testing.T) {
	// Calls only at the lower strike, puts only at the upper one:
	// expiring at 24800 pays neither side out.
	chain := chainOf(
		row(24800, 100, 0, 0, 0),
		row(24900, 0, 100, 0, 0),
	)
	mp := ComputeMaxPain(chain)
	require.NotNil(t, mp.Strike)
	assert.Equal(t, 24800, *mp.Strike)
	assert.Equal(t, int64(0), mp.Loss)
}

func TestComputeMaxPainTieTakesLowestStrike(t *testing.T) {
	// Symmetric chain: both strikes cost the same, the lower one wins.
	chain := chainOf(
		row(24800, 100, 100, 0, 0),
		row(24900, 100, 100, 0, 0),
	)
	mp := ComputeMaxPain(chain)
	require.NotNil(t, mp.Strike)
	assert.Equal(t, 24800, *mp.Strike)
}

func TestComputeMaxPainEmptyChain(t *testing.T) {
	mp := ComputeMaxPain(chainOf())
	assert.Nil(t, mp.Strike)
	assert.Equal(t, int64(0), mp.Loss)
}

func TestSummarize(t *testing.T) {
	chain := chainOf(
		row(24800, 100, 150, 10, 20),
		row(24900, 200, 100, 30, 15),
	)
	s := Summarize("NIFTY", chain, 1)

	assert.Equal(t, "NIFTY", s.Index)
	assert.Equal(t, "16-Sep-2025", s.Expiry)
	assert.Equal(t, 24875.0, s.UnderlyingValue)
	assert.Equal(t, 0.83, s.PCRByOI) // 250/300
	require.Len(t, s.ResistanceStrikes, 1)
	assert.Equal(t, 24900.0, s.ResistanceStrikes[0].Strike)
	require.NotNil(t, s.MaxPainStrike)
}
