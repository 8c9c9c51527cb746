package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/faststock/internal/provider"
	"github.com/seenimoa/faststock/pkg/models"
)

// fakeProvider records which adapter a symbol was routed to.
type fakeProvider struct {
	name  string
	calls []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Quote(_ context.Context, symbol string) (*models.Quote, error) {
	f.calls = append(f.calls, symbol)
	return &models.Quote{Symbol: symbol, Price: 1, Source: f.name}, nil
}

func (f *fakeProvider) Historical(context.Context, string, string, string) ([]models.Bar, error) {
	return nil, provider.Errorf(f.name+".historical", "", provider.KindUnsupported, "not supported")
}

// fakeBatcher additionally implements BatchQuoter.
type fakeBatcher struct {
	fakeProvider
	batches [][]string
}

func (f *fakeBatcher) MultiQuote(_ context.Context, syms []string) ([]models.Quote, error) {
	f.batches = append(f.batches, syms)
	out := make([]models.Quote, len(syms))
	for i, s := range syms {
		out[i] = models.Quote{Symbol: s, Price: 2, Source: f.name}
	}
	return out, nil
}

func newTestRouter() (*Router, *fakeProvider, *fakeBatcher, *fakeProvider) {
	equities := &fakeProvider{name: "equities"}
	crypto := &fakeBatcher{fakeProvider: fakeProvider{name: "crypto"}}
	yahoo := &fakeProvider{name: "yahoo"}
	return New(equities, crypto, yahoo, nil), equities, crypto, yahoo
}

func TestClassifyPrecedence(t *testing.T) {
	r, _, _, _ := newTestRouter()

	tests := []struct {
		symbol string
		want   Class
	}{
		{"BTCUSDT", ClassCryptoSpot},
		{"ethusdt", ClassCryptoSpot},
		{"SOLUSDC", ClassCryptoSpot},
		{"INFY.NS", ClassEquityLocal},
		{"reliance.ns", ClassEquityLocal},
		{"EURUSD", ClassForexPair},
		{"usdinr", ClassForexPair},
		{"NIFTY", ClassIndex},
		{"SENSEX", ClassIndex},
		{"AAPL", ClassEquityForeign},
		{"MSFT", ClassEquityForeign},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, r.Classify(tc.symbol), "symbol %s", tc.symbol)
	}
}

func TestCryptoTokenBeatsEverything(t *testing.T) {
	// The crypto rule sits at the top of the precedence table, so a
	// symbol containing a crypto token classifies as crypto even when
	// it would also match a later rule.
	r := New(&fakeProvider{name: "e"}, &fakeProvider{name: "c"}, &fakeProvider{name: "y"}, []string{"XYZ"})
	assert.Equal(t, ClassCryptoSpot, r.Classify("XYZ.NS"))
}

func TestRouteTargets(t *testing.T) {
	r, equities, crypto, yahoo := newTestRouter()

	assert.Equal(t, crypto.Name(), r.Route("BTCUSDT").Name())
	assert.Equal(t, equities.Name(), r.Route("INFY.NS").Name())
	assert.Equal(t, equities.Name(), r.Route("AAPL").Name())
	assert.Equal(t, yahoo.Name(), r.Route("EURUSD").Name())
	assert.Equal(t, yahoo.Name(), r.Route("NIFTY").Name())
}

func TestRouteContactsChosenAdapter(t *testing.T) {
	r, equities, crypto, _ := newTestRouter()

	_, err := r.Route("BTCUSDT").Quote(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, crypto.calls)
	assert.Empty(t, equities.calls)
}

func TestClassifyIsIdempotent(t *testing.T) {
	r, _, _, _ := newTestRouter()
	for _, s := range []string{"btcusdt", "INFY.NS", "aapl", "NIFTY"} {
		assert.Equal(t, r.Classify(s), r.Classify(s))
	}
}

func TestMultiQuoteSplitsByClass(t *testing.T) {
	r, equities, crypto, _ := newTestRouter()

	got, err := r.MultiQuote(context.Background(), []string{"BTCUSDT", "ETHUSDT", "AAPL", "aapl"})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Contains(t, got, "BTCUSDT")
	assert.Contains(t, got, "ETHUSDT")
	assert.Contains(t, got, "AAPL")

	// Crypto symbols travel in one batch call; the duplicate AAPL is
	// collapsed before the equities fan-out.
	require.Len(t, crypto.batches, 1)
	assert.ElementsMatch(t, []string{"BTCUSDT", "ETHUSDT"}, crypto.batches[0])
	assert.Equal(t, []string{"AAPL"}, equities.calls)
}
