package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/faststock/pkg/models"
	"github.com/seenimoa/faststock/pkg/symbols"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// Finnhub serves equity quotes from the Finnhub REST API. It needs an
// API key; without one every call degrades to a permanent error.
type Finnhub struct {
	client  *Client
	baseURL string
	apiKey  string
}

// NewFinnhub creates the Finnhub adapter.
func NewFinnhub(apiKey string, log zerolog.Logger) *Finnhub {
	return &Finnhub{
		client:  NewClient("finnhub", 1, 2, log),
		baseURL: finnhubBaseURL,
		apiKey:  apiKey,
	}
}

// WithBaseURL points the adapter at a different host. Used in tests.
func (f *Finnhub) WithBaseURL(u string) *Finnhub {
	f.baseURL = u
	return f
}

// Name returns the adapter name.
func (f *Finnhub) Name() string { return "finnhub" }

// finnhubQuote is the /quote payload: current, change, percent change,
// high, low, open, previous close, and the quote time in Unix seconds.
type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Time          int64   `json:"t"`
}

// Quote returns a normalized equity quote.
func (f *Finnhub) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	const op = "finnhub.quote"
	symbol = symbols.Normalize(symbol)
	if f.apiKey == "" {
		return nil, Errorf(op, symbol, KindPermanent, "FINNHUB_API_KEY is not configured")
	}

	u := fmt.Sprintf("%s/quote?symbol=%s&token=%s", f.baseURL, url.QueryEscape(symbol), url.QueryEscape(f.apiKey))
	var resp finnhubQuote
	if err := f.client.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, wrap(op, symbol, err)
	}

	// Finnhub answers 200 with an all-zero body for unknown symbols.
	if resp.Current == 0 && resp.Time == 0 {
		return nil, Errorf(op, symbol, KindNotFound, "no data for %s", symbol)
	}
	if resp.Current <= 0 {
		return nil, Errorf(op, symbol, KindSchema, "non-positive price %v", resp.Current)
	}

	ts := time.Now().UTC()
	if resp.Time > 0 {
		ts = time.Unix(resp.Time, 0).UTC()
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         resp.Current,
		Change:        resp.Change,
		PercentChange: resp.PercentChange,
		Timestamp:     ts,
		Source:        f.Name(),
		Open:          resp.Open,
		High:          resp.High,
		Low:           resp.Low,
	}, nil
}

// Historical is not available on the free Finnhub tier.
func (f *Finnhub) Historical(_ context.Context, symbol, _, _ string) ([]models.Bar, error) {
	return nil, Errorf("finnhub.historical", symbols.Normalize(symbol), KindUnsupported,
		"historical candles are not supported by this adapter")
}
