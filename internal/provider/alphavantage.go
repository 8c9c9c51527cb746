package provider

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/faststock/pkg/models"
	"github.com/seenimoa/faststock/pkg/symbols"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantage serves equity quotes and daily history from the Alpha
// Vantage REST API. Every numeric field arrives as a string.
type AlphaVantage struct {
	client  *Client
	baseURL string
	apiKey  string
}

// NewAlphaVantage creates the Alpha Vantage adapter.
func NewAlphaVantage(apiKey string, log zerolog.Logger) *AlphaVantage {
	return &AlphaVantage{
		// Free tier allows 25 requests/day; keep the limiter tight.
		client:  NewClient("alphavantage", 0.5, 1, log),
		baseURL: alphaVantageBaseURL,
		apiKey:  apiKey,
	}
}

// WithBaseURL points the adapter at a different host. Used in tests.
func (a *AlphaVantage) WithBaseURL(u string) *AlphaVantage {
	a.baseURL = u
	return a
}

// Name returns the adapter name.
func (a *AlphaVantage) Name() string { return "alphavantage" }

type avQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	ErrorMsg    string            `json:"Error Message"`
}

type avDailyResponse struct {
	Series   map[string]map[string]string `json:"Time Series (Daily)"`
	Note     string                       `json:"Note"`
	ErrorMsg string                       `json:"Error Message"`
}

// Quote returns a normalized quote from the GLOBAL_QUOTE function.
func (a *AlphaVantage) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	const op = "alphavantage.quote"
	symbol = symbols.Normalize(symbol)
	if a.apiKey == "" {
		return nil, Errorf(op, symbol, KindPermanent, "ALPHAVANTAGE_API_KEY is not configured")
	}

	u := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		a.baseURL, url.QueryEscape(symbol), url.QueryEscape(a.apiKey))
	var resp avQuoteResponse
	if err := a.client.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, wrap(op, symbol, err)
	}

	if resp.Note != "" {
		return nil, Errorf(op, symbol, KindTransient, "rate limited: %s", resp.Note)
	}
	if resp.ErrorMsg != "" {
		return nil, Errorf(op, symbol, KindPermanent, "upstream error: %s", resp.ErrorMsg)
	}
	if len(resp.GlobalQuote) == 0 {
		return nil, Errorf(op, symbol, KindNotFound, "no data for %s", symbol)
	}

	price, ok := ToNumber(resp.GlobalQuote["05. price"])
	if !ok || price <= 0 {
		return nil, Errorf(op, symbol, KindSchema, "unparseable price %q", resp.GlobalQuote["05. price"])
	}
	change, _ := ToNumber(resp.GlobalQuote["09. change"])
	pctStr := resp.GlobalQuote["10. change percent"]
	if n := len(pctStr); n > 0 && pctStr[n-1] == '%' {
		pctStr = pctStr[:n-1]
	}
	pct, _ := ToNumber(pctStr)
	open, _ := ToNumber(resp.GlobalQuote["02. open"])
	high, _ := ToNumber(resp.GlobalQuote["03. high"])
	low, _ := ToNumber(resp.GlobalQuote["04. low"])
	volume, _ := ToNumber(resp.GlobalQuote["06. volume"])

	return &models.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		PercentChange: pct,
		Timestamp:     time.Now().UTC(),
		Source:        a.Name(),
		Open:          open,
		High:          high,
		Low:           low,
		Volume:        volume,
	}, nil
}

// Historical returns daily candles from TIME_SERIES_DAILY, oldest first.
// The interval argument is ignored; Alpha Vantage's free endpoint is
// daily only.
func (a *AlphaVantage) Historical(ctx context.Context, symbol, period, _ string) ([]models.Bar, error) {
	const op = "alphavantage.historical"
	symbol = symbols.Normalize(symbol)
	if a.apiKey == "" {
		return nil, Errorf(op, symbol, KindPermanent, "ALPHAVANTAGE_API_KEY is not configured")
	}

	u := fmt.Sprintf("%s/query?function=TIME_SERIES_DAILY&symbol=%s&apikey=%s",
		a.baseURL, url.QueryEscape(symbol), url.QueryEscape(a.apiKey))
	var resp avDailyResponse
	if err := a.client.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, wrap(op, symbol, err)
	}

	if resp.Note != "" {
		return nil, Errorf(op, symbol, KindTransient, "rate limited: %s", resp.Note)
	}
	if resp.ErrorMsg != "" {
		return nil, Errorf(op, symbol, KindPermanent, "upstream error: %s", resp.ErrorMsg)
	}
	if len(resp.Series) == 0 {
		return nil, Errorf(op, symbol, KindNotFound, "no daily series for %s", symbol)
	}

	dates := make([]string, 0, len(resp.Series))
	for d := range resp.Series {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if limit := klineLimit(period); len(dates) > limit {
		dates = dates[len(dates)-limit:]
	}

	bars := make([]models.Bar, 0, len(dates))
	for _, d := range dates {
		day := resp.Series[d]
		ts, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, Errorf(op, symbol, KindSchema, "bad series date %q", d)
		}
		closePx, ok := ToNumber(day["4. close"])
		if !ok {
			return nil, Errorf(op, symbol, KindSchema, "unparseable close %q on %s", day["4. close"], d)
		}
		open, _ := ToNumber(day["1. open"])
		high, _ := ToNumber(day["2. high"])
		low, _ := ToNumber(day["3. low"])
		volume, _ := ToNumber(day["5. volume"])
		bars = append(bars, models.Bar{
			Timestamp: ts.UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePx,
			Volume:    volume,
		})
	}
	return bars, nil
}
